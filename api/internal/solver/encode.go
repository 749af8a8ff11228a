package solver

import (
	"encoding/base64"
	"net/http"
	"strings"
)

// InlineMedia — инлайновый формат вложения для запросов к модели:
// содержимое в base64 плюс объявленный media type.
type InlineMedia struct {
	Data     string `json:"data"`
	MIMEType string `json:"mimeType"`
}

// EncodeMedia упаковывает сырые байты файла в InlineMedia.
// MIME: явный > детект по байтам > image/jpeg.
func EncodeMedia(data []byte, declaredMIME string) (InlineMedia, error) {
	if len(data) == 0 {
		return InlineMedia{}, ErrEmptyMedia
	}
	return InlineMedia{
		Data:     base64.StdEncoding.EncodeToString(data),
		MIMEType: PickMIME(declaredMIME, "", data),
	}, nil
}

// Bytes декодирует payload обратно в сырые байты.
func (m InlineMedia) Bytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(m.Data)
}

// DecodeBase64MaybeDataURL декодирует base64. Если это data:URI, вернёт MIME из префикса.
func DecodeBase64MaybeDataURL(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	var hintMIME string
	if strings.HasPrefix(s, "data:") {
		// data:<mime>;base64,<payload>
		if idx := strings.IndexByte(s, ','); idx > 0 {
			meta := s[len("data:"):idx] // "<mime>;base64"
			if semi := strings.IndexByte(meta, ';'); semi >= 0 {
				hintMIME = meta[:semi]
			} else {
				hintMIME = meta
			}
			s = s[idx+1:]
		}
	}
	// Стандартная база64, затем URL-safe — на случай вариаций
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, hintMIME, nil
	} else if b2, err2 := base64.URLEncoding.DecodeString(s); err2 == nil {
		return b2, hintMIME, nil
	} else {
		return nil, "", err
	}
}

// PickMIME берём явный MIME, затем hint (например из data:URI), иначе детектим по байтам.
func PickMIME(explicit, hint string, data []byte) string {
	if exp := strings.TrimSpace(explicit); exp != "" {
		return exp
	}
	if h := strings.TrimSpace(hint); h != "" {
		return h
	}
	if len(data) > 0 {
		return http.DetectContentType(data) // вернёт image/jpeg|png|webp и т.д.
	}
	return "image/jpeg"
}
