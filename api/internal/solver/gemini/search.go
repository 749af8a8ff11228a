package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"stem-tutor/api/internal/solver"
)

// Grounded-поиск идёт через REST: SDK не отдаёт groundingChunks с заголовками
// источников, а они нужны для списка цитат.

type searchRequest struct {
	Contents []content `json:"contents"`
	Tools    []tool    `json:"tools"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type tool struct {
	GoogleSearch struct{} `json:"google_search"`
}

// Минимально необходимая часть ответа.
type searchResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		GroundingMetadata *struct {
			GroundingChunks []struct {
				Web *struct {
					URI   string `json:"uri"`
					Title string `json:"title"`
				} `json:"web"`
			} `json:"groundingChunks"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
}

// GroundedSearch выполняет запрос с инструментом веб-поиска и возвращает
// текст ответа плюс сырые цитаты (фильтрация и дедуп — в конвейере).
func (e *Engine) GroundedSearch(ctx context.Context, query string) (string, []solver.WebSource, error) {
	if e.APIKey == "" {
		return "", nil, solver.ErrNoCredential
	}

	reqBody := searchRequest{
		Contents: []content{{Parts: []part{{Text: query}}}},
		Tools:    []tool{{}},
	}
	payload, _ := json.Marshal(reqBody)

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", e.baseURL, e.Model, e.APIKey)
	req, _ := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpc.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(resp.Body)
		return "", nil, fmt.Errorf("gemini search: %w", &solver.StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(x))})
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", nil, fmt.Errorf("gemini search: bad JSON (%v): %w", err, solver.ErrBadSchema)
	}
	if len(out.Candidates) == 0 {
		return "", nil, nil
	}

	cand := out.Candidates[0]
	var sb strings.Builder
	if cand.Content != nil {
		for _, p := range cand.Content.Parts {
			sb.WriteString(p.Text)
		}
	}

	var sources []solver.WebSource
	if cand.GroundingMetadata != nil {
		for _, ch := range cand.GroundingMetadata.GroundingChunks {
			if ch.Web == nil {
				continue
			}
			sources = append(sources, solver.WebSource{URI: ch.Web.URI, Title: ch.Web.Title})
		}
	}
	return sb.String(), sources, nil
}
