package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stem-tutor/api/internal/solver"
)

const (
	pollInterval = 10 * time.Second
	// Референс опрашивает бесконечно; здесь лимит ~10 минут.
	pollMaxAttempts = 60
)

// Operation — handle долгой операции генерации. Каждый опрос статуса
// возвращает свежий handle, которым заменяется предыдущий.
type Operation struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
	Response *struct {
		GenerateVideoResponse *struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response,omitempty"`
}

type videoRequest struct {
	Instances  []videoInstance `json:"instances"`
	Parameters videoParams     `json:"parameters"`
}

type videoInstance struct {
	Prompt string `json:"prompt"`
}

type videoParams struct {
	SampleCount int    `json:"sampleCount"`
	AspectRatio string `json:"aspectRatio"`
	Resolution  string `json:"resolution"`
}

// SubmitVideo создаёт задачу генерации: 1 ролик, фиксированные
// разрешение и соотношение сторон.
func (e *Engine) SubmitVideo(ctx context.Context, prompt string) (Operation, error) {
	if e.APIKey == "" {
		return Operation{}, solver.ErrNoCredential
	}
	reqBody := videoRequest{
		Instances: []videoInstance{{Prompt: prompt}},
		Parameters: videoParams{
			SampleCount: 1,
			AspectRatio: "16:9",
			Resolution:  "720p",
		},
	}
	payload, _ := json.Marshal(reqBody)

	u := fmt.Sprintf("%s/v1beta/models/%s:predictLongRunning?key=%s", e.baseURL, e.VideoModel, e.APIKey)
	return e.doOperation(ctx, "POST", u, payload)
}

// CheckOperation повторно запрашивает статус по имени handle.
func (e *Engine) CheckOperation(ctx context.Context, name string) (Operation, error) {
	u := fmt.Sprintf("%s/v1beta/%s?key=%s", e.baseURL, name, e.APIKey)
	return e.doOperation(ctx, "GET", u, nil)
}

func (e *Engine) doOperation(ctx context.Context, method, u string, payload []byte) (Operation, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return Operation{}, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.httpc.Do(req)
	if err != nil {
		return Operation{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(resp.Body)
		return Operation{}, fmt.Errorf("gemini video: %w", &solver.StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(x))})
	}

	var op Operation
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return Operation{}, fmt.Errorf("gemini video: bad JSON (%v): %w", err, solver.ErrBadSchema)
	}
	return op, nil
}

// GenerateVideo отправляет задачу и опрашивает её до готовности с фиксированным
// шагом, каждый раз заменяя handle свежим. Возвращает URI ролика с ключом
// доступа в query-параметре: ресурс закрыт без него.
func (e *Engine) GenerateVideo(ctx context.Context, prompt string) (string, error) {
	op, err := e.SubmitVideo(ctx, prompt)
	if err != nil {
		return "", err
	}

	if !op.Done {
		p := solver.Poller{
			Interval:    pollInterval,
			MaxAttempts: pollMaxAttempts,
			Sleep:       e.sleep,
		}
		err = p.Until(ctx, func(ctx context.Context) (bool, error) {
			next, err := e.CheckOperation(ctx, op.Name)
			if err != nil {
				return false, err
			}
			op = next
			return op.Done, nil
		})
		if err != nil {
			return "", err
		}
	}

	if op.Error != nil {
		return "", fmt.Errorf("gemini video: operation failed %d: %s", op.Error.Code, op.Error.Message)
	}
	uri := op.videoURI()
	if uri == "" {
		return "", fmt.Errorf("gemini video: %w", solver.ErrNoVideo)
	}
	return withKey(uri, e.APIKey), nil
}

func (op Operation) videoURI() string {
	if op.Response == nil || op.Response.GenerateVideoResponse == nil {
		return ""
	}
	for _, s := range op.Response.GenerateVideoResponse.GeneratedSamples {
		if s.Video.URI != "" {
			return s.Video.URI
		}
	}
	return ""
}

func withKey(raw, key string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set("key", key)
	u.RawQuery = q.Encode()
	return u.String()
}
