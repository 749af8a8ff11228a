package handle

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

type VideoResponse struct {
	VideoURI string `json:"videoUri"`
}

// Video синхронно гонит весь цикл генерации: отправка задачи и опрос до
// готовности, поэтому таймаут здесь с запасом больше шага опроса.
func (h *Handle) Video(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 600*time.Second)
	defer cancel()

	uri, err := h.Sess.GenerateVideo(ctx)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, VideoResponse{VideoURI: uri})
}

type ThemeRequest struct {
	Theme string `json:"theme"`
}

func (h *Handle) Theme(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		theme, err := h.Prefs.Theme(r.Context())
		if err != nil {
			theme = "light"
		}
		writeJSON(w, http.StatusOK, ThemeRequest{Theme: theme})
	case http.MethodPost:
		var req ThemeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if req.Theme != "light" && req.Theme != "dark" {
			http.Error(w, "theme must be light or dark", http.StatusBadRequest)
			return
		}
		if err := h.Prefs.SetTheme(r.Context(), req.Theme); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, req)
	default:
		http.Error(w, "GET or POST only", http.StatusMethodNotAllowed)
	}
}

func (h *Handle) Reset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	// Сбрасывает только локальное состояние; удалённую задачу не остановить.
	h.Sess.Reset()
	w.WriteHeader(http.StatusNoContent)
}
