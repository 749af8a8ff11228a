package handle

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

type TranslateRequest struct {
	Target string `json:"target"` // "solution" | "search"
	Lang   string `json:"lang"`
}

type TranslateResponse struct {
	Text         string `json:"text"`
	Verification string `json:"verification,omitempty"`
}

func (h *Handle) Translate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	var req TranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return
	}
	lang := strings.TrimSpace(req.Lang)
	if lang == "" {
		http.Error(w, "empty lang", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 70*time.Second)
	defer cancel()

	switch req.Target {
	case "solution", "":
		text, err := h.Sess.TranslateSolution(ctx, lang)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, TranslateResponse{Text: text})
	case "search":
		text, verification, err := h.Sess.TranslateSearch(ctx, lang)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, TranslateResponse{Text: text, Verification: verification})
	default:
		http.Error(w, "unknown target: "+req.Target, http.StatusBadRequest)
	}
}
