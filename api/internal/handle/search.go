package handle

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"
)

type SearchRequest struct {
	Query string `json:"query"`
}

func (h *Handle) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		http.Error(w, "empty query", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 70*time.Second)
	defer cancel()

	res, err := h.Sess.Search(ctx, query)
	if err != nil {
		fail(w, err)
		return
	}
	if h.History != nil {
		if err := h.History.Add(ctx, query); err != nil {
			log.Printf("history write: %v", err)
		}
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handle) HistoryList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "GET only", http.StatusMethodNotAllowed)
		return
	}
	queries, err := h.History.Recent(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"queries": queries})
}
