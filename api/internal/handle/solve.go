package handle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"stem-tutor/api/internal/solver"
	"stem-tutor/api/internal/store"
)

type SolveRequest struct {
	ImageB64 string `json:"image_b64"` // base64 или data:URI
	MIMEType string `json:"mime_type,omitempty"`
}

const solveCacheAge = 24 * time.Hour

func (h *Handle) Solve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	var req SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return
	}

	img, hintMIME, err := solver.DecodeBase64MaybeDataURL(req.ImageB64)
	if err != nil || len(img) == 0 {
		http.Error(w, "bad image_b64", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 180*time.Second)
	defer cancel()

	// Повторно присланная картинка отдаётся из кэша решений.
	sum := sha256.Sum256(img)
	hash := hex.EncodeToString(sum[:])
	if h.Solved != nil {
		if art, err := h.Solved.FindByHash(ctx, hash, h.Model, solveCacheAge); err == nil {
			h.Sess.Adopt(*art)
			writeJSON(w, http.StatusOK, art)
			return
		} else if err != store.ErrNotFound {
			log.Printf("solve cache read: %v", err)
		}
	}

	media, err := solver.EncodeMedia(img, solver.PickMIME(req.MIMEType, hintMIME, img))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	art, err := h.Sess.Solve(ctx, media)
	if err != nil {
		fail(w, err)
		return
	}
	if h.Solved != nil {
		if err := h.Solved.Upsert(ctx, hash, h.Model, art); err != nil {
			log.Printf("solve cache write: %v", err)
		}
	}
	writeJSON(w, http.StatusOK, art)
}
