package handle

import (
	"encoding/json"
	"errors"
	"net/http"

	"stem-tutor/api/internal/session"
	"stem-tutor/api/internal/solver"
	"stem-tutor/api/internal/store"
)

type Handle struct {
	Sess    *session.Session
	History *store.HistoryRepo
	Prefs   *store.PrefsRepo
	Solved  *store.SolveRepo

	// Модель нужна как часть ключа кэша решений.
	Model string
}

func New(sess *session.Session, history *store.HistoryRepo, prefs *store.PrefsRepo, solved *store.SolveRepo, model string) *Handle {
	return &Handle{
		Sess:    sess,
		History: history,
		Prefs:   prefs,
		Solved:  solved,
		Model:   model,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// failStatus переводит таксономию ошибок ядра в HTTP-статусы.
func failStatus(err error) int {
	switch {
	case errors.Is(err, solver.ErrVideoBusy), errors.Is(err, session.ErrSolveBusy):
		return http.StatusConflict
	case errors.Is(err, session.ErrNoSolution), errors.Is(err, session.ErrNoSearch):
		return http.StatusBadRequest
	case errors.Is(err, solver.ErrNoCredential):
		return http.StatusUnauthorized
	case solver.IsAuthError(err):
		return http.StatusForbidden
	default:
		return http.StatusBadGateway
	}
}

func fail(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), failStatus(err))
}
