package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"stem-tutor/api/internal/config"
	"stem-tutor/api/internal/handle"
	"stem-tutor/api/internal/session"
	"stem-tutor/api/internal/solver"
	"stem-tutor/api/internal/solver/gemini"
	"stem-tutor/api/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		log.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()
	{
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Init(ctx, db); err != nil {
			log.Fatalf("store init: %v", err)
		}
	}

	eng := gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiVerifyModel, cfg.VideoModel)
	sess := session.New(eng, solver.StaticCredential{Key: cfg.GeminiAPIKey})

	h := handle.New(sess,
		store.NewHistoryRepo(db),
		store.NewPrefsRepo(db),
		store.NewSolveRepo(db),
		cfg.GeminiModel,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/solve", h.Solve)
	mux.HandleFunc("/v1/search", h.Search)
	mux.HandleFunc("/v1/translate", h.Translate)
	mux.HandleFunc("/v1/video", h.Video)
	mux.HandleFunc("/v1/history", h.HistoryList)
	mux.HandleFunc("/v1/theme", h.Theme)
	mux.HandleFunc("/v1/reset", h.Reset)

	addr := ":" + cfg.Port
	log.Printf("stem-tutor listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, mux))
}
