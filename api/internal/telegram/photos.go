package telegram

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"stem-tutor/api/internal/solver"
	"stem-tutor/api/internal/store"
)

var httpc = &http.Client{Timeout: 60 * time.Second}

const solveCacheAge = 24 * time.Hour

func (r *Router) acceptPhoto(msg tgbotapi.Message) {
	cid := msg.Chat.ID
	ph := msg.Photo[len(msg.Photo)-1]

	file, err := r.Bot.GetFile(tgbotapi.FileConfig{FileID: ph.FileID})
	if err != nil {
		r.sendError(cid, err)
		return
	}
	url := fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", r.Bot.Token, file.FilePath)
	img, err := download(url)
	if err != nil {
		r.sendError(cid, err)
		return
	}

	r.send(cid, "Принял фото, решаю…")
	r.runSolve(cid, img)
}

func (r *Router) runSolve(cid int64, img []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), 180*time.Second)
	defer cancel()

	sum := sha256.Sum256(img)
	hash := hex.EncodeToString(sum[:])

	sess := r.Sessions.Get(cid)

	// то же фото за последние сутки — без похода к модели
	if art, err := r.Solved.FindByHash(ctx, hash, r.Model, solveCacheAge); err == nil {
		sess.Adopt(*art)
		r.sendArtifact(cid, *art)
		return
	} else if err != store.ErrNotFound {
		log.Printf("solve cache read: %v", err)
	}

	media, err := solver.EncodeMedia(img, "")
	if err != nil {
		r.sendError(cid, err)
		return
	}
	art, err := sess.Solve(ctx, media)
	if err != nil {
		r.sendError(cid, err)
		r.send(cid, "Пришли фото ещё раз, чтобы повторить.")
		return
	}
	if err := r.Solved.Upsert(ctx, hash, r.Model, art); err != nil {
		log.Printf("solve cache write: %v", err)
	}
	r.sendArtifact(cid, art)
}

func (r *Router) sendArtifact(cid int64, art solver.SolutionArtifact) {
	r.sendMarkdown(cid, art.SolutionMarkdown)
	r.send(cid, "Уверенность: "+string(art.Confidence)+"\n/video — видео-визуализация, /translate <язык> — перевод")
}

func download(url string) ([]byte, error) {
	resp, err := httpc.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
	}
	return io.ReadAll(resp.Body)
}
