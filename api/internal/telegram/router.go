package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"stem-tutor/api/internal/session"
	"stem-tutor/api/internal/store"
	"stem-tutor/api/internal/util"
)

type Router struct {
	Bot      *tgbotapi.BotAPI
	Sessions *session.Manager
	History  *store.HistoryRepo
	Prefs    *store.PrefsRepo
	Solved   *store.SolveRepo

	// Модель — часть ключа кэша решений.
	Model string
}

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	cid := upd.Message.Chat.ID

	if upd.Message.IsCommand() {
		r.handleCommand(upd)
		return
	}

	// фото задачи
	if len(upd.Message.Photo) > 0 {
		r.acceptPhoto(*upd.Message)
		return
	}

	if strings.TrimSpace(upd.Message.Text) != "" {
		r.send(cid, "Пришли фото задачи или используй /search <запрос>. Список команд: /start")
	}
}

func (r *Router) handleCommand(upd tgbotapi.Update) {
	cid := upd.Message.Chat.ID
	args := strings.TrimSpace(upd.Message.CommandArguments())

	switch upd.Message.Command() {
	case "start":
		r.send(cid, "Пришли фото STEM-задачи — верну пошаговое решение.\n"+
			"Команды:\n/video — видео-визуализация решения\n/search <запрос> — поиск с проверкой\n"+
			"/translate <язык> — перевод решения\n/history — недавние запросы\n/theme light|dark\n/reset")
	case "search":
		r.runSearch(cid, args)
	case "video":
		r.runVideo(cid)
	case "translate":
		r.runTranslate(cid, args)
	case "history":
		r.showHistory(cid)
	case "theme":
		r.setTheme(cid, args)
	case "reset":
		r.Sessions.Get(cid).Reset()
		r.send(cid, "Ок, состояние сброшено. Уже запущенная генерация на сервере не отменяется.")
	default:
		r.send(cid, "Неизвестная команда")
	}
}

func (r *Router) runSearch(cid int64, query string) {
	if query == "" {
		r.send(cid, "Использование: /search <запрос>")
		return
	}
	r.send(cid, "Ищу и проверяю…")

	ctx, cancel := context.WithTimeout(context.Background(), 70*time.Second)
	defer cancel()

	sess := r.Sessions.Get(cid)
	res, err := sess.Search(ctx, query)
	if err != nil {
		r.sendError(cid, err)
		return
	}
	if err := r.History.Add(ctx, query); err != nil {
		log.Printf("history write: %v", err)
	}

	var sb strings.Builder
	sb.WriteString(res.Text)
	if len(res.WebSources) > 0 {
		sb.WriteString("\n\nИсточники:")
		for i, s := range res.WebSources {
			fmt.Fprintf(&sb, "\n%d. %s — %s", i+1, s.Title, s.URI)
		}
	}
	if res.Verification != "" {
		sb.WriteString("\n\nПроверка: " + res.Verification)
	}
	r.send(cid, util.TruncateRunes(sb.String(), 3900))
}

func (r *Router) runVideo(cid int64) {
	sess := r.Sessions.Get(cid)
	r.send(cid, "Запускаю генерацию видео, это может занять несколько минут…")

	ctx, cancel := context.WithTimeout(context.Background(), 600*time.Second)
	defer cancel()

	uri, err := sess.GenerateVideo(ctx)
	if err != nil {
		r.sendError(cid, err)
		r.send(cid, "Можно повторить: /video")
		return
	}
	r.send(cid, "Видео готово:\n"+uri)
}

func (r *Router) runTranslate(cid int64, lang string) {
	if lang == "" {
		r.send(cid, "Использование: /translate <язык>, например /translate Spanish")
		return
	}
	sess := r.Sessions.Get(cid)

	ctx, cancel := context.WithTimeout(context.Background(), 70*time.Second)
	defer cancel()

	if text, err := sess.TranslateSolution(ctx, lang); err == nil {
		r.sendMarkdown(cid, text)
		return
	} else if err != session.ErrNoSolution {
		// молча откатываемся на исходный язык
		log.Printf("translate solution: %v", err)
		if art, ok := sess.Artifact(); ok {
			r.sendMarkdown(cid, art.SolutionMarkdown)
		}
		return
	}

	text, verification, err := sess.TranslateSearch(ctx, lang)
	if err == session.ErrNoSearch {
		r.send(cid, "Нечего переводить: сначала пришли задачу или сделай /search.")
		return
	}
	if err != nil {
		log.Printf("translate search: %v", err)
		if res, ok := sess.LastSearch(); ok {
			r.send(cid, util.TruncateRunes(res.Text, 3900))
		}
		return
	}
	out := text
	if verification != "" {
		out += "\n\nПроверка: " + verification
	}
	r.send(cid, util.TruncateRunes(out, 3900))
}

func (r *Router) showHistory(cid int64) {
	queries, err := r.History.Recent(context.Background())
	if err != nil {
		r.sendError(cid, err)
		return
	}
	if len(queries) == 0 {
		r.send(cid, "История пуста.")
		return
	}
	var sb strings.Builder
	sb.WriteString("Недавние запросы:")
	for i, q := range queries {
		fmt.Fprintf(&sb, "\n%d. %s", i+1, q)
	}
	r.send(cid, sb.String())
}

func (r *Router) setTheme(cid int64, theme string) {
	if theme != "light" && theme != "dark" {
		cur, err := r.Prefs.Theme(context.Background())
		if err != nil {
			cur = "light"
		}
		r.send(cid, "Текущая тема: "+cur+"\nИспользование: /theme light | dark")
		return
	}
	if err := r.Prefs.SetTheme(context.Background(), theme); err != nil {
		r.sendError(cid, err)
		return
	}
	r.send(cid, "Ок, тема: "+theme)
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	_, _ = r.Bot.Send(msg)
}

func (r *Router) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, util.TruncateRunes(text, 3900))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := r.Bot.Send(msg); err != nil {
		// кривая разметка — отправляем как есть
		r.send(chatID, util.TruncateRunes(text, 3900))
	}
}

func (r *Router) sendError(chatID int64, err error) {
	r.send(chatID, "⚠️ "+util.TruncateRunes(err.Error(), 1000))
}
