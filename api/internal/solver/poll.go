package solver

import (
	"context"
	"errors"
	"time"
)

// ErrPollLimit возвращается, когда исчерпан лимит попыток опроса.
var ErrPollLimit = errors.New("poll attempt limit reached")

// Poller — примитив «опрашивай до готовности»: фиксированный интервал,
// необязательный лимит попыток. Референсное поведение — без лимита,
// но это известная дыра, поэтому вызывающие задают MaxAttempts.
type Poller struct {
	Interval    time.Duration
	MaxAttempts int // 0 — без ограничения

	// Sleep подменяется в тестах. nil — обычное ожидание по таймеру.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Until ждёт интервал, затем вызывает step; повторяет, пока step не вернёт
// done=true. Ошибка step завершает опрос немедленно.
func (p Poller) Until(ctx context.Context, step func(ctx context.Context) (done bool, err error)) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	for attempt := 1; ; attempt++ {
		if err := sleep(ctx, p.Interval); err != nil {
			return err
		}
		done, err := step(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return ErrPollLimit
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
