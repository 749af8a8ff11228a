package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"stem-tutor/api/internal/solver"
)

// SolveRepo кэширует артефакты решений по хэшу картинки и модели: повторно
// присланное фото не ходит к модели ещё раз.
type SolveRepo struct{ DB *sql.DB }

func NewSolveRepo(db *sql.DB) *SolveRepo { return &SolveRepo{DB: db} }

// FindByHash достаёт запись по ключу (image_hash, model).
// Если maxAge > 0 — проверяет свежесть, иначе игнорирует возраст.
func (r *SolveRepo) FindByHash(ctx context.Context, imageHash, model string, maxAge time.Duration) (*solver.SolutionArtifact, error) {
	const q = `
select result_json, created_at
from solved_tasks
where image_hash = ? and model = ?`
	var (
		js []byte
		ts time.Time
	)
	if err := r.DB.QueryRowContext(ctx, q, imageHash, model).Scan(&js, &ts); err != nil {
		return nil, err
	}
	if maxAge > 0 && time.Since(ts) > maxAge {
		return nil, ErrNotFound
	}
	var art solver.SolutionArtifact
	if err := json.Unmarshal(js, &art); err != nil {
		// поломанный JSON считаем отсутствием записи
		return nil, ErrNotFound
	}
	return &art, nil
}

// Upsert сохраняет артефакт; существующая запись по ключу перезаписывается.
func (r *SolveRepo) Upsert(ctx context.Context, imageHash, model string, art solver.SolutionArtifact) error {
	js, _ := json.Marshal(art)
	const q = `
insert into solved_tasks (image_hash, model, result_json, created_at)
values (?, ?, ?, current_timestamp)
on conflict (image_hash, model) do update
set result_json = excluded.result_json,
    created_at  = excluded.created_at`
	_, err := r.DB.ExecContext(ctx, q, imageHash, model, string(js))
	return err
}

// PurgeOlderThan удаляет старые записи, чтобы не раздувать базу.
func (r *SolveRepo) PurgeOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("olderThan must be > 0")
	}
	// created_at пишется через current_timestamp — сравниваем в том же
	// текстовом формате UTC.
	cutoff := time.Now().UTC().Add(-olderThan).Format("2006-01-02 15:04:05")
	const q = `delete from solved_tasks where created_at < ?`
	res, err := r.DB.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	aff, _ := res.RowsAffected()
	return aff, nil
}
