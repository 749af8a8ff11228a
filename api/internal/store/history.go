package store

import (
	"context"
	"database/sql"
	"strings"
)

// HistoryCap — размер недавней истории запросов.
const HistoryCap = 5

// HistoryRepo — ограниченная история поисковых запросов: свежие сверху,
// дедуп по точному совпадению текста, не больше HistoryCap записей.
type HistoryRepo struct{ DB *sql.DB }

func NewHistoryRepo(db *sql.DB) *HistoryRepo { return &HistoryRepo{DB: db} }

// Add пишет запрос в начало истории. Точный дубликат переезжает наверх,
// всё сверх лимита отбрасывается с хвоста.
func (r *HistoryRepo) Add(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `delete from search_history where query = ?`, query); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `insert into search_history (query) values (?)`, query); err != nil {
		return err
	}
	const trim = `
delete from search_history
where id not in (select id from search_history order by id desc limit ?)`
	if _, err := tx.ExecContext(ctx, trim, HistoryCap); err != nil {
		return err
	}
	return tx.Commit()
}

// Recent возвращает историю, самые свежие первыми.
func (r *HistoryRepo) Recent(ctx context.Context) ([]string, error) {
	const q = `select query from search_history order by id desc limit ?`
	rows, err := r.DB.QueryContext(ctx, q, HistoryCap)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
