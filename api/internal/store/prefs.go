package store

import (
	"context"
	"database/sql"
)

const themeKey = "theme"

// PrefsRepo — настройки отображения под фиксированными ключами.
// Читаются один раз на старте, пишутся на каждое изменение.
type PrefsRepo struct{ DB *sql.DB }

func NewPrefsRepo(db *sql.DB) *PrefsRepo { return &PrefsRepo{DB: db} }

func (r *PrefsRepo) Theme(ctx context.Context) (string, error) {
	const q = `select value from prefs where key = ?`
	var v string
	if err := r.DB.QueryRowContext(ctx, q, themeKey).Scan(&v); err != nil {
		return "", err
	}
	return v, nil
}

func (r *PrefsRepo) SetTheme(ctx context.Context, theme string) error {
	const q = `
insert into prefs (key, value) values (?, ?)
on conflict (key) do update set value = excluded.value`
	_, err := r.DB.ExecContext(ctx, q, themeKey, theme)
	return err
}
