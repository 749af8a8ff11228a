package store

import (
	"context"
	"database/sql"
)

var ErrNotFound = sql.ErrNoRows

// Init создаёт таблицы локального хранилища (sqlite).
func Init(ctx context.Context, db *sql.DB) error {
	const q = `
create table if not exists search_history (
  id         integer primary key autoincrement,
  query      text not null unique,
  created_at timestamp not null default current_timestamp
);
create table if not exists prefs (
  key   text primary key,
  value text not null
);
create table if not exists solved_tasks (
  image_hash  text not null,
  model       text not null,
  result_json text not null,
  created_at  timestamp not null default current_timestamp,
  primary key (image_hash, model)
);`
	_, err := db.ExecContext(ctx, q)
	return err
}
