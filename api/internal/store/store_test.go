package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	_ "modernc.org/sqlite"

	"stem-tutor/api/internal/solver"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if err := Init(context.Background(), db); err != nil {
		t.Fatal(err)
	}
	return db
}

func TestHistory_CapDropsOldest(t *testing.T) {
	ctx := context.Background()
	r := NewHistoryRepo(testDB(t))

	for i := 1; i <= HistoryCap+1; i++ {
		if err := r.Add(ctx, fmt.Sprintf("query %d", i)); err != nil {
			t.Fatal(err)
		}
	}
	got, err := r.Recent(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"query 6", "query 5", "query 4", "query 3", "query 2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("history (-want +got):\n%s", diff)
	}
}

func TestHistory_DuplicateMovesToFront(t *testing.T) {
	ctx := context.Background()
	r := NewHistoryRepo(testDB(t))

	for _, q := range []string{"alpha", "beta", "gamma"} {
		if err := r.Add(ctx, q); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.Add(ctx, "alpha"); err != nil {
		t.Fatal(err)
	}
	got, err := r.Recent(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"alpha", "gamma", "beta"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("history (-want +got):\n%s", diff)
	}
}

func TestHistory_BlankQueryIgnored(t *testing.T) {
	ctx := context.Background()
	r := NewHistoryRepo(testDB(t))
	if err := r.Add(ctx, "   "); err != nil {
		t.Fatal(err)
	}
	got, err := r.Recent(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("history = %v, want empty", got)
	}
}

func TestPrefs_ThemeRoundtrip(t *testing.T) {
	ctx := context.Background()
	r := NewPrefsRepo(testDB(t))

	if _, err := r.Theme(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unset theme err = %v, want ErrNotFound", err)
	}
	if err := r.SetTheme(ctx, "dark"); err != nil {
		t.Fatal(err)
	}
	if err := r.SetTheme(ctx, "light"); err != nil {
		t.Fatal(err)
	}
	got, err := r.Theme(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != "light" {
		t.Errorf("theme = %q, want light", got)
	}
}

func TestSolveRepo_Roundtrip(t *testing.T) {
	ctx := context.Background()
	r := NewSolveRepo(testDB(t))

	art := solver.SolutionArtifact{
		SolutionMarkdown: "**Final Answer**\n$\\boxed{42}$",
		VisualPrompt:     "a pendulum",
		Confidence:       solver.ConfidenceMedium,
	}
	if err := r.Upsert(ctx, "hash1", "gemini-2.5-flash", art); err != nil {
		t.Fatal(err)
	}
	got, err := r.FindByHash(ctx, "hash1", "gemini-2.5-flash", 0)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(&art, got); diff != "" {
		t.Errorf("artifact (-want +got):\n%s", diff)
	}

	// другая модель — другой ключ
	if _, err := r.FindByHash(ctx, "hash1", "gemini-2.5-pro", 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-model lookup err = %v, want ErrNotFound", err)
	}

	// перезапись по тому же ключу
	art.SolutionMarkdown = "**Final Answer**\n$\\boxed{43}$"
	if err := r.Upsert(ctx, "hash1", "gemini-2.5-flash", art); err != nil {
		t.Fatal(err)
	}
	got, err = r.FindByHash(ctx, "hash1", "gemini-2.5-flash", 0)
	if err != nil {
		t.Fatal(err)
	}
	if got.SolutionMarkdown != art.SolutionMarkdown {
		t.Error("upsert did not replace the record")
	}
}

func TestSolveRepo_MaxAge(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	r := NewSolveRepo(db)

	art := solver.SolutionArtifact{SolutionMarkdown: "x", Confidence: solver.ConfidenceLow}
	if err := r.Upsert(ctx, "hash1", "m", art); err != nil {
		t.Fatal(err)
	}
	// состарить запись напрямую
	if _, err := db.ExecContext(ctx,
		`update solved_tasks set created_at = datetime('now', '-2 days') where image_hash = ?`,
		"hash1"); err != nil {
		t.Fatal(err)
	}

	if _, err := r.FindByHash(ctx, "hash1", "m", 24*time.Hour); !errors.Is(err, ErrNotFound) {
		t.Errorf("stale lookup err = %v, want ErrNotFound", err)
	}
	// без ограничения возраста запись видна
	if _, err := r.FindByHash(ctx, "hash1", "m", 0); err != nil {
		t.Errorf("ageless lookup: %v", err)
	}
}

func TestSolveRepo_BrokenJSONIsMiss(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	r := NewSolveRepo(db)

	if _, err := db.ExecContext(ctx,
		`insert into solved_tasks (image_hash, model, result_json) values (?, ?, ?)`,
		"hash1", "m", "{not json"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.FindByHash(ctx, "hash1", "m", 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSolveRepo_PurgeOlderThan(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	r := NewSolveRepo(db)

	art := solver.SolutionArtifact{SolutionMarkdown: "x", Confidence: solver.ConfidenceHigh}
	if err := r.Upsert(ctx, "old", "m", art); err != nil {
		t.Fatal(err)
	}
	if err := r.Upsert(ctx, "fresh", "m", art); err != nil {
		t.Fatal(err)
	}
	if _, err := db.ExecContext(ctx,
		`update solved_tasks set created_at = datetime('now', '-10 days') where image_hash = 'old'`); err != nil {
		t.Fatal(err)
	}

	n, err := r.PurgeOlderThan(ctx, 7*24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("purged = %d, want 1", n)
	}
	if _, err := r.FindByHash(ctx, "fresh", "m", 0); err != nil {
		t.Errorf("fresh record lost: %v", err)
	}
}
