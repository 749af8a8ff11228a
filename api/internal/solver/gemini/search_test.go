package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"

	"stem-tutor/api/internal/solver"
)

func TestGroundedSearch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1beta/models/gemini-2.5-flash:generateContent", func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if len(req.Tools) != 1 {
			t.Errorf("google_search tool missing: %+v", req.Tools)
		}
		w.Write([]byte(`{
  "candidates": [{
    "content": {"parts": [{"text": "The speed of light "}, {"text": "is 299792458 m/s."}]},
    "groundingMetadata": {"groundingChunks": [
      {"web": {"uri": "https://a.example", "title": "A"}},
      {"web": {"uri": "https://b.example", "title": ""}},
      {"web": {"uri": "https://a.example", "title": "A again"}}
    ]}
  }]
}`))
	})

	e, _ := testEngine(t, mux)
	text, sources, err := e.GroundedSearch(context.Background(), "speed of light")
	if err != nil {
		t.Fatal(err)
	}
	if text != "The speed of light is 299792458 m/s." {
		t.Errorf("text = %q", text)
	}
	// сырые цитаты без фильтрации — чистит конвейер
	if len(sources) != 3 {
		t.Fatalf("raw sources = %d, want 3", len(sources))
	}

	clean := solver.CleanSources(sources)
	want := []solver.WebSource{{URI: "https://a.example", Title: "A"}}
	if diff := cmp.Diff(want, clean); diff != "" {
		t.Errorf("cleaned sources mismatch (-want +got):\n%s", diff)
	}
}

func TestGroundedSearch_NoCandidates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	})

	e, _ := testEngine(t, mux)
	text, sources, err := e.GroundedSearch(context.Background(), "q")
	if err != nil {
		t.Fatal(err)
	}
	if text != "" || sources != nil {
		t.Errorf("text=%q sources=%v, want empty", text, sources)
	}
}

func TestGroundedSearch_StatusError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	})

	e, _ := testEngine(t, mux)
	_, _, err := e.GroundedSearch(context.Background(), "q")
	if err == nil {
		t.Fatal("want error")
	}
	st, ok := solver.HTTPStatus(err)
	if !ok || st != http.StatusForbidden {
		t.Errorf("status = %d ok=%v", st, ok)
	}
	if !solver.IsAuthError(err) {
		t.Error("403 must classify as authorization problem")
	}
}
