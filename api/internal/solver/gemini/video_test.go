package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"stem-tutor/api/internal/solver"
)

func testEngine(t *testing.T, h http.Handler) (*Engine, *int) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	sleeps := 0
	e := New("test-key", "gemini-2.5-flash", "gemini-2.5-pro", "veo-2.0-generate-001")
	e.baseURL = srv.URL
	e.sleep = func(ctx context.Context, d time.Duration) error {
		if d != pollInterval {
			t.Errorf("sleep interval = %v, want %v", d, pollInterval)
		}
		sleeps++
		return nil
	}
	return e, &sleeps
}

func TestGenerateVideo_PollsUntilDone(t *testing.T) {
	const opName = "models/veo-2.0-generate-001/operations/op123"
	checks := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/v1beta/models/veo-2.0-generate-001:predictLongRunning", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("submit method = %s", r.Method)
		}
		fmt.Fprintf(w, `{"name":%q,"done":false}`, opName)
	})
	mux.HandleFunc("/v1beta/"+opName, func(w http.ResponseWriter, r *http.Request) {
		checks++
		if checks < 2 {
			fmt.Fprintf(w, `{"name":%q,"done":false}`, opName)
			return
		}
		fmt.Fprintf(w, `{"name":%q,"done":true,"response":{"generateVideoResponse":{"generatedSamples":[{"video":{"uri":"https://video.example/v1/files/abc:download?alt=media"}}]}}}`, opName)
	})

	e, sleeps := testEngine(t, mux)
	uri, err := e.GenerateVideo(context.Background(), "a falling ball")
	if err != nil {
		t.Fatal(err)
	}
	// done=false в handle, done=false при первом опросе, done=true при втором:
	// ровно два цикла «подождать и переспросить»
	if *sleeps != 2 || checks != 2 {
		t.Errorf("sleeps=%d checks=%d, want 2/2", *sleeps, checks)
	}

	u, err := url.Parse(uri)
	if err != nil {
		t.Fatal(err)
	}
	if got := u.Query().Get("key"); got != "test-key" {
		t.Errorf("key query param = %q", got)
	}
	if got := u.Query().Get("alt"); got != "media" {
		t.Errorf("original query params lost: %q", uri)
	}
}

func TestGenerateVideo_ImmediateDoneSkipsPolling(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1beta/models/veo-2.0-generate-001:predictLongRunning", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"ops/1","done":true,"response":{"generateVideoResponse":{"generatedSamples":[{"video":{"uri":"https://video.example/v"}}]}}}`)
	})

	e, sleeps := testEngine(t, mux)
	uri, err := e.GenerateVideo(context.Background(), "p")
	if err != nil {
		t.Fatal(err)
	}
	if *sleeps != 0 {
		t.Errorf("sleeps = %d, want 0", *sleeps)
	}
	if !strings.HasPrefix(uri, "https://video.example/v") {
		t.Errorf("uri = %q", uri)
	}
}

func TestGenerateVideo_NoVideoInResult(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1beta/models/veo-2.0-generate-001:predictLongRunning", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"ops/1","done":true,"response":{"generateVideoResponse":{"generatedSamples":[]}}}`)
	})

	e, _ := testEngine(t, mux)
	_, err := e.GenerateVideo(context.Background(), "p")
	if !errors.Is(err, solver.ErrNoVideo) {
		t.Fatalf("err = %v, want ErrNoVideo", err)
	}
}

func TestGenerateVideo_OperationError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1beta/models/veo-2.0-generate-001:predictLongRunning", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"ops/1","done":true,"error":{"code":13,"message":"internal"}}`)
	})

	e, _ := testEngine(t, mux)
	_, err := e.GenerateVideo(context.Background(), "p")
	if err == nil || !strings.Contains(err.Error(), "internal") {
		t.Fatalf("err = %v", err)
	}
}

func TestSubmitVideo_EntityNotFoundStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":404,"message":"Requested entity was not found."}}`, http.StatusNotFound)
	})

	e, _ := testEngine(t, mux)
	_, err := e.SubmitVideo(context.Background(), "p")
	if err == nil {
		t.Fatal("want error")
	}
	if !solver.IsEntityNotFound(err) {
		t.Errorf("classifier must see 404 as entity-not-found: %v", err)
	}
}
