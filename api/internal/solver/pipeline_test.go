package solver

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type fakeSearcher struct {
	text    string
	sources []WebSource
	err     error
	calls   int
}

func (f *fakeSearcher) GroundedSearch(ctx context.Context, query string) (string, []WebSource, error) {
	f.calls++
	return f.text, f.sources, f.err
}

type fakeVerifier struct {
	verdict string
	err     error
	calls   int
}

func (f *fakeVerifier) Verify(ctx context.Context, query, answer string) (string, error) {
	f.calls++
	return f.verdict, f.err
}

func TestCleanSources_DedupFirstWins(t *testing.T) {
	in := []WebSource{
		{URI: "https://a.example", Title: "t1"},
		{URI: "https://b.example", Title: "t2"},
		{URI: "https://a.example", Title: "t3"},
	}
	want := []WebSource{
		{URI: "https://a.example", Title: "t1"},
		{URI: "https://b.example", Title: "t2"},
	}
	got := CleanSources(in)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CleanSources mismatch (-want +got):\n%s", diff)
	}
}

func TestCleanSources_DropsIncomplete(t *testing.T) {
	in := []WebSource{
		{URI: "", Title: "no uri"},
		{URI: "https://a.example", Title: ""},
		{URI: "https://b.example", Title: "ok"},
	}
	got := CleanSources(in)
	if len(got) != 1 || got[0].URI != "https://b.example" {
		t.Errorf("want single complete source, got %v", got)
	}
}

func TestSearchAndVerify_VerifyFailureAbsorbed(t *testing.T) {
	s := &fakeSearcher{
		text:    "the answer",
		sources: []WebSource{{URI: "https://a.example", Title: "a"}},
	}
	v := &fakeVerifier{err: errors.New("verify transport down")}

	res, err := SearchAndVerify(context.Background(), s, v, "q")
	if err != nil {
		t.Fatalf("verification failure must not fail the search: %v", err)
	}
	if res.Text != "the answer" {
		t.Errorf("text = %q", res.Text)
	}
	if len(res.WebSources) != 1 {
		t.Errorf("sources lost: %v", res.WebSources)
	}
	if res.Verification != VerifyFallback {
		t.Errorf("verification = %q, want fallback %q", res.Verification, VerifyFallback)
	}
}

func TestSearchAndVerify_Stage1Fatal(t *testing.T) {
	wantErr := errors.New("search transport down")
	s := &fakeSearcher{err: wantErr}
	v := &fakeVerifier{verdict: "fine"}

	_, err := SearchAndVerify(context.Background(), s, v, "q")
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if v.calls != 0 {
		t.Errorf("verifier must not run after stage-1 failure, calls=%d", v.calls)
	}
}

func TestSearchAndVerify_EmptyTextPlaceholder(t *testing.T) {
	s := &fakeSearcher{text: "  "}
	v := &fakeVerifier{verdict: "Accurate."}

	res, err := SearchAndVerify(context.Background(), s, v, "q")
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != NoResultsText {
		t.Errorf("text = %q, want %q", res.Text, NoResultsText)
	}
	if res.Verification != "Accurate." {
		t.Errorf("verification = %q", res.Verification)
	}
}
