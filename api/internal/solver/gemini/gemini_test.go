package gemini

import (
	"errors"
	"testing"

	"stem-tutor/api/internal/solver"
)

func TestParseSolution(t *testing.T) {
	raw := `{"solutionMarkdown":"**Given**\n- $m = 2\\,kg$","visualPrompt":"a falling ball","confidence":"High"}`
	art, err := parseSolution(raw)
	if err != nil {
		t.Fatal(err)
	}
	if art.Confidence != solver.ConfidenceHigh {
		t.Errorf("confidence = %q", art.Confidence)
	}
	if art.VisualPrompt != "a falling ball" {
		t.Errorf("visualPrompt = %q", art.VisualPrompt)
	}
}

func TestParseSolution_StripsCodeFences(t *testing.T) {
	raw := "```json\n{\"solutionMarkdown\":\"x\",\"visualPrompt\":\"y\",\"confidence\":\"Low\"}\n```"
	art, err := parseSolution(raw)
	if err != nil {
		t.Fatal(err)
	}
	if art.Confidence != solver.ConfidenceLow {
		t.Errorf("confidence = %q", art.Confidence)
	}
}

func TestParseSolution_RejectsUnknownConfidence(t *testing.T) {
	raw := `{"solutionMarkdown":"x","visualPrompt":"y","confidence":"Certain"}`
	_, err := parseSolution(raw)
	if !errors.Is(err, solver.ErrBadSchema) {
		t.Fatalf("err = %v, want ErrBadSchema for a fourth enum value", err)
	}
}

func TestParseSolution_Empty(t *testing.T) {
	if _, err := parseSolution("   "); !errors.Is(err, solver.ErrNoResponse) {
		t.Fatalf("err = %v, want ErrNoResponse", err)
	}
}

func TestParseSolution_MalformedJSON(t *testing.T) {
	if _, err := parseSolution("{not json"); !errors.Is(err, solver.ErrBadSchema) {
		t.Fatalf("err = %v, want ErrBadSchema", err)
	}
}

func TestParseSolution_MissingBody(t *testing.T) {
	raw := `{"solutionMarkdown":"","visualPrompt":"y","confidence":"High"}`
	if _, err := parseSolution(raw); !errors.Is(err, solver.ErrNoResponse) {
		t.Fatalf("err = %v, want ErrNoResponse", err)
	}
}
