package solver

import "errors"

// Сентинельные ошибки ядра. Транспортные ошибки и отказ авторизации
// приходят от клиентов как есть и классифицируются в auth.go.
var (
	ErrNoCredential = errors.New("credential is not configured")
	ErrNoResponse   = errors.New("model returned no usable content")
	ErrBadSchema    = errors.New("response does not match expected schema")
	ErrNoVideo      = errors.New("operation completed without a video")
	ErrVideoBusy    = errors.New("video job already in flight")
	ErrEmptyMedia   = errors.New("empty media payload")
)

// Confidence — метка уверенности модели. Схема ответа допускает ровно три значения.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// SolutionArtifact — результат одного успешного решения. После создания не меняется;
// сессия владеет им до следующего решения.
type SolutionArtifact struct {
	SolutionMarkdown string     `json:"solutionMarkdown"`
	VisualPrompt     string     `json:"visualPrompt"`
	Confidence       Confidence `json:"confidence"`
}

// WebSource — одна цитата из grounded-поиска.
type WebSource struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// SearchResult — ответ поиска. Verification заполняется best-effort:
// при сбое проверки подставляется VerifyFallback, сам поиск не падает.
type SearchResult struct {
	Text         string      `json:"text"`
	WebSources   []WebSource `json:"webSources"`
	Verification string      `json:"verification,omitempty"`
}

const (
	// NoResultsText подставляется, если поиск вернул пустой текст (это не ошибка).
	NoResultsText = "No results found."
	// VerifyFallback подставляется при любом сбое этапа проверки.
	VerifyFallback = "Could not verify result at this time."
)
