package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"stem-tutor/api/internal/solver"
	"stem-tutor/api/internal/util"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

type Engine struct {
	APIKey      string
	Model       string // основная модель (решение, поиск, перевод)
	VerifyModel string // более сильная модель для проверки
	VideoModel  string

	httpc   *http.Client // сырые REST-вызовы: поиск с grounding, видео-операции
	baseURL string
	sleep   func(ctx context.Context, d time.Duration) error // подменяется в тестах
}

func New(apiKey, model, verifyModel, videoModel string) *Engine {
	return &Engine{
		APIKey:      strings.TrimSpace(apiKey),
		Model:       strings.TrimSpace(model),
		VerifyModel: strings.TrimSpace(verifyModel),
		VideoModel:  strings.TrimSpace(videoModel),
		httpc:       &http.Client{Timeout: 120 * time.Second},
		baseURL:     defaultBaseURL,
	}
}

func (e *Engine) Name() string { return "gemini" }

// --------------------------- SOLVE ---------------------------

// Схема ответа решателя. Сервис конфигурируется так, чтобы ответ
// гарантированно соответствовал трём полям; confidence — строго enum.
var solveSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"solutionMarkdown": {
			Type:        genai.TypeString,
			Description: "Step-by-step solution in markdown with inline math delimiters",
		},
		"visualPrompt": {
			Type:        genai.TypeString,
			Description: "Natural-language prompt describing the core concept for a video generation model",
		},
		"confidence": {
			Type: genai.TypeString,
			Enum: []string{"High", "Medium", "Low"},
		},
	},
	Required: []string{"solutionMarkdown", "visualPrompt", "confidence"},
}

const solveSystem = `You are an expert STEM tutor. Analyze the problem in the image and respond with:

1. "solutionMarkdown" — a step-by-step solution with exactly five labeled steps:
   **Given**, **Formula**, **Substitution**, **Simplification**, **Final Answer**.
   Wrap ALL mathematics in inline math delimiters ($...$). Use bullet points for
   enumerable data. The final step must contain the final answer boxed as $\boxed{...}$.
   Never emit code blocks or raw JSON inside the prose.
2. "visualPrompt" — a natural-language prompt describing the core concept of the
   problem, suitable for driving a video generation model.
3. "confidence" — exactly one of High, Medium or Low.

Work through every intermediate step before committing to the final answer.`

// Solve отправляет картинку + фиксированный блок инструкций и возвращает
// распарсенный артефакт решения. Без ретраев: повтор — дело оркестратора.
// Транспорт/авторизация отдаются вызывающему как есть.
func (e *Engine) Solve(ctx context.Context, media solver.InlineMedia) (solver.SolutionArtifact, error) {
	if e.APIKey == "" {
		return solver.SolutionArtifact{}, solver.ErrNoCredential
	}
	img, err := media.Bytes()
	if err != nil {
		return solver.SolutionArtifact{}, fmt.Errorf("gemini solve: bad payload: %w", err)
	}
	if len(img) == 0 {
		return solver.SolutionArtifact{}, solver.ErrEmptyMedia
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return solver.SolutionArtifact{}, err
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0.2),
		MaxOutputTokens:  ptrInt32(8192),
		ResponseMIMEType: "application/json",
		ResponseSchema:   solveSchema,
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(solveSystem)},
	}

	resp, err := m.GenerateContent(ctx,
		genai.Text("Solve the STEM problem shown in the image."),
		&genai.Blob{MIMEType: media.MIMEType, Data: img},
	)
	if err != nil {
		return solver.SolutionArtifact{}, err
	}
	return parseSolution(firstText(resp))
}

// parseSolution валидирует сырой текст ответа против контракта артефакта.
func parseSolution(raw string) (solver.SolutionArtifact, error) {
	raw = util.StripCodeFences(strings.TrimSpace(raw))
	if raw == "" {
		return solver.SolutionArtifact{}, fmt.Errorf("gemini solve: %w", solver.ErrNoResponse)
	}
	var art solver.SolutionArtifact
	if err := json.Unmarshal([]byte(raw), &art); err != nil {
		return solver.SolutionArtifact{}, fmt.Errorf("gemini solve: bad JSON (%v): %w", err, solver.ErrBadSchema)
	}
	if strings.TrimSpace(art.SolutionMarkdown) == "" {
		return solver.SolutionArtifact{}, fmt.Errorf("gemini solve: %w", solver.ErrNoResponse)
	}
	if !art.Confidence.Valid() {
		return solver.SolutionArtifact{}, fmt.Errorf("gemini solve: confidence %q: %w", art.Confidence, solver.ErrBadSchema)
	}
	return art, nil
}

// --------------------------- VERIFY ---------------------------

// Verify просит более сильную модель оценить ответ поиска. Сбои здесь
// поглощает конвейер (solver.SearchAndVerify), не этот метод.
func (e *Engine) Verify(ctx context.Context, query, answer string) (string, error) {
	if e.APIKey == "" {
		return "", solver.ErrNoCredential
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return "", err
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.VerifyModel)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature: ptrFloat32(0),
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(
			"You are a fact checker. Assess the accuracy and completeness of the answer " +
				"for the given question in at most 3 sentences. No preamble.",
		)},
	}

	resp, err := m.GenerateContent(ctx, genai.Text("Question: "+query+"\n\nAnswer to assess:\n"+answer))
	if err != nil {
		return "", err
	}
	out := strings.TrimSpace(firstText(resp))
	if out == "" {
		return "", solver.ErrNoResponse
	}
	return out, nil
}

// --------------------------- TRANSLATE ---------------------------

const translateSystem = `Translate the user's markdown into the requested language.
Rules:
- Do NOT translate anything between math delimiters ($...$ or $$...$$); copy it verbatim.
- Preserve markdown structure (headers, bold, lists) exactly.
- Translate prose naturally.
- Output ONLY the translated markdown, no preamble.`

// TranslateText переводит markdown с математикой, не трогая формулы.
// Формат держится только на инструкции: схемы у свободного текста нет.
func (e *Engine) TranslateText(ctx context.Context, lang, text string) (string, error) {
	if e.APIKey == "" {
		return "", solver.ErrNoCredential
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return "", err
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature: ptrFloat32(0),
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(translateSystem)},
	}

	resp, err := m.GenerateContent(ctx, genai.Text("Target language: "+lang+"\n\n"+text))
	if err != nil {
		return "", err
	}
	out := strings.TrimSpace(firstText(resp))
	if out == "" {
		return "", solver.ErrNoResponse
	}
	return out, nil
}

// --------------------------- helpers ---------------------------

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
func ptrInt32(v int32) *int32       { return &v }
