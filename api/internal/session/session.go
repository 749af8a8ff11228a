package session

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"stem-tutor/api/internal/solver"
)

// Engine — всё, что сессии нужно от inference-сервиса.
type Engine interface {
	Solve(ctx context.Context, media solver.InlineMedia) (solver.SolutionArtifact, error)
	GroundedSearch(ctx context.Context, query string) (string, []solver.WebSource, error)
	Verify(ctx context.Context, query, answer string) (string, error)
	TranslateText(ctx context.Context, lang, text string) (string, error)
	GenerateVideo(ctx context.Context, prompt string) (string, error)
}

type SolveState string

const (
	StateIdle      SolveState = "idle"
	StateAnalyzing SolveState = "analyzing"
	StateSolved    SolveState = "solved"
	StateError     SolveState = "error"
)

type VideoState string

const (
	VideoIdle       VideoState = "idle"
	VideoGenerating VideoState = "generating"
	VideoCompleted  VideoState = "completed"
	VideoError      VideoState = "error"
)

var (
	ErrSolveBusy  = errors.New("solve already in progress")
	ErrNoSolution = errors.New("no solution in session")
	ErrNoSearch   = errors.New("no search result in session")
)

// Дискриминаторы полей для кэша перевода.
const (
	FieldSolution = "solution"
	FieldAnswer   = "answer"
	FieldVerify   = "verification"
)

// Session — состояние одного диалога: машина решения
// idle → analyzing → solved/error и параллельная видео-подмашина
// idle → generating → completed/error. Единственный компонент с состоянием,
// переживающим вызовы. Все обращения сериализованы мьютексом; удалённые
// вызовы выполняются без удержания замка.
type Session struct {
	ID string

	eng  Engine
	gate *solver.AuthGate

	mu         sync.Mutex
	state      SolveState
	artifact   *solver.SolutionArtifact
	lastSearch *solver.SearchResult
	video      VideoState
	videoURI   string

	// Отдельный кэш на каждый источник текста: новый solve/search заменяет
	// источник, и кэш пересоздаётся вместо чтения осиротевших записей.
	trSolve  *solver.Translator
	trSearch *solver.Translator
}

func New(eng Engine, cred solver.CredentialProvider) *Session {
	s := &Session{
		ID:    uuid.NewString(),
		eng:   eng,
		gate:  solver.NewAuthGate(cred),
		state: StateIdle,
		video: VideoIdle,
	}
	s.trSolve = solver.NewTranslator(eng.TranslateText)
	s.trSearch = solver.NewTranslator(eng.TranslateText)
	return s
}

func (s *Session) State() SolveState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Video() (VideoState, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.video, s.videoURI
}

func (s *Session) Artifact() (solver.SolutionArtifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.artifact == nil {
		return solver.SolutionArtifact{}, false
	}
	return *s.artifact, true
}

func (s *Session) LastSearch() (solver.SearchResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSearch == nil {
		return solver.SearchResult{}, false
	}
	return *s.lastSearch, true
}

// Solve прогоняет картинку через решатель. Повтор после ошибки разрешён
// с теми же входами; второй solve во время первого — нет.
func (s *Session) Solve(ctx context.Context, media solver.InlineMedia) (solver.SolutionArtifact, error) {
	s.mu.Lock()
	if s.state == StateAnalyzing {
		s.mu.Unlock()
		return solver.SolutionArtifact{}, ErrSolveBusy
	}
	s.state = StateAnalyzing
	s.mu.Unlock()

	if err := s.gate.Ensure(ctx); err != nil {
		s.failSolve(err)
		return solver.SolutionArtifact{}, err
	}
	art, err := s.eng.Solve(ctx, media)
	if err != nil {
		s.failSolve(err)
		return solver.SolutionArtifact{}, err
	}

	s.mu.Lock()
	s.state = StateSolved
	s.artifact = &art
	s.video = VideoIdle
	s.videoURI = ""
	s.trSolve = solver.NewTranslator(s.eng.TranslateText)
	s.mu.Unlock()
	return art, nil
}

// Adopt принимает готовый артефакт (например из кэша решений) как текущий,
// с теми же последствиями, что и успешный Solve.
func (s *Session) Adopt(art solver.SolutionArtifact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateSolved
	s.artifact = &art
	s.video = VideoIdle
	s.videoURI = ""
	s.trSolve = solver.NewTranslator(s.eng.TranslateText)
}

func (s *Session) failSolve(err error) {
	s.gate.NoteFailure(err)
	s.mu.Lock()
	s.state = StateError
	s.mu.Unlock()
}

// Search запускает конвейер «поиск + проверка». Ошибка этапа проверки сюда
// не доходит — её поглощает конвейер.
func (s *Session) Search(ctx context.Context, query string) (solver.SearchResult, error) {
	if err := s.gate.Ensure(ctx); err != nil {
		return solver.SearchResult{}, err
	}
	res, err := solver.SearchAndVerify(ctx, s.eng, s.eng, query)
	if err != nil {
		s.gate.NoteFailure(err)
		return solver.SearchResult{}, err
	}

	s.mu.Lock()
	s.lastSearch = &res
	s.trSearch = solver.NewTranslator(s.eng.TranslateText)
	s.mu.Unlock()
	return res, nil
}

// GenerateVideo рендерит визуализацию текущего решения. В полёте не больше
// одной задачи на сессию; повтор после ошибки разрешён. На ошибку класса
// «entity not found» — ровно один цикл пересбора credential и повтора.
func (s *Session) GenerateVideo(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.artifact == nil {
		s.mu.Unlock()
		return "", ErrNoSolution
	}
	if s.video == VideoGenerating {
		s.mu.Unlock()
		return "", solver.ErrVideoBusy
	}
	prompt := s.artifact.VisualPrompt
	s.video = VideoGenerating
	s.mu.Unlock()

	var uri string
	err := s.gate.WithReselectRetry(ctx, func(ctx context.Context) error {
		var err error
		uri, err = s.eng.GenerateVideo(ctx, prompt)
		return err
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.video = VideoError
		return "", err
	}
	s.video = VideoCompleted
	s.videoURI = uri
	return uri, nil
}

// TranslateSolution переводит markdown решения; повторный запрос того же
// языка отдаётся из кэша без удалённого вызова.
func (s *Session) TranslateSolution(ctx context.Context, lang string) (string, error) {
	s.mu.Lock()
	art, tr := s.artifact, s.trSolve
	s.mu.Unlock()
	if art == nil {
		return "", ErrNoSolution
	}
	return tr.Translate(ctx, solver.CacheKey{Lang: lang, Field: FieldSolution}, art.SolutionMarkdown)
}

// TranslateSearch переводит ответ и текст проверки независимо (разные поля
// кэша). Любая ошибка — сигнал вызывающему откатиться на исходный язык.
func (s *Session) TranslateSearch(ctx context.Context, lang string) (text, verification string, err error) {
	s.mu.Lock()
	res, tr := s.lastSearch, s.trSearch
	s.mu.Unlock()
	if res == nil {
		return "", "", ErrNoSearch
	}
	text, err = tr.Translate(ctx, solver.CacheKey{Lang: lang, Field: FieldAnswer}, res.Text)
	if err != nil {
		return "", "", err
	}
	if res.Verification == "" {
		return text, "", nil
	}
	verification, err = tr.Translate(ctx, solver.CacheKey{Lang: lang, Field: FieldVerify}, res.Verification)
	if err != nil {
		return "", "", err
	}
	return text, verification, nil
}

// Reset сбрасывает локальное состояние. Уже запущенная удалённая работа
// не отменяется — протокол не даёт способа её прервать.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	s.artifact = nil
	s.lastSearch = nil
	s.video = VideoIdle
	s.videoURI = ""
	s.trSolve = solver.NewTranslator(s.eng.TranslateText)
	s.trSearch = solver.NewTranslator(s.eng.TranslateText)
}

// Gate отдаёт координатор авторизации сессии (для поверхностей).
func (s *Session) Gate() *solver.AuthGate { return s.gate }
