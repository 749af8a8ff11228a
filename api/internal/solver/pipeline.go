package solver

import (
	"context"
	"log"
	"strings"
)

// Searcher — этап 1: grounded-поиск с цитатами.
type Searcher interface {
	GroundedSearch(ctx context.Context, query string) (string, []WebSource, error)
}

// Verifier — этап 2: независимая проверка ответа более сильной моделью.
type Verifier interface {
	Verify(ctx context.Context, query, answer string) (string, error)
}

// SearchAndVerify — конвейер поиска. Асимметрия намеренная: ошибка этапа 1
// фатальна (поиск без ответа не имеет ценности), ошибка этапа 2 поглощается
// и заменяется фиксированной заглушкой (поиск без проверки всё ещё полезен).
func SearchAndVerify(ctx context.Context, s Searcher, v Verifier, query string) (SearchResult, error) {
	text, sources, err := s.GroundedSearch(ctx, query)
	if err != nil {
		return SearchResult{}, err
	}
	if strings.TrimSpace(text) == "" {
		// Пустой текст — не ошибка, а «ничего не нашлось».
		text = NoResultsText
	}
	res := SearchResult{
		Text:       text,
		WebSources: CleanSources(sources),
	}

	if v == nil {
		res.Verification = VerifyFallback
		return res, nil
	}
	verdict, err := v.Verify(ctx, query, res.Text)
	if err != nil || strings.TrimSpace(verdict) == "" {
		log.Printf("search: verification failed, using fallback: %v", err)
		res.Verification = VerifyFallback
		return res, nil
	}
	res.Verification = strings.TrimSpace(verdict)
	return res, nil
}

// CleanSources отбрасывает цитаты без URI или заголовка и убирает дубликаты
// по URI: первая встреченная побеждает, порядок сохраняется.
func CleanSources(in []WebSource) []WebSource {
	seen := make(map[string]struct{}, len(in))
	out := make([]WebSource, 0, len(in))
	for _, s := range in {
		if s.URI == "" || s.Title == "" {
			continue
		}
		if _, ok := seen[s.URI]; ok {
			continue
		}
		seen[s.URI] = struct{}{}
		out = append(out, s)
	}
	return out
}
