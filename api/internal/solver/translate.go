package solver

import (
	"context"
	"strings"
	"sync"
)

// TranslateFunc — собственно перевод (удалённый вызов).
type TranslateFunc func(ctx context.Context, lang, text string) (string, error)

// CacheKey — типизированный ключ кэша перевода: язык плюс дискриминатор поля,
// когда один экран переводит несколько независимых текстов (ответ, проверка).
type CacheKey struct {
	Lang  string
	Field string
}

// Translator кэширует переводы по (язык, поле). Кэш только пополняется;
// при замене исходного текста (новое решение/поиск) вызывается Reset,
// иначе осиротевшие записи никогда больше не читаются.
type Translator struct {
	fn TranslateFunc

	mu    sync.Mutex
	cache map[CacheKey]string
}

func NewTranslator(fn TranslateFunc) *Translator {
	return &Translator{
		fn:    fn,
		cache: make(map[CacheKey]string),
	}
}

// Translate возвращает кэшированный перевод без удалённого вызова, иначе
// переводит и запоминает. Ошибка возвращается вызывающему: он сам решает
// откатиться на исходный язык (частичный перевод не показываем).
func (t *Translator) Translate(ctx context.Context, key CacheKey, text string) (string, error) {
	t.mu.Lock()
	if cached, ok := t.cache[key]; ok {
		t.mu.Unlock()
		return cached, nil
	}
	t.mu.Unlock()

	out, err := t.fn(ctx, key.Lang, text)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", ErrNoResponse
	}

	t.mu.Lock()
	t.cache[key] = out
	t.mu.Unlock()
	return out, nil
}

// Reset сбрасывает кэш целиком. Вызывается при смене исходного текста.
func (t *Translator) Reset() {
	t.mu.Lock()
	t.cache = make(map[CacheKey]string)
	t.mu.Unlock()
}

// Len — число записей в кэше (для тестов и логов).
func (t *Translator) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.cache)
}
