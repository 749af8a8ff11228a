package solver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/api/googleapi"
)

// CredentialProvider — хостовая возможность выбора credential.
// Отсутствие провайдера (nil) допустимо: ветка повторного выбора просто пропускается.
type CredentialProvider interface {
	HasCredential() bool
	SelectCredential(ctx context.Context) error
}

// AuthGate держит флаг «credential выбран» за мьютексом и является
// единственным местом, которое его меняет. Флаг ставится оптимистично:
// валидность credential выясняется только на следующем неудавшемся вызове.
type AuthGate struct {
	mu       sync.Mutex
	selected bool
	provider CredentialProvider
}

func NewAuthGate(p CredentialProvider) *AuthGate {
	g := &AuthGate{provider: p}
	if p != nil && p.HasCredential() {
		g.selected = true
	}
	return g
}

func (g *AuthGate) Selected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.selected
}

// Ensure вызывается перед каждым исходящим вызовом, требующим авторизации.
// Если флаг сброшен — запускает выбор credential и оптимистично ставит флаг.
func (g *AuthGate) Ensure(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.selected {
		return nil
	}
	if g.provider == nil {
		return nil
	}
	if err := g.provider.SelectCredential(ctx); err != nil {
		return err
	}
	g.selected = true
	return nil
}

// Invalidate сбрасывает флаг после сигнала об ошибке авторизации.
func (g *AuthGate) Invalidate() {
	g.mu.Lock()
	g.selected = false
	g.mu.Unlock()
}

// NoteFailure сбрасывает флаг, если ошибка похожа на проблему авторизации.
func (g *AuthGate) NoteFailure(err error) {
	if IsAuthError(err) {
		g.Invalidate()
	}
}

// WithReselectRetry выполняет call с гарантированным credential; на ошибку
// класса «entity not found» отвечает ровно одним циклом
// сброс → повторный выбор → повтор вызова. Вторая ошибка терминальна.
func (g *AuthGate) WithReselectRetry(ctx context.Context, call func(ctx context.Context) error) error {
	if err := g.Ensure(ctx); err != nil {
		return err
	}
	err := call(ctx)
	if err == nil {
		return nil
	}
	if !IsEntityNotFound(err) || !g.hasProvider() {
		g.NoteFailure(err)
		return err
	}
	g.Invalidate()
	if err2 := g.Ensure(ctx); err2 != nil {
		return err2
	}
	if err2 := call(ctx); err2 != nil {
		g.NoteFailure(err2)
		return err2
	}
	return nil
}

func (g *AuthGate) hasProvider() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.provider != nil
}

// IsAuthError — сигнал проблемы авторизации: 403, класс «not found»
// или явное отсутствие credential.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNoCredential) {
		return true
	}
	var ge *googleapi.Error
	if errors.As(err, &ge) {
		if ge.Code == http.StatusForbidden || ge.Code == http.StatusNotFound {
			return true
		}
	}
	if st, ok := HTTPStatus(err); ok {
		if st == http.StatusForbidden || st == http.StatusNotFound {
			return true
		}
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "permission denied") || strings.Contains(s, "entity was not found") || strings.Contains(s, "not found")
}

// IsEntityNotFound — узкий класс, на который видео-путь отвечает одним
// автоматическим повтором. Сопоставление по тексту — деталь реализации
// коллаборатора; сначала проверяем структурный код.
func IsEntityNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNoCredential) {
		return true
	}
	var ge *googleapi.Error
	if errors.As(err, &ge) && ge.Code == http.StatusNotFound {
		return true
	}
	if st, ok := HTTPStatus(err); ok && st == http.StatusNotFound {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "entity was not found") || strings.Contains(s, "requested entity was not found")
}

// StaticCredential — провайдер для серверных поверхностей: ключ задан
// окружением, «выбор» успешен, пока ключ непуст.
type StaticCredential struct{ Key string }

func (c StaticCredential) HasCredential() bool { return strings.TrimSpace(c.Key) != "" }

func (c StaticCredential) SelectCredential(ctx context.Context) error {
	if !c.HasCredential() {
		return ErrNoCredential
	}
	return nil
}

// StatusError — ошибка сырых REST-клиентов с HTTP-статусом.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http %d", e.Code)
	}
	return fmt.Sprintf("http %d: %s", e.Code, e.Body)
}

// HTTPStatus достаёт статус из StatusError, если он есть в цепочке.
func HTTPStatus(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return 0, false
}
