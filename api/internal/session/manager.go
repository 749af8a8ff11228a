package session

import "sync"

// Manager раздаёт сессии по chatID (ленивое создание).
type Manager struct {
	factory func() *Session
	m       sync.Map // chatID -> *Session
}

func NewManager(factory func() *Session) *Manager {
	return &Manager{factory: factory}
}

func (m *Manager) Get(chatID int64) *Session {
	if v, ok := m.m.Load(chatID); ok {
		return v.(*Session)
	}
	v, _ := m.m.LoadOrStore(chatID, m.factory())
	return v.(*Session)
}

func (m *Manager) Drop(chatID int64) {
	m.m.Delete(chatID)
}
