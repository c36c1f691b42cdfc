package storage

import (
	"sync"
	"time"

	"github.com/yourusername/agro-assistant-bot/internal/domain/entity"
	"github.com/yourusername/agro-assistant-bot/internal/domain/repository"
)

type memorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[int64]entity.Session
}

// NewMemorySessionRepository in-memory session repository yaratish
func NewMemorySessionRepository() repository.SessionRepository {
	return &memorySessionRepository{
		sessions: make(map[int64]entity.Session),
	}
}

// Get foydalanuvchi sessiyasini olish
func (m *memorySessionRepository) Get(userID int64) (entity.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[userID]
	return s, ok
}

// Put sessiyani to'liq almashtirish
func (m *memorySessionRepository) Put(session entity.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = time.Now()
	}
	m.sessions[session.UserID] = session
}

// Delete sessiyani o'chirish
func (m *memorySessionRepository) Delete(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, userID)
}

// Sweep eskirgan sessiyalarni tozalash
func (m *memorySessionRepository) Sweep(before time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for userID, s := range m.sessions {
		if s.UpdatedAt.Before(before) {
			delete(m.sessions, userID)
			removed++
		}
	}
	return removed
}
