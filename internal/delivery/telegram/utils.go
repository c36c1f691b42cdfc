package telegram

import (
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

// newRequestID har bir update uchun log korrelyatsiya ID
func newRequestID() string {
	return uuid.New().String()
}

func nonEmpty(val, fallback string) string {
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	return val
}

// displayName username, falling back to the first name
func displayName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	return nonEmpty(u.UserName, u.FirstName)
}

// usernameCache oxirgi ko'rilgan username (journal uchun)
type usernameCache struct {
	mu    sync.RWMutex
	names map[int64]string
}

func newUsernameCache() *usernameCache {
	return &usernameCache{names: make(map[int64]string)}
}

func (c *usernameCache) remember(userID int64, name string) {
	if strings.TrimSpace(name) == "" {
		return
	}
	c.mu.Lock()
	c.names[userID] = name
	c.mu.Unlock()
}

func (c *usernameCache) get(userID int64) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.names[userID]
}
