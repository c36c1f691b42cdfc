package telegram

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/agro-assistant-bot/internal/usecase"
)

// pagedList full button list behind a paged keyboard
type pagedList struct {
	userID    int64
	buttons   []usecase.Button
	columns   int
	timestamp time.Time
}

// pageCache keeps long lists so page callbacks can re-render them
type pageCache struct {
	lists   map[string]pagedList
	mu      sync.RWMutex
	ttl     time.Duration
	maxSize int
	now     func() time.Time

	// Statistics
	hits   int64
	misses int64
}

const (
	defaultPageTTL       = 30 * time.Minute
	defaultMaxPagedLists = 5000
)

// newPageCache creates a new list cache
func newPageCache(ttl time.Duration, maxSize int) *pageCache {
	if ttl == 0 {
		ttl = defaultPageTTL
	}
	if maxSize == 0 {
		maxSize = defaultMaxPagedLists
	}
	return &pageCache{
		lists:   make(map[string]pagedList),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// newListToken short random token; fits callback data limits
func newListToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// put stores a list and returns its token
func (pc *pageCache) put(list pagedList) string {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if len(pc.lists) >= pc.maxSize {
		pc.evictOldestLocked()
	}

	token := newListToken()
	for _, taken := pc.lists[token]; taken; _, taken = pc.lists[token] {
		token = newListToken()
	}
	list.timestamp = pc.now()
	pc.lists[token] = list
	return token
}

// get returns the list if it exists, is fresh and belongs to the user
func (pc *pageCache) get(token string, userID int64) (pagedList, bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	list, ok := pc.lists[token]
	if !ok || list.userID != userID {
		pc.misses++
		return pagedList{}, false
	}
	if pc.now().Sub(list.timestamp) > pc.ttl {
		delete(pc.lists, token)
		pc.misses++
		return pagedList{}, false
	}
	pc.hits++
	return list, true
}

// Simple LRU: remove oldest entry
func (pc *pageCache) evictOldestLocked() {
	var oldestKey string
	var oldestTime time.Time
	first := true
	for k, v := range pc.lists {
		if first || v.timestamp.Before(oldestTime) {
			oldestKey = k
			oldestTime = v.timestamp
			first = false
		}
	}
	if oldestKey != "" {
		delete(pc.lists, oldestKey)
	}
}

// sweep removes expired entries
func (pc *pageCache) sweep() int {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	now := pc.now()
	removed := 0
	for key, list := range pc.lists {
		if now.Sub(list.timestamp) > pc.ttl {
			delete(pc.lists, key)
			removed++
		}
	}
	return removed
}

// cleanup runs sweep every ttl until ctx is done
func (pc *pageCache) cleanup(ctx context.Context) {
	ticker := time.NewTicker(pc.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pc.sweep()
		}
	}
}

// stats returns cache statistics
func (pc *pageCache) stats() (hits, misses int64, size int) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.hits, pc.misses, len(pc.lists)
}
