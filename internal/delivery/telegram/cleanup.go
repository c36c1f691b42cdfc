package telegram

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const sessionSweepInterval = 15 * time.Minute

// cleanupSessions - eski sessiyalarni tozalash (memory leak oldini olish)
func (h *BotHandler) cleanupSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.sweepSessions()
		}
	}
}

// sweepSessions drops conversation states idle longer than sessionTTL
func (h *BotHandler) sweepSessions() int {
	removed := h.sessions.Sweep(h.now().Add(-h.sessionTTL))
	hits, misses, lists := h.pages.stats()
	zap.L().Info("session cleanup",
		zap.Int("expired_sessions", removed),
		zap.Int("paged_lists", lists),
		zap.Int64("page_hits", hits),
		zap.Int64("page_misses", misses),
	)
	return removed
}
