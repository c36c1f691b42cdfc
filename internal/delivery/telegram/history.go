package telegram

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	historyCommandLimit = 10
	historyTextRunes    = 120
)

// handleHistory /dbg_history: foydalanuvchining o'z jurnal yozuvlari
func (h *BotHandler) handleHistory(req *messageRequest) {
	if h.journal == nil {
		h.sendText(req.chatID, "Журнал отключён.", false)
		return
	}
	entries, err := h.journal.ListByUser(req.ctx, req.userID, historyCommandLimit+1)
	if err != nil {
		req.logger().Warn("journal history failed", zap.Error(err))
		h.sendText(req.chatID, "⚠️ Не удалось прочитать журнал.", false)
		return
	}
	// the command itself is already journaled
	if n := len(entries); n > 0 && entries[n-1].Direction == directionUser && strings.HasPrefix(entries[n-1].Text, "/dbg_history") {
		entries = entries[:n-1]
	}
	if len(entries) > historyCommandLimit {
		entries = entries[len(entries)-historyCommandLimit:]
	}
	h.sendText(req.chatID, formatHistory(entries), false)
}

func formatHistory(entries []chatLogMessage) string {
	if len(entries) == 0 {
		return "Журнал пуст."
	}
	var b strings.Builder
	b.WriteString("🗂 Последние сообщения:\n")
	for _, e := range entries {
		arrow := "➡️"
		if e.Direction == directionBot {
			arrow = "⬅️"
		}
		b.WriteString("\n" + e.CreatedAt.Local().Format(time.DateTime) + " " + arrow + " " +
			truncateRunes(strings.Join(strings.Fields(e.Text), " "), historyTextRunes))
	}
	return b.String()
}
