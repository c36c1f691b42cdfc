package telegram

import (
	"go.uber.org/zap"

	"github.com/yourusername/agro-assistant-bot/internal/usecase"
)

// handleTextMessage oddiy matn: menyu tugmasi yoki joriy qadam uchun kiritma
func (h *BotHandler) handleTextMessage(req *messageRequest, text string) {
	if !usecase.IsMenuButton(text) {
		h.sendTyping(req.chatID)
	}
	reply := h.engine.HandleText(req.ctx, req.userID, text)
	req.logger().Debug("text handled",
		zap.String("step", string(h.engine.State(req.userID).Step())),
		zap.Int("buttons", len(reply.Buttons)),
	)
	h.sendReply(req, reply)
}
