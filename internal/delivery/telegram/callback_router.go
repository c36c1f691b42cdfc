package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Callback query larini qayta ishlash
func (h *BotHandler) handleCallback(req *messageRequest, cq *tgbotapi.CallbackQuery) {
	h.usernames.remember(req.userID, displayName(cq.From))
	data := strings.TrimSpace(cq.Data)
	req.logger().Debug("callback", zap.String("data", data))

	switch {
	case data == noopCallback:
		h.answerCallback(cq.ID, "")
	case strings.HasPrefix(data, pageCallbackKind+":"):
		h.handlePageCallback(req, cq, data)
	default:
		// Callback ga javob (spinnerni to'xtatish)
		h.answerCallback(cq.ID, "")
		h.logChatMessage(journalEntry(req.userID, req.chatID, h.usernames.get(req.userID), directionUser, cq.Message.MessageID, "[button] "+data))
		h.sendReply(req, h.engine.HandleAction(req.ctx, req.userID, data))
	}
}

// handlePageCallback edits the keyboard in place to show another page.
func (h *BotHandler) handlePageCallback(req *messageRequest, cq *tgbotapi.CallbackQuery, data string) {
	token, page, ok := parsePageCallback(data)
	if !ok {
		h.answerCallback(cq.ID, "")
		return
	}
	list, ok := h.pages.get(token, req.userID)
	if !ok {
		h.answerCallback(cq.ID, "Список устарел, откройте его заново.")
		return
	}
	h.answerCallback(cq.ID, "")

	edit := tgbotapi.NewEditMessageReplyMarkup(req.chatID, cq.Message.MessageID, pageKeyboard(token, list, page))
	if _, err := h.api.Request(edit); err != nil {
		req.logger().Warn("page edit failed", zap.Int("page", page), zap.Error(err))
	}
}
