package telegram

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const journalWriteTimeout = 5 * time.Second

func journalEntry(userID, chatID int64, username, direction string, messageID int, text string) chatLogMessage {
	return chatLogMessage{
		UserID:    userID,
		ChatID:    chatID,
		Username:  username,
		Direction: direction,
		MessageID: messageID,
		Text:      text,
		CreatedAt: time.Now(),
	}
}

func (h *BotHandler) logIncomingChatMessage(msg *tgbotapi.Message) {
	if h.journal == nil || msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	h.logChatMessage(journalEntry(msg.From.ID, msg.Chat.ID, displayName(msg.From), directionUser, msg.MessageID, text))
}

func (h *BotHandler) logOutgoingFromChattable(msg tgbotapi.Chattable, sent tgbotapi.Message) {
	cfg, ok := msg.(tgbotapi.MessageConfig)
	if !ok {
		return
	}
	chatID := cfg.ChatID
	if sent.Chat != nil && sent.Chat.ID != 0 {
		chatID = sent.Chat.ID
	}
	text := strings.TrimSpace(cfg.Text)
	if chatID <= 0 || text == "" {
		return
	}
	// private chats: chat id equals user id
	h.logChatMessage(journalEntry(chatID, chatID, h.usernames.get(chatID), directionBot, sent.MessageID, text))
}

// logChatMessage journalga fon rejimida yozish
func (h *BotHandler) logChatMessage(msg chatLogMessage) {
	if h.journal == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
		defer cancel()
		if err := h.journal.Save(ctx, msg); err != nil {
			zap.L().Warn("chat journal write failed", zap.Int64("user_id", msg.UserID), zap.Error(err))
		}
	}()
}
