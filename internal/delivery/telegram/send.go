package telegram

import (
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/yourusername/agro-assistant-bot/internal/usecase"
)

const telegramTextLimit = 4096

const (
	textOnlyText = "✏️ Я понимаю только текст. Выберите действие в меню или отправьте название препарата."
	emptyText    = "Ничего не найдено. Попробуйте по-другому или откройте /menu."
)

// sendReply engine javobini chizish: matn, inline tugmalar yoki asosiy menyu
func (h *BotHandler) sendReply(req *messageRequest, reply usecase.Reply) {
	var markup interface{}
	switch {
	case len(reply.Buttons) > 0:
		markup = h.inlineMarkup(req.userID, reply.Buttons, reply.Columns)
	case reply.ShowMenu:
		markup = mainMenuKeyboard()
	}

	parseMode := ""
	if reply.HTML {
		parseMode = tgbotapi.ModeHTML
	}

	text := reply.Text
	if strings.TrimSpace(text) == "" {
		req.logger().Warn("empty reply text")
		text = emptyText
		parseMode = ""
	}

	chunks := splitIntoChunks(text, telegramTextLimit)
	for i, chunk := range chunks {
		msg := tgbotapi.NewMessage(req.chatID, chunk)
		msg.ParseMode = parseMode
		msg.DisableWebPagePreview = true
		if i == len(chunks)-1 && markup != nil {
			msg.ReplyMarkup = markup
		}
		if _, err := h.sendAndLog(msg); err != nil {
			req.logger().Error("send reply failed", zap.Error(err))
			return
		}
	}
}

// sendText oddiy xabar yuborish
func (h *BotHandler) sendText(chatID int64, text string, withMenu bool) {
	msg := tgbotapi.NewMessage(chatID, text)
	if withMenu {
		msg.ReplyMarkup = mainMenuKeyboard()
	}
	if _, err := h.sendAndLog(msg); err != nil {
		zap.L().Error("send message failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (h *BotHandler) sendAndLog(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	sent, err := h.api.Send(msg)
	if err != nil {
		return sent, err
	}
	h.logOutgoingFromChattable(msg, sent)
	return sent, nil
}

// answerCallback spinnerni to'xtatish; text bo'sh bo'lishi mumkin
func (h *BotHandler) answerCallback(callbackID, text string) {
	if _, err := h.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		zap.L().Warn("answer callback failed", zap.Error(err))
	}
}

func (h *BotHandler) sendTyping(chatID int64) {
	if _, err := h.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		zap.L().Debug("typing action failed", zap.Error(err))
	}
}

// splitIntoChunks matnni Telegram limitiga mos bo'laklarga ajratadi. Lines are
// kept whole when they fit, so HTML tags that open and close on one line survive.
func splitIntoChunks(s string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return []string{s}
	}

	var chunks []string
	var current strings.Builder
	size := 0
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			size = 0
		}
	}

	for _, line := range strings.SplitAfter(s, "\n") {
		n := utf8.RuneCountInString(line)
		if size+n <= limit {
			current.WriteString(line)
			size += n
			continue
		}
		flush()
		for n > limit {
			r := []rune(line)
			chunks = append(chunks, string(r[:limit]))
			line = string(r[limit:])
			n -= limit
		}
		current.WriteString(line)
		size = n
	}
	flush()
	return chunks
}
