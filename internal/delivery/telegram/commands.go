package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/yourusername/agro-assistant-bot/pkg/logger"
)

// botCommands /setcommands bilan ro'yxatdan o'tkaziladi
var botCommands = []tgbotapi.BotCommand{
	{Command: "start", Description: "Перезапуск / Главное меню"},
	{Command: "menu", Description: "Показать клавиатуру меню"},
	{Command: "reload", Description: "Обновить данные из таблицы"},
	{Command: "help", Description: "Справка по использованию"},
}

// extractCommand "/start@bot args" -> "start"
func extractCommand(message *tgbotapi.Message) string {
	if cmd := message.Command(); cmd != "" {
		return strings.ToLower(cmd)
	}
	text := strings.TrimSpace(message.Text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	fields := strings.Fields(strings.TrimPrefix(text, "/"))
	if len(fields) == 0 {
		return ""
	}
	name, _, _ := strings.Cut(fields[0], "@")
	return strings.ToLower(name)
}

// handleCommand komandalarni qayta ishlash
func (h *BotHandler) handleCommand(req *messageRequest, message *tgbotapi.Message) {
	cmd := extractCommand(message)
	req.logger().Debug("command", zap.String("command", cmd))

	switch cmd {
	case "start", "restart":
		h.sendReply(req, h.engine.Start(req.userID))
	case "menu":
		h.sendReply(req, h.engine.Menu(req.userID))
	case "help":
		h.sendReply(req, h.engine.Help(req.userID))
	case "reload":
		h.sendTyping(req.chatID)
		h.sendReply(req, h.engine.Reload(req.ctx, req.userID))
	case "setcommands":
		h.handleSetCommands(req)
	case "dbg_on":
		logger.SetDebug(true)
		req.logger().Info("debug logging enabled")
		h.sendText(req.chatID, "🐞 DEBUG=1", false)
	case "dbg_off":
		logger.SetDebug(false)
		req.logger().Info("debug logging disabled")
		h.sendText(req.chatID, "DEBUG=0", false)
	case "dbg_history":
		h.handleHistory(req)
	default:
		h.sendText(req.chatID, "Неизвестная команда. Справка: /help", true)
	}
}

func (h *BotHandler) handleSetCommands(req *messageRequest) {
	if _, err := h.api.Request(tgbotapi.NewSetMyCommands(botCommands...)); err != nil {
		req.logger().Error("set commands failed", zap.Error(err))
		h.sendText(req.chatID, "⚠️ Не удалось установить меню команд.", false)
		return
	}
	h.sendText(req.chatID, "Меню команд установлено", false)
}
