package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Start botni ishga tushirish
func (h *BotHandler) Start(ctx context.Context) error {
	if h.bot == nil {
		return eris.New("telegram bot is not initialized")
	}
	h.workerPool.start(ctx)
	go h.cleanupSessions(ctx)
	go h.pages.cleanup(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := h.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			h.bot.StopReceivingUpdates()
			h.workerPool.shutdown()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				h.workerPool.shutdown()
				return nil
			}
			h.dispatch(ctx, update)
		}
	}
}

// dispatch navbatga qo'yish; false agar update e'tiborsiz qoldirilsa
func (h *BotHandler) dispatch(ctx context.Context, update tgbotapi.Update) bool {
	req := newRequest(ctx, update)
	if req == nil {
		return false
	}
	return h.workerPool.submit(req)
}

// newRequest only private chats are served; group updates are dropped.
func newRequest(ctx context.Context, update tgbotapi.Update) *messageRequest {
	switch {
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		if cq.From == nil || cq.Message == nil || cq.Message.Chat == nil || !cq.Message.Chat.IsPrivate() {
			return nil
		}
		return &messageRequest{
			ctx:      ctx,
			id:       newRequestID(),
			userID:   cq.From.ID,
			chatID:   cq.Message.Chat.ID,
			callback: cq,
		}
	case update.Message != nil:
		msg := update.Message
		if msg.From == nil || msg.Chat == nil || !msg.Chat.IsPrivate() {
			return nil
		}
		return &messageRequest{
			ctx:     ctx,
			id:      newRequestID(),
			userID:  msg.From.ID,
			chatID:  msg.Chat.ID,
			message: msg,
		}
	}
	return nil
}

// process worker ichida chaqiriladi
func (h *BotHandler) process(req *messageRequest) {
	if req.callback != nil {
		h.handleCallback(req, req.callback)
		return
	}
	h.handleMessage(req, req.message)
}

// handleMessage xabarni qayta ishlash
func (h *BotHandler) handleMessage(req *messageRequest, message *tgbotapi.Message) {
	h.usernames.remember(req.userID, displayName(message.From))
	h.logIncomingChatMessage(message)

	if message.IsCommand() || strings.HasPrefix(strings.TrimSpace(message.Text), "/") {
		h.handleCommand(req, message)
		return
	}
	if strings.TrimSpace(message.Text) == "" {
		req.logger().Debug("non-text message ignored")
		h.sendText(req.chatID, textOnlyText, true)
		return
	}
	h.handleTextMessage(req, message.Text)
}

// reject foydalanuvchiga rad javobini yuborish
func (h *BotHandler) reject(req *messageRequest, reason rejectReason) {
	var text string
	switch reason {
	case rejectQueueFull:
		text = "⚠️ Бот сейчас перегружен. Пожалуйста, повторите через минуту."
	case rejectRateLimited:
		text = "⚠️ Слишком много запросов. Подождите немного."
	default:
		text = "⚠️ Внутренняя ошибка. Попробуйте ещё раз или отправьте /start."
	}
	if reason == rejectPanic {
		h.engine.Reset(req.userID)
	}
	zap.L().Debug("update rejected", zap.String("request_id", req.id), zap.Int("reason", int(reason)))
	if req.callback != nil {
		h.answerCallback(req.callback.ID, text)
		return
	}
	h.sendText(req.chatID, text, false)
}
