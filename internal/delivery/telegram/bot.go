package telegram

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/yourusername/agro-assistant-bot/internal/domain/constants"
	"github.com/yourusername/agro-assistant-bot/internal/domain/repository"
	"github.com/yourusername/agro-assistant-bot/internal/usecase"
)

// botAPI Telegram API ning biz ishlatadigan qismi (testlarda fake)
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Options BotHandler sozlamalari
type Options struct {
	WorkerCount int
	// UserRateLimit updates per second per user
	UserRateLimit float64
	SessionTTL    time.Duration
	// Journal optional message log; nil disables it
	Journal ChatStore
}

// BotHandler Telegram bot handler
type BotHandler struct {
	bot      *tgbotapi.BotAPI
	api      botAPI
	engine   *usecase.Engine
	sessions repository.SessionRepository

	workerPool *workerPool
	pages      *pageCache
	journal    ChatStore
	usernames  *usernameCache

	sessionTTL time.Duration
	now        func() time.Time
}

// NewBotHandler yangi bot handler yaratish
func NewBotHandler(token string, engine *usecase.Engine, sessions repository.SessionRepository, opts Options) (*BotHandler, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, eris.Wrap(err, "telegram bot api")
	}
	zap.L().Info("telegram bot authorized", zap.String("username", bot.Self.UserName))

	h := newBotHandler(bot, engine, sessions, opts)
	h.bot = bot
	return h, nil
}

func newBotHandler(api botAPI, engine *usecase.Engine, sessions repository.SessionRepository, opts Options) *BotHandler {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = constants.DefaultSessionTTL
	}
	h := &BotHandler{
		api:        api,
		engine:     engine,
		sessions:   sessions,
		pages:      newPageCache(defaultPageTTL, defaultMaxPagedLists),
		journal:    opts.Journal,
		usernames:  newUsernameCache(),
		sessionTTL: opts.SessionTTL,
		now:        time.Now,
	}
	h.workerPool = newWorkerPool(opts.WorkerCount, opts.UserRateLimit, h.process, h.reject)
	return h
}

// GetBotUsername bot username
func (h *BotHandler) GetBotUsername() string {
	if h.bot == nil {
		return ""
	}
	return h.bot.Self.UserName
}

// Close journal ulanishini yopish
func (h *BotHandler) Close() error {
	if h.journal == nil {
		return nil
	}
	return h.journal.Close()
}
