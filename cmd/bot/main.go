package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/agro-assistant-bot/config"
	"github.com/yourusername/agro-assistant-bot/internal/delivery/telegram"
	"github.com/yourusername/agro-assistant-bot/internal/domain/repository"
	"github.com/yourusername/agro-assistant-bot/internal/infrastructure/sheets"
	"github.com/yourusername/agro-assistant-bot/internal/infrastructure/storage"
	"github.com/yourusername/agro-assistant-bot/internal/infrastructure/xlsx"
	"github.com/yourusername/agro-assistant-bot/internal/usecase"
	"github.com/yourusername/agro-assistant-bot/pkg/logger"
)

func main() {
	// Konfiguratsiyani yuklash
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info", "console").Fatal("config load failed", zap.Error(err))
	}

	// Logger ni ishga tushirish
	log := logger.Init(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()
	initDefaultTimezone(cfg.Timezone)
	log.Info("starting agro assistant bot", zap.String("catalog_source", cfg.CatalogSource))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AllowEmptySecrets && isEmptyOrDisabled(cfg.TelegramToken) {
		log.Warn("TELEGRAM_BOT_TOKEN is empty, bot is not started; waiting for a stop signal")
		<-ctx.Done()
		return
	}

	// 1. Catalog source
	source, err := newGridSource(ctx, cfg)
	if err != nil {
		log.Fatal("catalog source init failed", zap.Error(err))
	}

	// 2. Repositories (in-memory)
	catalogRepo := storage.NewSheetCatalogRepository(source, storage.CatalogOptions{
		CatalogSheet:  cfg.CatalogSheet,
		ContactsSheet: cfg.ContactsSheet,
		TTL:           cfg.CatalogCacheTTL,
		Timeout:       cfg.CatalogFetchTimeout,
	})
	sessions := storage.NewMemorySessionRepository()

	// 3. Use cases
	catalog := usecase.NewCatalogService(catalogRepo)
	engine := usecase.NewEngine(catalog, sessions)

	// Warm the cache so the first user does not wait for the sheet.
	warm, contacts := catalog.Reload(ctx)
	log.Info("catalog loaded",
		zap.Int("rows", len(warm.Rows())),
		zap.Int("crops", warm.Crops().Len()),
		zap.Int("products", len(warm.Products())),
		zap.Int("contacts", len(contacts.Rows)),
	)

	// 4. Journal
	journal := telegram.NewChatStore(ctx, telegram.JournalOptions{
		DSN:             cfg.PostgresDSN,
		ConnectAttempts: cfg.PostgresConnectAttempts,
		RetryDelay:      cfg.PostgresConnectRetry,
	})

	// 5. Telegram bot handler
	botHandler, err := telegram.NewBotHandler(cfg.TelegramToken, engine, sessions, telegram.Options{
		WorkerCount:   cfg.WorkerCount,
		UserRateLimit: cfg.UserRateLimit,
		SessionTTL:    cfg.SessionTTL,
		Journal:       journal,
	})
	if err != nil {
		_ = journal.Close()
		log.Fatal("bot handler init failed", zap.Error(err))
	}
	defer func() {
		if err := botHandler.Close(); err != nil {
			log.Warn("journal close failed", zap.Error(err))
		}
	}()
	log.Info("telegram bot ready", zap.String("username", botHandler.GetBotUsername()))

	if err := botHandler.Start(ctx); err != nil && ctx.Err() == nil {
		log.Error("bot stopped with error", zap.Error(err))
		return
	}
	log.Info("bot stopped")
}

func newGridSource(ctx context.Context, cfg *config.Config) (repository.GridSource, error) {
	if cfg.CatalogSource == config.SourceXLSX {
		return xlsx.NewFileSource(cfg.CatalogXLSXPath), nil
	}
	return sheets.NewSheetsSource(ctx, sheets.Config{
		SpreadsheetID:   cfg.SpreadsheetID,
		CredentialsFile: cfg.GoogleCredentialsFile,
		APIKey:          cfg.GoogleAPIKey,
	})
}

func initDefaultTimezone(tzName string) {
	if loc, err := time.LoadLocation(tzName); err == nil {
		time.Local = loc
		return
	}
	zap.L().Warn("unknown timezone, keeping system default", zap.String("timezone", tzName))
}

func isEmptyOrDisabled(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return true
	}
	return strings.EqualFold(value, "disabled")
}
