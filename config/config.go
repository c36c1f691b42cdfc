package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"

	"github.com/yourusername/agro-assistant-bot/internal/domain/constants"
)

// Catalog source kinds
const (
	SourceSheets = "sheets"
	SourceXLSX   = "xlsx"
)

// Config ilovaning konfiguratsiyasi
type Config struct {
	TelegramToken     string
	AllowEmptySecrets bool

	// Catalog source
	CatalogSource         string
	SpreadsheetID         string
	CatalogSheet          string
	ContactsSheet         string
	GoogleCredentialsFile string
	GoogleAPIKey          string
	CatalogXLSXPath       string

	CatalogCacheTTL     time.Duration
	CatalogFetchTimeout time.Duration

	// Conversation / transport
	SessionTTL    time.Duration
	WorkerCount   int
	UserRateLimit float64

	LogLevel  string
	LogFormat string
	Timezone  string

	// Optional message journal
	PostgresDSN             string
	PostgresConnectAttempts int
	PostgresConnectRetry    time.Duration
}

// Load konfiguratsiyani yuklash
func Load() (*Config, error) {
	// .env faylini yuklash (mavjud bo'lsa)
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken:     strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		AllowEmptySecrets: getEnvBool("ALLOW_EMPTY_SECRETS", false),

		CatalogSource:         strings.ToLower(getEnv("CATALOG_SOURCE", SourceSheets)),
		SpreadsheetID:         strings.TrimSpace(os.Getenv("SPREADSHEET_ID")),
		CatalogSheet:          strings.TrimSpace(os.Getenv("CATALOG_SHEET")),
		ContactsSheet:         getEnv("CONTACTS_SHEET", "Контакты"),
		GoogleCredentialsFile: strings.TrimSpace(os.Getenv("GOOGLE_CREDENTIALS_FILE")),
		GoogleAPIKey:          strings.TrimSpace(os.Getenv("GOOGLE_API_KEY")),
		CatalogXLSXPath:       strings.TrimSpace(os.Getenv("CATALOG_XLSX_PATH")),

		CatalogCacheTTL:     getEnvDuration("CATALOG_CACHE_TTL", constants.DefaultCatalogTTL),
		CatalogFetchTimeout: getEnvDuration("CATALOG_FETCH_TIMEOUT", constants.DefaultFetchTimeout),

		SessionTTL:    getEnvDuration("SESSION_TTL", constants.DefaultSessionTTL),
		WorkerCount:   getEnvInt("WORKER_COUNT", 16),
		UserRateLimit: getEnvFloat("USER_RATE_LIMIT", 3),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		Timezone:  getEnv("TIMEZONE", "Europe/Moscow"),

		PostgresDSN:             strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		PostgresConnectAttempts: getEnvInt("POSTGRES_CONNECT_MAX_ATTEMPTS", 20),
		PostgresConnectRetry:    getEnvDuration("POSTGRES_CONNECT_RETRY", 2*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate majburiy qiymatlarni tekshirish
func (c *Config) Validate() error {
	if c.TelegramToken == "" && !c.AllowEmptySecrets {
		return eris.New("TELEGRAM_BOT_TOKEN environment variable bo'sh")
	}
	switch c.CatalogSource {
	case SourceSheets:
		if c.SpreadsheetID == "" {
			return eris.New("SPREADSHEET_ID is required when CATALOG_SOURCE=sheets")
		}
	case SourceXLSX:
		if c.CatalogXLSXPath == "" {
			return eris.New("CATALOG_XLSX_PATH is required when CATALOG_SOURCE=xlsx")
		}
	default:
		return eris.Errorf("CATALOG_SOURCE noto'g'ri: %q (sheets | xlsx)", c.CatalogSource)
	}
	if c.WorkerCount <= 0 {
		return eris.Errorf("WORKER_COUNT must be positive, got %d", c.WorkerCount)
	}
	if c.UserRateLimit <= 0 {
		return eris.Errorf("USER_RATE_LIMIT must be positive, got %v", c.UserRateLimit)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	switch strings.ToLower(value) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64)
	if err != nil {
		return defaultValue
	}
	return f
}

// getEnvDuration accepts Go durations ("10m") or plain seconds ("600").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
