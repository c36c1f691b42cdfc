package telegram

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	directionUser = "user"
	directionBot  = "bot"

	defaultMemoryJournalSize = 2000
	defaultHistoryLimit      = 20
)

type chatLogMessage struct {
	ID        int64
	UserID    int64
	ChatID    int64
	Username  string
	Direction string
	Text      string
	MessageID int
	CreatedAt time.Time
}

// ChatStore incoming/outgoing message journal, diagnostics only
type ChatStore interface {
	Save(ctx context.Context, msg chatLogMessage) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]chatLogMessage, error)
	Close() error
}

// memoryChatStore bounded ring of the latest messages
type memoryChatStore struct {
	mu    sync.RWMutex
	data  []chatLogMessage
	limit int
	next  int64
}

func newMemoryChatStore(limit int) *memoryChatStore {
	if limit <= 0 {
		limit = defaultMemoryJournalSize
	}
	return &memoryChatStore{data: make([]chatLogMessage, 0, 256), limit: limit}
}

func (m *memoryChatStore) Save(_ context.Context, msg chatLogMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	msg.ID = m.next
	if len(m.data) >= m.limit {
		m.data = append(m.data[:0], m.data[len(m.data)-m.limit+1:]...)
	}
	m.data = append(m.data, msg)
	return nil
}

// ListByUser latest messages of the user, oldest first
func (m *memoryChatStore) ListByUser(_ context.Context, userID int64, limit int) ([]chatLogMessage, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var res []chatLogMessage
	for i := len(m.data) - 1; i >= 0 && len(res) < limit; i-- {
		if m.data[i].UserID == userID {
			res = append(res, m.data[i])
		}
	}
	for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
		res[i], res[j] = res[j], res[i]
	}
	return res, nil
}

func (m *memoryChatStore) Close() error { return nil }

type postgresChatStore struct {
	db *sql.DB
}

const chatMessagesSchema = `
CREATE TABLE IF NOT EXISTS chat_messages (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL,
	chat_id BIGINT NOT NULL,
	username TEXT,
	direction TEXT NOT NULL,
	message_id BIGINT,
	text TEXT,
	created_at TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_chat_messages_user_time ON chat_messages (user_id, created_at DESC);
`

func newPostgresChatStore(ctx context.Context, dsn string, retry retryPolicy) (*postgresChatStore, error) {
	db, err := openPostgresWithRetry(ctx, dsn, retry)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if _, err := db.ExecContext(ctx, chatMessagesSchema); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "create chat_messages table")
	}
	return &postgresChatStore{db: db}, nil
}

func (p *postgresChatStore) Save(ctx context.Context, msg chatLogMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	_, err := p.db.ExecContext(ctx, `
	INSERT INTO chat_messages (user_id, chat_id, username, direction, message_id, text, created_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, msg.UserID, msg.ChatID, msg.Username, msg.Direction, msg.MessageID, msg.Text, msg.CreatedAt)
	return eris.Wrap(err, "insert chat message")
}

func (p *postgresChatStore) ListByUser(ctx context.Context, userID int64, limit int) ([]chatLogMessage, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	rows, err := p.db.QueryContext(ctx, `
	SELECT id, user_id, chat_id, username, direction, message_id, text, created_at
	FROM chat_messages
	WHERE user_id = $1
	ORDER BY created_at DESC
	LIMIT $2`, userID, limit)
	if err != nil {
		return nil, eris.Wrap(err, "query chat messages")
	}
	defer rows.Close()

	var res []chatLogMessage
	for rows.Next() {
		var msg chatLogMessage
		var username, text sql.NullString
		var messageID sql.NullInt64
		if err := rows.Scan(&msg.ID, &msg.UserID, &msg.ChatID, &username, &msg.Direction, &messageID, &text, &msg.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "scan chat message")
		}
		msg.Username = username.String
		msg.Text = text.String
		msg.MessageID = int(messageID.Int64)
		res = append(res, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterate chat messages")
	}
	for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
		res[i], res[j] = res[j], res[i]
	}
	return res, nil
}

func (p *postgresChatStore) Close() error {
	return p.db.Close()
}

// JournalOptions NewChatStore sozlamalari
type JournalOptions struct {
	DSN             string
	ConnectAttempts int
	RetryDelay      time.Duration
	MemoryLimit     int
}

// NewChatStore Postgres journal when a DSN is set; otherwise, or when
// Postgres cannot be reached, a bounded in-memory one.
func NewChatStore(ctx context.Context, opts JournalOptions) ChatStore {
	dsn := strings.TrimSpace(opts.DSN)
	if dsn == "" {
		return newMemoryChatStore(opts.MemoryLimit)
	}
	store, err := newPostgresChatStore(ctx, dsn, retryPolicy{attempts: opts.ConnectAttempts, delay: opts.RetryDelay})
	if err != nil {
		zap.L().Warn("chat store: postgres unavailable, using memory journal", zap.Error(err))
		return newMemoryChatStore(opts.MemoryLimit)
	}
	zap.L().Info("chat store: postgres journal ready")
	return store
}
