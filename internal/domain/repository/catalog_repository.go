package repository

import (
	"context"
	"time"

	"github.com/yourusername/agro-assistant-bot/internal/domain/entity"
)

// GridSource external spreadsheet collaborator. An empty sheet name means
// the first sheet. Any error is treated by callers as "unavailable".
type GridSource interface {
	FetchGrid(ctx context.Context, sheet string) ([][]string, error)
}

// CatalogRepository cached access to the product catalog and contacts.
type CatalogRepository interface {
	// Catalog returns the cached table, reloading when expired or forced.
	Catalog(ctx context.Context, force bool) entity.Table
	// Contacts same for the contacts sheet.
	Contacts(ctx context.Context, force bool) entity.Table
	// CatalogGeneration changes on every successful catalog reload.
	CatalogGeneration() uint64
}

// SessionRepository per-user conversation state store.
type SessionRepository interface {
	Get(userID int64) (entity.Session, bool)
	Put(session entity.Session)
	Delete(userID int64)
	// Sweep removes sessions not updated since before; returns how many.
	Sweep(before time.Time) int
}
