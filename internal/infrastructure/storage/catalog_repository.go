package storage

import (
	"context"
	"time"

	"github.com/yourusername/agro-assistant-bot/internal/domain/entity"
	"github.com/yourusername/agro-assistant-bot/internal/domain/repository"
)

type sheetCatalogRepository struct {
	catalog  *GridCache
	contacts *GridCache
}

// CatalogOptions sheet names and cache timings for NewSheetCatalogRepository.
type CatalogOptions struct {
	CatalogSheet  string
	ContactsSheet string
	TTL           time.Duration
	Timeout       time.Duration
	Now           func() time.Time
}

// NewSheetCatalogRepository catalog and contacts caches over one source.
func NewSheetCatalogRepository(source repository.GridSource, opts CatalogOptions) repository.CatalogRepository {
	return &sheetCatalogRepository{
		catalog: NewGridCache(source, GridCacheOptions{
			Name:    "catalog",
			Sheet:   opts.CatalogSheet,
			TTL:     opts.TTL,
			Timeout: opts.Timeout,
			Now:     opts.Now,
		}),
		contacts: NewGridCache(source, GridCacheOptions{
			Name:    "contacts",
			Sheet:   opts.ContactsSheet,
			TTL:     opts.TTL,
			Timeout: opts.Timeout,
			Now:     opts.Now,
			Build: func(grid [][]string, at time.Time) entity.Table {
				return FilterRequired(BuildTable(grid, at), entity.FieldBranch)
			},
		}),
	}
}

var _ repository.CatalogRepository = (*sheetCatalogRepository)(nil)

func (r *sheetCatalogRepository) Catalog(ctx context.Context, force bool) entity.Table {
	return r.catalog.Get(ctx, force)
}

func (r *sheetCatalogRepository) Contacts(ctx context.Context, force bool) entity.Table {
	return r.contacts.Get(ctx, force)
}

// CatalogGeneration changes whenever the catalog is reloaded successfully.
func (r *sheetCatalogRepository) CatalogGeneration() uint64 {
	return r.catalog.Generation()
}
