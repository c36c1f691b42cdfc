package usecase

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/agro-assistant-bot/internal/domain/constants"
	"github.com/yourusername/agro-assistant-bot/internal/domain/entity"
	"github.com/yourusername/agro-assistant-bot/internal/domain/repository"
	"github.com/yourusername/agro-assistant-bot/pkg/textnorm"
)

// Product all catalog rows sharing one product name.
type Product struct {
	ID   string
	Name string
	Rows []entity.Row
}

// Field first non-empty value of kind across the product rows.
func (p Product) Field(kind entity.FieldKind) string {
	for _, row := range p.Rows {
		if v := strings.TrimSpace(row.Field(kind)); v != "" {
			return v
		}
	}
	return ""
}

// RowForCrop first row listing crop whose rate parses, or the first row
// listing crop at all. ok is false when no row mentions the crop.
func (p Product) RowForCrop(crop entity.CropEntry) (entity.Row, bool) {
	var fallback *entity.Row
	for i, row := range p.Rows {
		if !hasCrop(row, crop.Key) {
			continue
		}
		if rowRate(row).OK() {
			return row, true
		}
		if fallback == nil {
			fallback = &p.Rows[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return entity.Row{}, false
}

// Catalog immutable view of one catalog load with derived indexes.
type Catalog struct {
	generation uint64
	loadedAt   time.Time

	table    entity.Table
	crops    CropIndex
	products []*Product
	byID     map[string]*Product
}

func buildCatalog(table entity.Table, generation uint64) *Catalog {
	table.Rows = IndexRows(table.Rows)
	c := &Catalog{
		generation: generation,
		loadedAt:   table.LoadedAt,
		table:      table,
		crops:      BuildIndex(table.Rows),
		byID:       make(map[string]*Product),
	}
	for _, row := range table.Rows {
		name := textnorm.CollapseSpaces(row.Field(entity.FieldName))
		if name == "" {
			continue
		}
		id := LabelID(name)
		p, ok := c.byID[id]
		if !ok {
			p = &Product{ID: id, Name: name}
			c.byID[id] = p
			c.products = append(c.products, p)
		}
		p.Rows = append(p.Rows, row)
	}
	return c
}

// Empty no data loaded (source unavailable or sheet empty).
func (c *Catalog) Empty() bool {
	return c == nil || c.table.Empty()
}

// Rows all catalog rows.
func (c *Catalog) Rows() []entity.Row {
	return c.table.Rows
}

// Crops crop index of this load.
func (c *Catalog) Crops() CropIndex {
	return c.crops
}

// Products products in sheet order.
func (c *Catalog) Products() []*Product {
	return c.products
}

// Product by id.
func (c *Catalog) Product(id string) (*Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// ProductByName exact (normalized) name lookup.
func (c *Catalog) ProductByName(name string) (*Product, bool) {
	return c.Product(LabelID(name))
}

// SearchByName products whose name scores above the threshold, best first.
func (c *Catalog) SearchByName(query string) []*Product {
	names := make([]string, len(c.products))
	for i, p := range c.products {
		names[i] = p.Name
	}
	var out []*Product
	for _, m := range Rank(query, names, constants.NameMatchThreshold) {
		out = append(out, c.products[m.Index])
		if len(out) == constants.MaxSearchResults {
			break
		}
	}
	return out
}

// SearchByActive products where every query token of at least three runes
// matches one of the row's active-ingredient tokens. A query without such
// tokens ("2,4-Д") is matched as a substring of the compacted ingredient cell.
func (c *Catalog) SearchByActive(query string) []*Product {
	tokens, compact := activeQuery(query)
	if len(tokens) == 0 && compact == "" {
		return nil
	}

	var out []*Product
	for _, p := range c.products {
		for _, row := range p.Rows {
			var hit bool
			if len(tokens) > 0 {
				hit = rowMatchesActive(row, tokens)
			} else {
				hit = strings.Contains(rowActiveCompact(row), compact)
			}
			if hit {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// ActiveQueryUsable query has something to search by once a leading
// "д.в." label and punctuation are stripped.
func ActiveQueryUsable(query string) bool {
	_, compact := activeQuery(query)
	return compact != ""
}

// activeQuery tokens of at least three runes plus the whole query without
// separators. A leading "д.в." label is not part of the query.
func activeQuery(query string) (tokens []string, compact string) {
	fields := strings.Fields(textnorm.Normalize(query))
	switch {
	case len(fields) >= 2 && fields[0] == "д" && fields[1] == "в":
		fields = fields[2:]
	case len(fields) >= 1 && fields[0] == "дв":
		fields = fields[1:]
	}
	for _, tok := range fields {
		if len([]rune(tok)) >= constants.ActiveTokenMinLen {
			tokens = append(tokens, tok)
		}
	}
	return tokens, strings.Join(fields, "")
}

func rowActiveCompact(row entity.Row) string {
	if row.ActiveCompact != "" {
		return row.ActiveCompact
	}
	return textnorm.Compact(row.Field(entity.FieldActiveIngredient))
}

func rowMatchesActive(row entity.Row, query []string) bool {
	if len(row.ActiveTokens) == 0 {
		return false
	}
	for _, q := range query {
		hit := false
		for _, tok := range row.ActiveTokens {
			if tokenMatches(q, tok) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

// CatalogService serves catalog snapshots and rebuilds the derived indexes
// when the repository reports a new load.
type CatalogService struct {
	repo repository.CatalogRepository

	mu   sync.Mutex
	snap atomic.Pointer[Catalog]
}

// NewCatalogService yangi katalog servisi
func NewCatalogService(repo repository.CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

// Current catalog, loading it on first use or after TTL expiry.
func (s *CatalogService) Current(ctx context.Context) *Catalog {
	return s.get(ctx, false)
}

// Reload forces both sheets to be fetched again and the indexes rebuilt.
func (s *CatalogService) Reload(ctx context.Context) (*Catalog, entity.Table) {
	cat := s.get(ctx, true)
	contacts := s.repo.Contacts(ctx, true)
	zap.L().Info("catalog reloaded",
		zap.Int("rows", len(cat.Rows())),
		zap.Int("crops", cat.Crops().Len()),
		zap.Int("products", len(cat.Products())),
		zap.Int("contacts", len(contacts.Rows)),
	)
	return cat, contacts
}

// Contacts contact rows with a branch.
func (s *CatalogService) Contacts(ctx context.Context) entity.Table {
	return s.repo.Contacts(ctx, false)
}

func (s *CatalogService) get(ctx context.Context, force bool) *Catalog {
	table := s.repo.Catalog(ctx, force)
	gen := s.repo.CatalogGeneration()

	if cur := s.snap.Load(); cur != nil && cur.generation == gen && cur.loadedAt.Equal(table.LoadedAt) {
		return cur
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cur := s.snap.Load(); cur != nil && cur.generation == gen && cur.loadedAt.Equal(table.LoadedAt) {
		return cur
	}
	next := buildCatalog(table, gen)
	s.snap.Store(next)
	zap.L().Debug("catalog indexes rebuilt",
		zap.Uint64("generation", gen),
		zap.Int("crops", next.crops.Len()),
		zap.Int("products", len(next.products)),
	)
	return next
}
