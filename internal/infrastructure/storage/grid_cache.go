package storage

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yourusername/agro-assistant-bot/internal/domain/constants"
	"github.com/yourusername/agro-assistant-bot/internal/domain/entity"
	"github.com/yourusername/agro-assistant-bot/internal/domain/repository"
)

// ErrSourceUnavailable the grid source failed or timed out.
var ErrSourceUnavailable = eris.New("grid source unavailable")

const failedLoadRetry = 30 * time.Second

type cacheEntry struct {
	table   entity.Table
	expires time.Time
}

// GridCache caches one sheet of a GridSource as a Table. Readers get a whole
// snapshot: reloads build a new table and swap the pointer.
type GridCache struct {
	name    string
	source  repository.GridSource
	sheet   string
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time
	build   func(grid [][]string, at time.Time) entity.Table

	group      singleflight.Group
	entry      atomic.Pointer[cacheEntry]
	generation atomic.Uint64
}

// GridCacheOptions GridCache sozlamalari
type GridCacheOptions struct {
	Name    string
	Sheet   string
	TTL     time.Duration
	Timeout time.Duration
	// Now overrides the clock in tests.
	Now func() time.Time
	// Build overrides BuildTable, e.g. to filter rows.
	Build func(grid [][]string, at time.Time) entity.Table
}

// NewGridCache yangi kesh yaratish
func NewGridCache(source repository.GridSource, opts GridCacheOptions) *GridCache {
	if opts.TTL <= 0 {
		opts.TTL = constants.DefaultCatalogTTL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = constants.DefaultFetchTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Build == nil {
		opts.Build = BuildTable
	}
	if opts.Name == "" {
		opts.Name = "grid"
	}
	return &GridCache{
		name:    opts.Name,
		source:  source,
		sheet:   opts.Sheet,
		ttl:     opts.TTL,
		timeout: opts.Timeout,
		now:     opts.Now,
		build:   opts.Build,
	}
}

// Get returns the cached table, reloading when expired or forced.
// It never fails: an unavailable source yields the last good table or an empty one.
func (c *GridCache) Get(ctx context.Context, force bool) entity.Table {
	if !force {
		if e := c.entry.Load(); e != nil && c.now().Before(e.expires) {
			return e.table
		}
	}
	v, _, _ := c.group.Do("load", func() (any, error) {
		return c.reload(ctx), nil
	})
	return v.(entity.Table)
}

// Generation increments on every successful reload.
func (c *GridCache) Generation() uint64 {
	return c.generation.Load()
}

func (c *GridCache) reload(ctx context.Context) entity.Table {
	started := c.now()
	grid, err := c.fetch(ctx)
	if err != nil {
		zap.L().Warn("sheet load failed",
			zap.String("cache", c.name),
			zap.String("sheet", c.sheet),
			zap.Error(err),
		)
		if prev := c.entry.Load(); prev != nil && !prev.table.Empty() {
			c.entry.Store(&cacheEntry{table: prev.table, expires: started.Add(failedLoadRetry)})
			return prev.table
		}
		empty := entity.Table{LoadedAt: started}
		c.entry.Store(&cacheEntry{table: empty, expires: started.Add(failedLoadRetry)})
		return empty
	}

	table := c.build(grid, started)
	c.entry.Store(&cacheEntry{table: table, expires: started.Add(c.ttl)})
	c.generation.Add(1)
	zap.L().Info("sheet loaded",
		zap.String("cache", c.name),
		zap.String("sheet", c.sheet),
		zap.Int("rows", len(table.Rows)),
		zap.Int("columns", len(table.Columns)),
	)
	return table
}

type fetchResult struct {
	grid [][]string
	err  error
}

// fetch bounds the source call by the timeout even if the source ignores ctx.
func (c *GridCache) fetch(ctx context.Context) ([][]string, error) {
	if c.source == nil {
		return nil, eris.Wrap(ErrSourceUnavailable, "no source configured")
	}
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	done := make(chan fetchResult, 1)
	go func() {
		grid, err := c.source.FetchGrid(fetchCtx, c.sheet)
		done <- fetchResult{grid: grid, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, eris.Wrapf(ErrSourceUnavailable, "fetch %q: %v", c.sheet, res.err)
		}
		return res.grid, nil
	case <-fetchCtx.Done():
		return nil, eris.Wrapf(ErrSourceUnavailable, "fetch %q: %v", c.sheet, fetchCtx.Err())
	}
}
