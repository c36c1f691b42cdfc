package telegram

import (
	"context"
	"sort"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// messageRequest one update waiting for a worker: a message or a callback
type messageRequest struct {
	ctx      context.Context
	id       string
	userID   int64
	chatID   int64
	message  *tgbotapi.Message
	callback *tgbotapi.CallbackQuery
}

func (r *messageRequest) logger() *zap.Logger {
	return zap.L().With(
		zap.String("request_id", r.id),
		zap.Int64("user_id", r.userID),
		zap.Int64("chat_id", r.chatID),
	)
}

type rejectReason int

const (
	rejectQueueFull rejectReason = iota
	rejectRateLimited
	rejectPanic
)

// workerPool runs updates in parallel across users. Each user maps to one
// shard, so updates of the same user are handled one at a time, in order.
type workerPool struct {
	shards  []chan *messageRequest
	process func(*messageRequest)
	reject  func(*messageRequest, rejectReason)
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
	done   chan struct{}

	// Rate limiting per user
	limit      rate.Limit
	burst      int
	limiters   map[int64]*userLimiter
	limitersMu sync.Mutex
	now        func() time.Time
}

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const (
	defaultUserRateLimit   = 3
	shardQueueSize         = 32
	defaultWorkerCount     = 16
	requestTimeout         = 45 * time.Second
	rateLimiterCleanupTime = 5 * time.Minute  // How often to clean up rate limiters
	rateLimiterMaxIdleTime = 10 * time.Minute // Max idle time before removing rate limiter
	maxRateLimitersInCache = 10000            // Max number of rate limiters to keep in memory
)

// newWorkerPool creates a new worker pool
func newWorkerPool(workerCount int, perSecond float64, process func(*messageRequest), reject func(*messageRequest, rejectReason)) *workerPool {
	if workerCount <= 0 {
		workerCount = defaultWorkerCount
	}
	if perSecond <= 0 {
		perSecond = defaultUserRateLimit
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}

	wp := &workerPool{
		shards:   make([]chan *messageRequest, workerCount),
		process:  process,
		reject:   reject,
		done:     make(chan struct{}),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[int64]*userLimiter),
		now:      time.Now,
	}
	for i := range wp.shards {
		wp.shards[i] = make(chan *messageRequest, shardQueueSize)
	}
	return wp
}

// start starts all workers
func (wp *workerPool) start(ctx context.Context) {
	zap.L().Info("starting worker pool", zap.Int("workers", len(wp.shards)))

	for i, queue := range wp.shards {
		wp.wg.Add(1)
		go wp.worker(ctx, i, queue)
	}

	wp.wg.Add(1)
	go wp.cleanupRateLimits(ctx)
}

func (wp *workerPool) shardFor(userID int64) chan *messageRequest {
	return wp.shards[uint64(userID)%uint64(len(wp.shards))]
}

// worker processes its shard until the queue is closed or ctx is done
func (wp *workerPool) worker(ctx context.Context, id int, queue chan *messageRequest) {
	defer wp.wg.Done()

	for {
		select {
		case <-ctx.Done():
			zap.L().Debug("worker shutting down", zap.Int("worker", id))
			return
		case req, ok := <-queue:
			if !ok {
				zap.L().Debug("worker shutting down (queue closed)", zap.Int("worker", id))
				return
			}
			if req == nil {
				continue
			}
			if !wp.allow(req.userID) {
				req.logger().Warn("rate limit exceeded")
				wp.reject(req, rejectRateLimited)
				continue
			}
			wp.processWithTimeout(req)
		}
	}
}

// processWithTimeout runs one request with a deadline and panic recovery
func (wp *workerPool) processWithTimeout(req *messageRequest) {
	parent := req.ctx
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, requestTimeout)
	defer cancel()
	req.ctx = ctx

	defer func() {
		if r := recover(); r != nil {
			req.logger().Error("panic in update processing", zap.Any("panic", r), zap.Stack("stack"))
			wp.reject(req, rejectPanic)
		}
	}()

	start := time.Now()
	wp.process(req)
	req.logger().Debug("update processed", zap.Duration("took", time.Since(start)))
}

// allow checks if user is within rate limit
func (wp *workerPool) allow(userID int64) bool {
	wp.limitersMu.Lock()
	defer wp.limitersMu.Unlock()

	ul, ok := wp.limiters[userID]
	if !ok {
		ul = &userLimiter{limiter: rate.NewLimiter(wp.limit, wp.burst)}
		wp.limiters[userID] = ul
	}
	now := wp.now()
	ul.lastSeen = now
	return ul.limiter.AllowN(now, 1)
}

// cleanupRateLimits removes old rate limit entries
func (wp *workerPool) cleanupRateLimits(ctx context.Context) {
	defer wp.wg.Done()

	ticker := time.NewTicker(rateLimiterCleanupTime)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-wp.done:
			return
		case <-ticker.C:
			wp.sweepLimiters()
		}
	}
}

func (wp *workerPool) sweepLimiters() {
	now := wp.now()

	wp.limitersMu.Lock()
	defer wp.limitersMu.Unlock()

	before := len(wp.limiters)
	for userID, ul := range wp.limiters {
		if now.Sub(ul.lastSeen) > rateLimiterMaxIdleTime {
			delete(wp.limiters, userID)
		}
	}
	if removed := before - len(wp.limiters); removed > 0 {
		zap.L().Debug("cleaned up inactive rate limiters", zap.Int("removed", removed), zap.Int("left", len(wp.limiters)))
	}

	// If cache is still too large, remove oldest entries
	if extra := len(wp.limiters) - maxRateLimitersInCache; extra > 0 {
		wp.evictOldestLocked(extra)
	}
}

// evictOldestLocked removes the least recently seen limiters; limitersMu must be held
func (wp *workerPool) evictOldestLocked(count int) {
	type userTime struct {
		userID   int64
		lastSeen time.Time
	}
	users := make([]userTime, 0, len(wp.limiters))
	for userID, ul := range wp.limiters {
		users = append(users, userTime{userID: userID, lastSeen: ul.lastSeen})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].lastSeen.Before(users[j].lastSeen) })

	for i := 0; i < len(users) && i < count; i++ {
		delete(wp.limiters, users[i].userID)
	}
	zap.L().Info("evicted oldest rate limiters", zap.Int("count", min(count, len(users))))
}

// submit queues a request on its user's shard without blocking
func (wp *workerPool) submit(req *messageRequest) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return false
	}

	queue := wp.shardFor(req.userID)
	select {
	case queue <- req:
		return true
	default:
		req.logger().Warn("worker queue is full, rejecting update", zap.Int("queued", len(queue)))
		wp.reject(req, rejectQueueFull)
		return false
	}
}

// shutdown closes the queues and waits for in-flight updates
func (wp *workerPool) shutdown() {
	wp.mu.Lock()
	if wp.closed {
		wp.mu.Unlock()
		return
	}
	wp.closed = true
	pending := 0
	for _, queue := range wp.shards {
		pending += len(queue)
		close(queue)
	}
	close(wp.done)
	wp.mu.Unlock()

	zap.L().Info("shutting down worker pool", zap.Int("pending", pending))
	wp.wg.Wait()
	zap.L().Info("worker pool shut down")
}
