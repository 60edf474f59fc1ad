package executor

import (
	"context"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wilke/gowe-arbiter/internal/logging"
	"github.com/wilke/gowe-arbiter/internal/store"
	"github.com/wilke/gowe-arbiter/pkg/model"
)

// DefaultCacheTTL is the freshness window of the cache: a cached
// Result older than this is treated as a miss.
const DefaultCacheTTL = 48 * time.Hour

// Cache wraps an inner Executor with a fingerprint-keyed result cache.
// Concurrent misses for the same fingerprint are coalesced to a single
// producer via singleflight; a cache read or write failure is logged and
// the caller falls through to live execution.
type Cache struct {
	store  store.Store
	ttl    time.Duration
	next   Executor
	logger *slog.Logger
	group  singleflight.Group
}

// NewCache creates a Cache backed by st, with the given freshness window
// (DefaultCacheTTL if ttl <= 0).
func NewCache(st store.Store, ttl time.Duration, next Executor, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		store:  st,
		ttl:    ttl,
		next:   next,
		logger: logging.Component(logger, "executor-cache"),
	}
}

func (c *Cache) Run(ctx context.Context, prover model.Prover, problem model.Problem, timeoutS, memoryMB int) (model.Result, error) {
	content, err := os.ReadFile(problem.Path)
	if err != nil {
		// Can't fingerprint without reading the file; let the inner
		// executor's own attempt to use the path produce a properly
		// classified Error result instead of inventing one here.
		return c.next.Run(ctx, prover, problem, timeoutS, memoryMB)
	}
	fp := model.Fingerprint(prover, problem.Path, content, timeoutS, memoryMB)

	if cached, err := c.store.GetResult(ctx, fp, c.ttl); err != nil {
		c.logger.Warn("cache read failed, executing live", "fingerprint", fp, "error", err)
	} else if cached != nil {
		return *cached, nil
	}

	v, err, _ := c.group.Do(fp, func() (any, error) {
		result, err := c.next.Run(ctx, prover, problem, timeoutS, memoryMB)
		if err != nil {
			return model.Result{}, err
		}
		result.Fingerprint = fp
		result.CachedAt = time.Now()
		if werr := c.store.PutResult(ctx, result); werr != nil {
			c.logger.Warn("cache write failed", "fingerprint", fp, "error", werr)
		}
		return result, nil
	})
	if err != nil {
		return model.Result{}, err
	}
	return v.(model.Result), nil
}
