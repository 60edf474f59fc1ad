package executor

import (
	"log/slog"
	"time"

	"github.com/wilke/gowe-arbiter/internal/store"
)

// New wires the full Executor stack: a Cache in front (so a
// hit never touches the semaphore), a Pool of width J in the middle, and a
// bare Spawner underneath.
func New(st store.Store, width int, ttl time.Duration, logger *slog.Logger) Executor {
	spawner := NewSpawner(logger)
	pool := NewPool(width, spawner)
	return NewCache(st, ttl, pool, logger)
}
