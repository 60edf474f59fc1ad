// Package store is the persistence layer shared by the Executor's result
// cache and the Orchestrator's snapshot archive.
package store

import (
	"context"
	"time"

	"github.com/wilke/gowe-arbiter/pkg/model"
)

// Store defines the persistence surface the rest of the repository depends
// on. A single SQLite-backed implementation satisfies both halves; tests
// use an in-memory (":memory:") database rather than a fake.
type Store interface {
	// Result cache.
	GetResult(ctx context.Context, fingerprint string, ttl time.Duration) (*model.Result, error)
	PutResult(ctx context.Context, result model.Result) error

	// Snapshots.
	CreateSnapshot(ctx context.Context, snap model.Snapshot) error
	GetSnapshot(ctx context.Context, uuid string) (*model.Snapshot, error)
	ListSnapshots(ctx context.Context, limit int) ([]model.Snapshot, error)

	Migrate(ctx context.Context) error
	Close() error
}
