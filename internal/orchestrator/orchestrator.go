// Package orchestrator is the batch-running glue: it resolves a
// directory of problems to their expected outcomes, runs the cross product
// of provers × problems through an Executor with bounded parallelism,
// optionally holding a core lock on the Arbiter for the whole batch, and
// persists the results as a Snapshot.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/wilke/gowe-arbiter/internal/arbiter"
	"github.com/wilke/gowe-arbiter/internal/executor"
	"github.com/wilke/gowe-arbiter/internal/logging"
	"github.com/wilke/gowe-arbiter/internal/store"
	"github.com/wilke/gowe-arbiter/pkg/model"
)

// BatchConfig describes one orchestrator run (the parameter list).
type BatchConfig struct {
	Provers  []model.Prover
	Problems []model.Problem
	TimeoutS int
	MemoryMB int

	// Concurrency is J: both the cores requested from the Arbiter under
	// WithLock, and the cap on how many (prover, problem) pairs this batch
	// itself runs at once. It is independent of the Executor's own Pool
	// width, which may be shared across multiple orchestrators or set
	// differently; the batch never fans out past its own J regardless.
	Concurrency int

	WithLock  bool
	Port      int
	DaemonExe string // path to arbiterd, used to spawn it if WithLock and nothing answers

	Meta string

	// OnResult is called once per completed Result, in completion order,
	// for progress reporting. It must not block.
	OnResult func(model.Result)
}

// Orchestrator runs batches against a shared Executor and Store.
type Orchestrator struct {
	exec   executor.Executor
	store  store.Store
	logger *slog.Logger
}

// New creates an Orchestrator. exec is expected to already be the full
// cache+pool+spawner stack from executor.New.
func New(exec executor.Executor, st store.Store, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{exec: exec, store: st, logger: logging.Component(logger, "orchestrator")}
}

// RunBatch executes cfg's cross product and returns the resulting Snapshot,
// already persisted to the store. Individual (prover, problem) failures
// never abort the batch — they surface as Error-classified Results instead.
func (o *Orchestrator) RunBatch(ctx context.Context, cfg BatchConfig) (model.Snapshot, error) {
	if cfg.WithLock {
		release, err := o.acquireLock(cfg)
		if err != nil {
			return model.Snapshot{}, fmt.Errorf("orchestrator: acquire arbiter lock: %w", err)
		}
		defer release()
	}

	width := cfg.Concurrency
	if width <= 0 {
		width = 1
	}
	sem := semaphore.NewWeighted(int64(width))

	g, gctx := errgroup.WithContext(ctx)
	events := make([]model.Event, len(cfg.Provers)*len(cfg.Problems))
	idx := 0
	for _, prover := range cfg.Provers {
		for _, problem := range cfg.Problems {
			prover, problem, slot := prover, problem, idx
			idx++
			g.Go(func() error {
				if err := sem.Acquire(gctx, 1); err != nil {
					return err
				}
				defer sem.Release(1)

				result, err := o.exec.Run(gctx, prover, problem, cfg.TimeoutS, cfg.MemoryMB)
				if err != nil {
					// Only programmer errors (nil/empty arguments) reach
					// here; everything else is an Error Result.
					return fmt.Errorf("run %s/%s: %w", prover.Name, problem.Path, err)
				}
				if cfg.OnResult != nil {
					cfg.OnResult(result)
				}
				events[slot] = model.EventFromResult(result)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return model.Snapshot{}, err
	}

	snap := model.NewSnapshot(uuid.New().String(), time.Now(), cfg.Meta, events)
	if err := o.store.CreateSnapshot(ctx, snap); err != nil {
		return snap, fmt.Errorf("orchestrator: persist snapshot: %w", err)
	}
	o.logger.Info("batch complete", "uuid", snap.UUID, "events", len(snap.Events))
	return snap, nil
}

// acquireLock dials (spawning the daemon if needed) the Arbiter on cfg.Port
// and acquires cfg.Concurrency cores for the whole batch. The
// returned func releases the lock and disconnects; it is always safe to
// call exactly once.
func (o *Orchestrator) acquireLock(cfg BatchConfig) (func(), error) {
	if cfg.DaemonExe != "" {
		if err := arbiter.EnsureRunning(cfg.Port, cfg.DaemonExe, nil, 10*time.Second); err != nil {
			return nil, err
		}
	}
	client, err := arbiter.Dial(cfg.Port, 5*time.Second)
	if err != nil {
		return nil, err
	}

	granted, err := client.Acquire(model.JobRequest{
		Cores:     cfg.Concurrency,
		Priority:  0,
		Info:      cfg.Meta,
		QueryTime: float64(time.Now().UnixNano()) / 1e9,
	})
	if err != nil {
		client.Close()
		return nil, err
	}
	if !granted {
		client.Close()
		return nil, fmt.Errorf("arbiter rejected acquire (not accepting)")
	}

	return func() {
		_ = client.Release()
		_ = client.Close()
	}, nil
}

// Disagreements reports how many events in snap classified differently
// than their problem's expected result, for the CLI's exit-code decision
//.
func Disagreements(snap model.Snapshot) int {
	n := 0
	for _, ev := range snap.Events {
		if ev.Problem.Expected != "" && ev.Res != ev.Problem.Expected {
			n++
		}
	}
	return n
}
