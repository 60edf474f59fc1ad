package executor

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/wilke/gowe-arbiter/pkg/model"
)

// Pool gates an inner Executor behind a process-wide semaphore of width J
//. It is the Executor's sole concurrency
// primitive; everything else is inherited from the caller, i.e. the
// Orchestrator's own fan-out.
type Pool struct {
	sem  *semaphore.Weighted
	next Executor
}

// NewPool creates a Pool with width J (default 1 if J <= 0, ).
func NewPool(width int, next Executor) *Pool {
	if width <= 0 {
		width = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(width)), next: next}
}

// Run acquires a slot, runs the wrapped Executor, and releases the slot
// when the child exits, whether or not it succeeded.
func (p *Pool) Run(ctx context.Context, prover model.Prover, problem model.Problem, timeoutS, memoryMB int) (model.Result, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return model.Result{}, err
	}
	defer p.sem.Release(1)
	return p.next.Run(ctx, prover, problem, timeoutS, memoryMB)
}
