// Package executor runs one prover against one problem under a deadline,
// classifies the outcome, and caches it by content fingerprint. It is
// the Arbiter's sibling subsystem: the Orchestrator calls it once per
// (prover, problem) pair, optionally after acquiring cores from the
// Arbiter.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/wilke/gowe-arbiter/internal/logging"
	"github.com/wilke/gowe-arbiter/pkg/model"
)

// Executor is the public contract: run(prover, problem, timeout_s,
// memory_mb) -> Result. It blocks until the child has exited or been
// killed, and only returns an error for programmer or configuration
// mistakes (a problem with no path, a prover regex that does not compile);
// external-process failures are always encoded in the Result.
type Executor interface {
	Run(ctx context.Context, prover model.Prover, problem model.Problem, timeoutS, memoryMB int) (model.Result, error)
}

// Spawner is the ungated, uncached base implementation: one call, one
// child process. Pool and Cache wrap it to add bounded parallelism and
// result caching respectively, without either of them knowing how a
// process is actually run.
type Spawner struct {
	logger *slog.Logger

	mu       sync.Mutex
	matchers map[string]*matcher // prover fingerprint -> compiled regexes
}

// NewSpawner creates a Spawner. Compiled regex sets are cached per prover
// fingerprint so a high-concurrency batch doesn't recompile the same
// patterns on every run.
func NewSpawner(logger *slog.Logger) *Spawner {
	return &Spawner{
		logger:   logging.Component(logger, "executor"),
		matchers: make(map[string]*matcher),
	}
}

func (s *Spawner) matcherFor(prover model.Prover) (*matcher, error) {
	key := prover.Fingerprint()

	s.mu.Lock()
	m, ok := s.matchers[key]
	s.mu.Unlock()
	if ok {
		return m, nil
	}

	m, err := newMatcher(prover.SatRegex, prover.UnsatRegex, prover.UnknownRegex, prover.TimeoutRegex)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.matchers[key] = m
	s.mu.Unlock()
	return m, nil
}

// Run substitutes the command template, spawns the child, and classifies
// its outcome. See the package doc for the algorithm.
func (s *Spawner) Run(ctx context.Context, prover model.Prover, problem model.Problem, timeoutS, memoryMB int) (model.Result, error) {
	if problem.Path == "" {
		return model.Result{}, fmt.Errorf("executor: problem path is required")
	}

	m, err := s.matcherFor(prover)
	if err != nil {
		return model.Result{}, fmt.Errorf("executor: compile regex for prover %q: %w", prover.Name, err)
	}

	command := substituteCommand(prover.Command, problem.Path, timeoutS, memoryMB)
	outcome := spawn(ctx, command, timeoutS)
	class := classify(m, outcome)

	s.logger.Debug("run complete",
		"prover", prover.Name,
		"problem", problem.Path,
		"classification", class,
		"errcode", outcome.ErrCode,
		"timed_out", outcome.TimedOut,
	)

	return model.Result{
		Prover:         prover,
		Problem:        problem,
		Classification: class,
		ErrCode:        outcome.ErrCode,
		Stdout:         outcome.Stdout,
		Stderr:         outcome.Stderr,
		RealTime:       outcome.RealTime,
		UserTime:       outcome.UserTime,
		SysTime:        outcome.SysTime,
	}, nil
}
