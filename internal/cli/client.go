package cli

import (
	"time"

	"github.com/wilke/gowe-arbiter/internal/arbiter"
)

const dialTimeout = 5 * time.Second

// dial connects to the arbiter daemon on the configured port. It does not
// spawn one — only the batch runner, which already owns the whole-batch
// lifetime, does that (via orchestrator.acquireLock's EnsureRunning).
func dial() (*arbiter.Client, error) {
	return arbiter.Dial(flagPort, dialTimeout)
}
