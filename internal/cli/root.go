package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/wilke/gowe-arbiter/internal/logging"
	"github.com/wilke/gowe-arbiter/pkg/model"
)

var (
	flagPort      int
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
)

// NewRootCmd builds arbiterctl's command tree: an arbiter client (status,
// acquire, stop-accepting) plus the batch runner (run) that drives the
// orchestrator directly, without going through the daemon for anything
// but the optional whole-batch core lock.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "arbiterctl",
		Short: "Talk to a gowe-arbiter daemon and run prover batches",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewLogger(logging.ParseLevel(flagLogLevel), flagLogFormat)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().IntVar(&flagPort, "port", model.DefaultPort, "arbiter daemon port")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newStatusCmd(),
		newAcquireCmd(),
		newStopAcceptingCmd(),
		newRunCmd(),
	)

	return root
}
