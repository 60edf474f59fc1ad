package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStopAcceptingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop-accepting",
		Short: "Tell the arbiter to reject future Acquire requests",
		Long: `Flips the daemon's accepting flag to false. Existing holders are
unaffected; every subsequent Acquire from any client is answered Reject
until the daemon restarts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return fmt.Errorf("connect to arbiter: %w", err)
			}
			defer c.Close()
			return c.StopAccepting()
		},
	}
}
