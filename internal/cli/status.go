package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the arbiter's running and waiting jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return fmt.Errorf("connect to arbiter: %w", err)
			}
			defer c.Close()

			ans, err := c.Status()
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}

			fmt.Printf("max_cores: %d\n\n", ans.MaxCores)

			tw := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
			fmt.Fprintln(tw, "RUNNING\tID\tCORES\tPRIORITY\tSTARTED")
			for _, j := range ans.Running {
				fmt.Fprintf(tw, "\t%d\t%d\t%d\t%s\n", j.ID, j.Job.Cores, j.Job.Priority, j.StartTime.Format(time.RFC3339))
			}
			fmt.Fprintln(tw, "WAITING\tID\tCORES\tPRIORITY")
			for _, j := range ans.Waiting {
				fmt.Fprintf(tw, "\t%d\t%d\t%d\n", j.ID, j.Job.Cores, j.Job.Priority)
			}
			return tw.Flush()
		},
	}
}
