package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/wilke/gowe-arbiter/pkg/model"
)

func newAcquireCmd() *cobra.Command {
	var cores, priority int
	var tag, info string

	cmd := &cobra.Command{
		Use:   "acquire -- <command> [args...]",
		Short: "Hold cores on the arbiter while a command runs",
		Long: `Acquires cores on the arbiter daemon, runs the given command to
completion holding that grant, then releases. The wrapped command's exit
code is propagated; acquiring itself fails loudly if the arbiter rejects
the request (not accepting).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return fmt.Errorf("connect to arbiter: %w", err)
			}
			defer c.Close()

			granted, err := c.Acquire(model.JobRequest{
				Cores:     cores,
				Priority:  priority,
				PID:       os.Getpid(),
				Tag:       tag,
				Info:      info,
				QueryTime: float64(time.Now().UnixNano()) / 1e9,
			})
			if err != nil {
				return fmt.Errorf("acquire: %w", err)
			}
			if !granted {
				return fmt.Errorf("acquire rejected: arbiter is not accepting")
			}
			defer c.Release()

			child := exec.Command(args[0], args[1:]...)
			child.Stdin, child.Stdout, child.Stderr = os.Stdin, os.Stdout, os.Stderr
			if err := child.Run(); err != nil {
				var exitErr *exec.ExitError
				if errors.As(err, &exitErr) {
					os.Exit(exitErr.ExitCode())
				}
				return fmt.Errorf("run command: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&cores, "cores", 0, "cores requested (0 = exclusive, all cores)")
	cmd.Flags().IntVar(&priority, "priority", 0, "request priority")
	cmd.Flags().StringVar(&tag, "tag", "", "free-form job tag")
	cmd.Flags().StringVar(&info, "info", "", "free-form job description")
	return cmd
}
