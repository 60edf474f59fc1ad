package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wilke/gowe-arbiter/internal/config"
	"github.com/wilke/gowe-arbiter/internal/executor"
	"github.com/wilke/gowe-arbiter/internal/orchestrator"
	"github.com/wilke/gowe-arbiter/internal/store"
	"github.com/wilke/gowe-arbiter/pkg/model"
)

func newRunCmd() *cobra.Command {
	var configPath, dbPath, meta, defaultExpect, daemonExe string
	var timeoutS, memoryMB, concurrency int
	var withLock bool

	cmd := &cobra.Command{
		Use:   "run <problem-path>...",
		Short: "Run a batch of provers against a set of problems and persist a snapshot",
		Long: `Resolves each problem path's expected outcome, runs the configured
provers against every problem under bounded parallelism, and records the
results as a snapshot. Exits 0 if every result matched its problem's
expectation, 1 if some disagreed, 2 on a configuration or argument error
.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return argError(fmt.Errorf("run: at least one problem path is required"))
			}

			cfg, err := config.LoadOrchestratorConfig(configPath)
			if err != nil {
				return argError(err)
			}
			if cmd.Flags().Changed("timeout") {
				cfg.TimeoutS = timeoutS
			}
			if cmd.Flags().Changed("memory") {
				cfg.MemoryMB = memoryMB
			}
			if cmd.Flags().Changed("concurrency") {
				cfg.Concurrency = concurrency
			}
			if cmd.Flags().Changed("with-lock") {
				cfg.WithLock = withLock
			}
			if cmd.Flags().Changed("default-expect") {
				cfg.DefaultExpect = defaultExpect
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = flagPort
			}
			if len(cfg.Provers) == 0 {
				return argError(fmt.Errorf("run: no provers configured (pass --config)"))
			}

			var defaultClass model.Classification
			if cfg.DefaultExpect != "" {
				parsed, ok := model.ParseClassification(cfg.DefaultExpect)
				if !ok {
					return argError(fmt.Errorf("run: invalid default-expect %q", cfg.DefaultExpect))
				}
				defaultClass = parsed
			}

			problems := orchestrator.ResolveProblems(args, defaultClass, logger)
			if len(problems) == 0 {
				return argError(fmt.Errorf("run: no resolvable problems among %v", args))
			}

			resolvedDB := dbPath
			if resolvedDB == "" {
				resolvedDB = cfg.DBPath
			}
			if resolvedDB == "" {
				resolvedDB = defaultDBPath()
			}
			if resolvedDB != ":memory:" {
				if err := os.MkdirAll(filepath.Dir(resolvedDB), 0o755); err != nil {
					return fmt.Errorf("create database directory: %w", err)
				}
			}

			st, err := store.NewSQLiteStore(resolvedDB, logger)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()
			if err := st.Migrate(context.Background()); err != nil {
				return fmt.Errorf("migrate store: %w", err)
			}

			exec := executor.New(st, cfg.Concurrency, cfg.CacheTTL, logger)
			orch := orchestrator.New(exec, st, logger)

			batchCfg := orchestrator.BatchConfig{
				Provers:     cfg.Provers,
				Problems:    problems,
				TimeoutS:    cfg.TimeoutS,
				MemoryMB:    cfg.MemoryMB,
				Concurrency: cfg.Concurrency,
				WithLock:    cfg.WithLock,
				Port:        cfg.Port,
				DaemonExe:   daemonExe,
				Meta:        meta,
				OnResult: func(r model.Result) {
					fmt.Fprintf(os.Stderr, "%-8s %-24s %s\n", r.Classification, r.Prover.Name, r.Problem.Path)
				},
			}

			snap, err := orch.RunBatch(cmd.Context(), batchCfg)
			if err != nil {
				return fmt.Errorf("run batch: %w", err)
			}

			fmt.Printf("snapshot %s: %d event(s)\n", snap.UUID, len(snap.Events))
			if n := orchestrator.Disagreements(snap); n > 0 {
				return disagreementError(n)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a TOML config file listing provers")
	cmd.Flags().StringVar(&dbPath, "db", "", "snapshot/cache database path (default ~/.gowe-arbiter/arbiter.db)")
	cmd.Flags().StringVar(&meta, "meta", "", "free-form note stored with the snapshot")
	cmd.Flags().StringVar(&defaultExpect, "default-expect", "", "expected result to assume when a problem has no expect: directive")
	cmd.Flags().StringVar(&daemonExe, "daemon-exe", "", "path to arbiterd, to spawn if --with-lock and nothing answers on --port")
	cmd.Flags().IntVar(&timeoutS, "timeout", 0, "per-run timeout in seconds")
	cmd.Flags().IntVar(&memoryMB, "memory", 0, "per-run memory limit in MB")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "bounded parallelism J")
	cmd.Flags().BoolVar(&withLock, "with-lock", false, "hold a core lock on the arbiter daemon for the whole batch")

	return cmd
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "arbiter.db"
	}
	return filepath.Join(home, ".gowe-arbiter", "arbiter.db")
}
