package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/wilke/gowe-arbiter/internal/arbiter"
	"github.com/wilke/gowe-arbiter/internal/config"
	"github.com/wilke/gowe-arbiter/internal/logging"
	server "github.com/wilke/gowe-arbiter/internal/snapshotsrv"
	"github.com/wilke/gowe-arbiter/internal/store"
)

// configPathFromArgs scans args for --config/-config before the main flag
// set is declared, so a config file's values can serve as the defaults
// flags override — config stays an explicit value, flags just win over it
// when given.
func configPathFromArgs(args []string) string {
	for i, a := range args {
		switch {
		case a == "--config" || a == "-config":
			if i+1 < len(args) {
				return args[i+1]
			}
		case len(a) > 9 && a[:9] == "--config=":
			return a[9:]
		case len(a) > 8 && a[:8] == "-config=":
			return a[8:]
		}
	}
	return ""
}

func main() {
	cfg := config.DefaultDaemonConfig()
	if path := configPathFromArgs(os.Args[1:]); path != "" {
		fileCfg, err := config.LoadDaemonConfig(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(2)
		}
		cfg = fileCfg
	}

	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to a TOML config file")
	flag.IntVar(&cfg.Port, "port", cfg.Port, "Loopback TCP port to listen on")
	flag.IntVar(&cfg.MaxCores, "max-cores", cfg.MaxCores, "Core budget (sum of admitted jobs' cores)")
	flag.IntVar(&cfg.InboxSize, "inbox-size", cfg.InboxSize, "Scheduler inbox buffer size")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json)")
	flag.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "Address to serve the read-only snapshot API on (empty disables it)")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Snapshot/cache database path (default ~/.gowe-arbiter/arbiter.db), only used when --http-addr is set")
	debug := flag.Bool("debug", false, "Shorthand for --log-level=debug")
	flag.Parse()

	if *debug {
		cfg.LogLevel = "debug"
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	daemon, err := arbiter.Listen(cfg.Port, cfg.MaxCores, cfg.InboxSize, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "listen: %v\n", err)
		os.Exit(1)
	}
	logger.Info("arbiterd listening", "addr", daemon.Addr(), "max_cores", cfg.MaxCores)

	var httpServer *http.Server
	if cfg.HTTPAddr != "" {
		dbPath := cfg.DBPath
		if dbPath == "" {
			dbPath = defaultDBPath()
		}
		st, err := store.NewSQLiteStore(dbPath, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open database: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()
		if err := st.Migrate(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "migrate database: %v\n", err)
			os.Exit(1)
		}

		srv := server.New(st, logger)
		httpServer = &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Handler()}
		go func() {
			logger.Info("snapshot API listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("snapshot API failed", "error", err)
			}
		}()
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- daemon.Serve(ctx) }()

	select {
	case <-ctx.Done():
		logger.Info("arbiterd shutting down")
		<-serveErr
	case err := <-serveErr:
		if err != nil {
			logger.Error("arbiterd exited", "error", err)
		} else {
			logger.Info("arbiterd auto-shutdown: no clients, no jobs")
		}
	}

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("snapshot API shutdown error", "error", err)
		}
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "arbiter.db"
	}
	return filepath.Join(home, ".gowe-arbiter", "arbiter.db")
}
