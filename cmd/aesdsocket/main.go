// Command aesdsocket runs the TCP append-and-echo server: accept
// connections, frame inbound bytes on newline boundaries, append each
// completed record to a shared store, and reply with the store's full
// contents before closing. See internal/acceptor, internal/conn, and
// internal/pool for the pieces wired together here.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"

	"aesdsocket/internal/acceptor"
	"aesdsocket/internal/applog"
	"aesdsocket/internal/config"
	"aesdsocket/internal/conn"
	"aesdsocket/internal/daemon"
	"aesdsocket/internal/lifecycle"
	"aesdsocket/internal/pool"
	"aesdsocket/internal/store"
	"aesdsocket/internal/telemetry"
	"aesdsocket/internal/ticker"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "aesdsocket: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Default()
	var configPath string

	cmd := &cobra.Command{
		Use:   "aesdsocket",
		Short: "TCP append-and-echo server",
		Long: `aesdsocket accepts TCP connections, appends each newline-terminated
record it receives to a shared store, and replies with the store's
full contents before closing the connection. A background ticker
appends a timestamp record every interval while at least one
connection is live.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				if err := cfg.ApplyYAML(configPath); err != nil {
					return err
				}
				rebindChangedFlags(cmd, &cfg)
			}
			return run(cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.Host, "host", cfg.Host, "listen host")
	flags.IntVar(&cfg.Port, "port", cfg.Port, "listen port")
	flags.StringVar(&cfg.StorePath, "store-path", cfg.StorePath, "append store file path")
	flags.BoolVarP(&cfg.Daemonize, "daemon", "d", cfg.Daemonize, "daemonize before listening")
	flags.DurationVar(&cfg.TickerInterval, "ticker-interval", cfg.TickerInterval, "timestamp ticker interval")
	flags.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "address to serve Prometheus metrics on (empty disables)")
	flags.BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable debug logging")
	flags.BoolVar(&cfg.JSONLogs, "json-logs", cfg.JSONLogs, "emit logs as JSON")
	flags.StringVar(&configPath, "config", "", "optional YAML config file overlaying defaults")

	return cmd
}

// rebindChangedFlags re-applies any flag the user explicitly passed on
// the command line after a --config overlay, so an explicit flag
// always wins over the file.
func rebindChangedFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("store-path") {
		cfg.StorePath, _ = flags.GetString("store-path")
	}
	if flags.Changed("daemon") {
		cfg.Daemonize, _ = flags.GetBool("daemon")
	}
	if flags.Changed("ticker-interval") {
		cfg.TickerInterval, _ = flags.GetDuration("ticker-interval")
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr, _ = flags.GetString("metrics-addr")
	}
	if flags.Changed("debug") {
		cfg.Debug, _ = flags.GetBool("debug")
	}
	if flags.Changed("json-logs") {
		cfg.JSONLogs, _ = flags.GetBool("json-logs")
	}
}

func run(cfg config.Config) error {
	// Daemonizing re-execs a fresh process (see internal/daemon), so it
	// must happen before we bind anything in this process — the
	// original design binds first and daemonizes second because a
	// plain fork() shares the parent's file descriptors; a re-exec does
	// not, so the order is necessarily flipped here.
	if cfg.Daemonize {
		if err := daemon.Daemonize(); err != nil {
			return fmt.Errorf("daemonize: %w", err)
		}
	}

	applog.Init(applog.Config{Debug: cfg.Debug, JSON: cfg.JSONLogs})
	logger := applog.WithComponent("main")

	runFlag := lifecycle.NewRunFlag()
	stopSignals := lifecycle.InstallSignalHandler(runFlag, logger)
	defer stopSignals()

	var metrics *telemetry.Metrics
	var metricsCancel context.CancelFunc
	if cfg.MetricsAddr != "" {
		metrics = telemetry.New()
		var metricsCtx context.Context
		metricsCtx, metricsCancel = context.WithCancel(context.Background())
		go func() {
			if err := metrics.Serve(metricsCtx, cfg.MetricsAddr); err != nil {
				logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
		defer metricsCancel()
	}

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
	}

	fileLock := &sync.Mutex{}
	st := store.New(cfg.StorePath)
	p := pool.New(logger, metrics)

	handler := &conn.Handler{
		Store:    st,
		FileLock: fileLock,
		Run:      runFlag,
		Metrics:  metrics,
		Log:      applog.WithComponent("conn"),
	}
	acc := &acceptor.Acceptor{
		Listener: ln,
		Pool:     p,
		Handler:  handler,
		RunFlag:  runFlag,
		Metrics:  metrics,
		Log:      applog.WithComponent("acceptor"),
	}
	tk := &ticker.Ticker{
		Pool:     p,
		Store:    st,
		FileLock: fileLock,
		RunFlag:  runFlag,
		Interval: cfg.TickerInterval,
		Metrics:  metrics,
		Log:      applog.WithComponent("ticker"),
	}

	p.Dispatch(tk.Run)

	// Unblock the in-flight Accept call the moment the run flag clears,
	// since Accept has no other way to observe it.
	go func() {
		<-runFlag.Done()
		_ = ln.Close()
	}()

	logger.Info().Str("addr", cfg.Addr()).Msg("aesdsocket listening")
	acc.Run()

	p.Shutdown()

	if err := st.Delete(); err != nil {
		logger.Error().Err(err).Msg("store delete failed at shutdown")
	}

	logger.Info().Msg("shutdown complete")
	return nil
}
