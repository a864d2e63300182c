package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"mercator-hq/chaos/pkg/agent"
	"mercator-hq/chaos/pkg/cli"
	"mercator-hq/chaos/pkg/config"
	"mercator-hq/chaos/pkg/journal"
	"mercator-hq/chaos/pkg/server"
	"mercator-hq/chaos/pkg/telemetry/health"
	"mercator-hq/chaos/pkg/telemetry/logging"
	"mercator-hq/chaos/pkg/telemetry/metrics"
)

// healthCheckTimeout bounds each readiness component check.
const healthCheckTimeout = 2 * time.Second

var runFlags struct {
	listenAddress string
	upstream      string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the chaos agent",
	Long: `Start the chaos agent with the specified configuration.

The agent serves the decision API, admin and health endpoints and, when an
upstream is configured, proxies all other traffic through the experiments.
CHAOS_* environment variables override the file.

On SIGINT or SIGTERM the agent drains (stops injecting faults) before the
HTTP server shuts down gracefully.

Examples:
  # Start with default config (chaos.yaml)
  chaos-agent run

  # Start with custom config
  chaos-agent run --config /etc/chaos/chaos.yaml

  # Proxy to a local service, computing but not applying faults
  chaos-agent run --upstream http://127.0.0.1:9000 --dry-run`,
	Args: cobra.NoArgs,
	RunE: runAgent,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.upstream, "upstream", "", "override upstream URL (enables reverse-proxy mode)")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "compute fault decisions without applying them")
}

func runAgent(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	slog.SetDefault(logger)

	logger.Info("starting chaos agent",
		"version", Version,
		"config", cfgFile,
		"experiments", len(cfg.Experiments),
		"dry_run", cfg.Settings.DryRun,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	agentOpts := []agent.Option{agent.WithLogger(logger)}

	var storage journal.Storage
	if cfg.Journal.Enabled {
		storage, err = journal.Open(cfg.Journal, logger)
		if err != nil {
			return cli.NewCommandError("run", fmt.Errorf("failed to open journal: %w", err))
		}
		defer func() {
			if err := storage.Close(); err != nil {
				logger.Error("failed to close journal storage", "error", err)
			}
		}()

		recorder := journal.NewRecorder(storage, journal.RecorderConfig{Buffer: cfg.Journal.Buffer}, logger)
		defer func() {
			if err := recorder.Close(); err != nil {
				logger.Error("failed to flush journal", "error", err)
			}
			logger.Info("journal closed",
				"written", recorder.Written(),
				"dropped", recorder.Dropped(),
			)
		}()
		agentOpts = append(agentOpts, agent.WithJournal(recorder))

		pruner := journal.NewPruner(storage, journal.PrunerConfig{
			RetentionDays: cfg.Journal.Retention.Days,
			Schedule:      cfg.Journal.Retention.PruneSchedule,
		}, logger)
		if err := pruner.Start(ctx); err != nil {
			logger.Warn("failed to start journal pruning", "error", err)
		} else {
			defer pruner.Stop()
			if next := pruner.NextRun(); next != nil {
				logger.Debug("journal pruning scheduled", "next_run", next)
			}
		}
	}

	a := agent.New(cfg, agentOpts...)

	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Telemetry.Metrics, prometheus.NewRegistry(), a)
	}

	checker := health.New(a, healthCheckTimeout)
	if storage != nil {
		checker.RegisterCheck("journal", func(ctx context.Context) error {
			_, err := storage.Count(ctx, &journal.Filter{})
			return err
		})
	}

	srv, err := server.New(cfg, server.Options{
		Agent:     a,
		Checker:   checker,
		Metrics:   collector,
		Journal:   storage,
		Logger:    logger,
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildDate,
	})
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	graceMs := uint64(cfg.Server.ShutdownTimeout.Milliseconds())
	sigCtx := cli.SetupSignalHandler(func(sig os.Signal) {
		logger.Info("received shutdown signal", "signal", sig.String())
		a.Shutdown(sig.String(), graceMs)
	})
	go func() {
		<-sigCtx.Done()
		cancel()
	}()

	if watcher, err := config.NewWatcher(cfgFile, logger); err != nil {
		logger.Warn("configuration file will not be watched", "error", err)
	} else {
		go func() {
			if err := watcher.Watch(ctx, nil); err != nil {
				logger.Warn("configuration watcher stopped", "error", err)
			}
		}()
	}

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	snap := a.Snapshot()
	logger.Info("chaos agent stopped",
		"total_requests", snap.TotalRequests,
		"faults_injected", snap.FaultsInjected,
	)
	return nil
}

// loadRunConfig loads the file with environment overrides, then applies
// flag overrides and validates the result again.
func loadRunConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, err
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.upstream != "" {
		cfg.Server.Upstream = runFlags.upstream
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if cmd.Flags().Changed("dry-run") {
		cfg.Settings.DryRun = runFlags.dryRun
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration invalid after flag overrides: %w", err)
	}
	return cfg, nil
}
