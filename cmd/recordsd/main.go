package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/ammar0144/recordsapi/pkg/api"
	"github.com/ammar0144/recordsapi/pkg/cache"
	"github.com/ammar0144/recordsapi/pkg/config"
	"github.com/ammar0144/recordsapi/pkg/db"
	"github.com/ammar0144/recordsapi/pkg/logging"
	"github.com/ammar0144/recordsapi/pkg/repository"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "recordsd",
		Short:         "Congregation records API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file (YAML)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "", "Log level override (debug, info, warn, error)")

	rootCmd.AddCommand(newServeCmd(), newCheckConfigCmd())
	return rootCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the records API",
		RunE:  runServe,
	}
}

func newCheckConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate the configuration and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration ok: listening on %s, database %s@%s:%d/%s, cache %s\n",
				cfg.Server.Address, cfg.Database.Username, cfg.Database.Host, cfg.Database.Port,
				cfg.Database.Database, cacheSummary(cfg.Cache))
			return nil
		},
	}
}

func cacheSummary(c cache.Config) string {
	if !c.Enabled {
		return "disabled"
	}
	return string(c.Backend)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	level, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get log-level flag: %w", err)
	}
	if level != "" {
		cfg.Logging.Level = level
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Logging)
	slog.SetDefault(logger)

	manager, err := db.NewManager(&cfg.Database, logger)
	if err != nil {
		return err
	}
	defer manager.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if sqlDB, err := manager.SqlDB(); err == nil {
		registry.MustRegister(collectors.NewDBStatsCollector(sqlDB, cfg.Database.Database))
	}

	deps := api.Deps{
		CacheTTL: cfg.Server.CacheTTL,
		Gatherer: registry,
		Health:   manager.Ping,
		Logger:   logger,
	}

	var inv repository.Invalidator
	if cfg.Cache.Enabled {
		rc, err := cache.NewFromConfig(&cfg.Cache, logger)
		if err != nil {
			return err
		}
		defer rc.Close()

		pingCtx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		if err := rc.Ping(pingCtx); err != nil {
			logger.Warn("response cache backend unreachable, reads will miss until it recovers", "error", err)
		}
		cancel()

		if cfg.Cache.EnableMetrics {
			registry.MustRegister(cache.NewCollector("recordsapi", rc.Metrics()))
		}
		if deps.CacheTTL <= 0 {
			deps.CacheTTL = cfg.Cache.DefaultTTL
		}
		deps.Cache = rc
		inv = rc
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.NewRouter(deps, api.Resources(manager, inv, logger)...),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting recordsd",
			"address", cfg.Server.Address,
			"cache", cacheSummary(cfg.Cache),
			"cache_ttl", deps.CacheTTL,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	logger.Info("Shutdown complete")
	return nil
}
