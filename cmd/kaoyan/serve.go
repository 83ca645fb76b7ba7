package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwy87/kaoyan/internal/app"
	"github.com/jwy87/kaoyan/internal/config"
)

var serveFlags config.Config

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the blessing wall HTTP API",
	Long: `Serves /api/blessings, /api/generateBlessing, /api/health and /metrics.

Without DATABASE_URL blessings are accepted but not stored. Without all of
OPENAI_API_KEY, OPENAI_BASE_URL and OPENAI_MODEL generation returns
fallback blessings.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.Addr, "addr", "", "HTTP listen address")
	serveCmd.Flags().DurationVar(&serveFlags.ReadHeaderTimeout, "read-header-timeout", 0, "HTTP read header timeout")
	serveCmd.Flags().DurationVar(&serveFlags.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
	serveCmd.Flags().StringVar(&serveFlags.DatabaseURL, "database-url", "", "database URL (sqlite path or mysql:// URL)")
	serveCmd.Flags().StringVar(&serveFlags.DatabaseDriver, "database-driver", "", "database driver override (sqlite, mysql)")
	serveCmd.Flags().StringVar(&serveFlags.Redis.Addr, "redis-addr", "", "redis address for the blessing cache")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg.UpdateFrom(serveFlags)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}

	start := time.Now()
	logger.Info().Str("addr", cfg.Addr).Msg("starting kaoyan server")
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Dur("uptime", time.Since(start)).Msg("server stopped")
	return nil
}
