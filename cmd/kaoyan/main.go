package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jwy87/kaoyan/internal/config"
	kaoyanlog "github.com/jwy87/kaoyan/internal/log"
)

var (
	// Global flags
	configPath string
	logLevel   string
	logFormat  string

	// Resolved in PersistentPreRunE
	cfg    config.Config
	logger *zerolog.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "kaoyan",
	Short: "Kaoyan blessing wall server and client",
	Long: `kaoyan serves the blessing wall API and drives a terminal wall client.

Configuration is read from config.yaml, .env and the environment
(DATABASE_URL, OPENAI_API_KEY, OPENAI_BASE_URL, OPENAI_MODEL, REDIS_ADDR).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}

		loaded, _, err := config.Load(nil, configPath)
		if err != nil {
			return err
		}
		loaded.UpdateFrom(config.Config{LogLevel: logLevel, LogFormat: logFormat})
		cfg = loaded

		logger = kaoyanlog.New(cfg.LogLevel, cfg.LogFormat)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (console, json)")

	rootCmd.AddCommand(serveCmd, wallCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
