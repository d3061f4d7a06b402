package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/civic-rag-backend/config"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:          "worker",
	Short:        "Offline tools for the civic RAG pipeline",
	SilenceUsage: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// loadConfig loads the environment configuration shared with the API.
// The embedding cache defaults to SQLite so the worker runs without Postgres.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	driver, _ := cmd.Flags().GetString("cache-driver")
	if cmd.Flags().Changed("cache-driver") || os.Getenv("EMBED_CACHE_DRIVER") == "" {
		os.Setenv("EMBED_CACHE_DRIVER", driver)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	debug, _ := cmd.Flags().GetBool("debug")
	logger.SetDebug(debug || cfg.DebugLogging())
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("cache-driver", "sqlite", "embedding cache driver (sqlite or postgres)")
}
