package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/R3E-Network/exercise_tracker/internal/app/runtime"
	"github.com/R3E-Network/exercise_tracker/internal/config"
	"github.com/R3E-Network/exercise_tracker/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "exerciselog",
		Short:        "Exercise tracker API",
		Long:         "Registers users, records their exercises and answers filtered log queries over HTTP.",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "path to a YAML config file (overrides "+config.FileEnv+")")

	serveCmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the HTTP API until interrupted",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if port, _ := cmd.Flags().GetInt("port"); port > 0 {
				cfg.Server.Port = port
			}
			if backend, _ := cmd.Flags().GetString("storage"); backend != "" {
				cfg.Storage.Backend = backend
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			return serve(cmd.Context(), cfg)
		},
	}
	serveCmd.Flags().Int("port", 0, "listen port (overrides PORT)")
	serveCmd.Flags().String("storage", "", "storage backend: memory, postgres or mongo")
	rootCmd.AddCommand(serveCmd)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the postgres schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if dsn, _ := cmd.Flags().GetString("dsn"); dsn != "" {
				cfg.Database.DSN = dsn
			}
			log := logger.NewDefault("migrate")
			if err := runtime.Migrate(cmd.Context(), cfg); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info("schema up to date")
			return nil
		},
	}
	migrateCmd.Flags().String("dsn", "", "postgres DSN (overrides DATABASE_URL)")
	rootCmd.AddCommand(migrateCmd)

	return rootCmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if err := os.Setenv(config.FileEnv, path); err != nil {
			return nil, err
		}
	}
	return config.Load()
}

func serve(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := runtime.NewApplication(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialise application: %w", err)
	}

	runErr := application.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return runErr
}
