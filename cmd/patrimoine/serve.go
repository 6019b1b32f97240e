package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mvillard/patrimoine/internal/app"
	"github.com/mvillard/patrimoine/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the aggregation server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, fromFile, err := loadConfig()
	if err != nil {
		return err
	}
	if !fromFile {
		log.Warn("no config file specified, using defaults")
	}

	log.Info("starting patrimoine server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Backend),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("building application: %w", err)
	}

	return a.Run(ctx)
}
