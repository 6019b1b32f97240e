package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvillard/patrimoine/internal/app"
	"github.com/mvillard/patrimoine/internal/core"
	"github.com/mvillard/patrimoine/internal/logger"
)

var updateCmd = &cobra.Command{
	Use:   "update [assetId...]",
	Short: "Refresh asset prices once and exit",
	Long: `Refresh prices for the given asset IDs, or for every trackable
asset when no ID is given.`,
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("building application: %w", err)
	}

	service := a.Service()
	var report *core.BatchReport
	if len(args) == 0 {
		report, err = service.UpdateAll(ctx)
	} else {
		report, err = service.UpdateMany(ctx, args)
	}
	if err != nil {
		return err
	}

	fmt.Printf("updated: %d succeeded, %d failed\n", report.Success, report.Failed)
	for _, d := range report.Details {
		if d.Success {
			fmt.Printf("  %s: %.2f\n", d.AssetID, d.Price)
		} else {
			fmt.Printf("  %s: FAILED (%s)\n", d.AssetID, d.Error)
		}
	}
	return nil
}
