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

var searchType string

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search assets across providers",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchType, "type", "t", "", "restrict to an asset type (e.g. STOCK, CRYPTO)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("building application: %w", err)
	}

	results, err := a.Service().Search(ctx, args[0], core.AssetType(searchType))
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("no matches")
		return nil
	}
	for _, r := range results {
		fmt.Printf("%-12s %-40s %-10s %s\n", r.Symbol, r.Name, r.Type, r.Provider)
	}
	return nil
}
