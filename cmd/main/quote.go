package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"stock-dashboard/src/logger"
	"stock-dashboard/src/models"

	"github.com/spf13/cobra"
)

var quoteCmd = &cobra.Command{
	Use:   "quote SYMBOL",
	Short: "Fetch one symbol from the provider and print its metrics",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuote,
}

// -----------------------------------------------------------------------------

func runQuote(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	symbol := strings.ToUpper(strings.TrimSpace(args[0]))

	provider, cache := setupProvider(ctx, cfg.MConfig, logger.NewLogger("quote"))
	if cache != nil {
		defer cache.Close()
	}

	q, err := provider.FetchQuote(ctx, symbol)
	if err != nil {
		return err
	}
	metrics, err := q.Metrics()
	if err != nil {
		return fmt.Errorf("quote for %s out of range: %w", symbol, err)
	}

	out, err := json.MarshalIndent(struct {
		Symbol  string               `json:"symbol"`
		Metrics models.MStockMetrics `json:"metrics"`
	}{symbol, metrics}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
