package main

import (
	"fmt"

	"stock-dashboard/src/config"
	"stock-dashboard/src/logger"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "stockdash",
	Short: "Stock dashboard: tracked symbols with valuation metrics",
	Long: `Stock dashboard

Commands:
    serve       HTTP dashboard, websocket updates and gRPC health
    quote       fetch and print metrics for one symbol
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to YAML config file (defaults only when empty)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(quoteCmd)
}

// initConfig loads the config and configures logging for every command.
func initConfig() error {
	c, err := config.NewConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if err := logger.Setup(c.MConfig); err != nil {
		return fmt.Errorf("error configuring logger: %w", err)
	}
	cfg = c
	return nil
}
