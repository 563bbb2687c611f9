package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/mandipulse/internal/config"
	"github.com/rewired-gh/mandipulse/internal/logger"
)

var (
	cfgFile string
	version = "dev"
	cfg     *config.Config

	rootCmd = &cobra.Command{
		Use:   "mandipulse",
		Short: "Live agricultural mandi prices, alerts, and a farm ledger",
		Long: `mandipulse serves commodity prices across Indian states, either simulated
or fetched from public market feeds, together with price alerts, market
analytics, and a small income/expense ledger.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (defaults and MANDIPULSE_* environment only when empty)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(snapshotCmd())
	rootCmd.AddCommand(ledgerCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logger.Sync()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg = loaded

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	if cfgFile != "" {
		logger.Debug("Configuration loaded from %s", cfgFile)
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mandipulse %s\n", version)
		},
	}
}
