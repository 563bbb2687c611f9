package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/mandipulse/internal/analytics"
	"github.com/rewired-gh/mandipulse/internal/sources"
)

func snapshotCmd() *cobra.Command {
	var withStats bool
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print one Dataset as JSON",
		Long: `Produces the initial Dataset of a session (synthetic, or external with
synthetic fallback according to market.mode) and prints it to stdout.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			clientCfg := sources.ClientConfig{Timeout: cfg.Sources.Timeout, MaxRetries: cfg.Sources.MaxRetries}
			facade := newFacade(cfg, clientCfg)
			d := facade.Initialize(cmd.Context())

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if !withStats {
				return enc.Encode(d)
			}
			return enc.Encode(map[string]any{
				"commodities":  d,
				"stats":        analytics.MarketStats(d),
				"intelligence": analytics.Analyze(d),
				"status":       facade.Status(),
			})
		},
	}
	cmd.Flags().BoolVar(&withStats, "stats", false, "include stats, intelligence, and feed status")
	return cmd
}
