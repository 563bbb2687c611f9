package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/mandipulse/internal/ledger"
	"github.com/rewired-gh/mandipulse/internal/logger"
	"github.com/rewired-gh/mandipulse/internal/storage"
)

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and export the farm ledger",
	}
	cmd.AddCommand(ledgerSummaryCmd())
	cmd.AddCommand(ledgerExportCmd())
	return cmd
}

func openLedger() (*ledger.Service, func(), error) {
	if cfg.Storage.DBPath == "" || cfg.Storage.DBPath == storage.MemoryPath {
		return nil, nil, fmt.Errorf("storage.db_path must point to a database file")
	}
	store, err := storage.New(cfg.Storage.MaxHistoryPoints, cfg.Storage.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}
	closeFn := func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}
	return ledger.NewService(store), closeFn, nil
}

func ledgerSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print income, expense, and per-category totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := openLedger()
			if err != nil {
				return err
			}
			defer closeFn()

			sum, err := svc.Summary()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintf(w, "Entries\t%d\n", sum.Entries)
			fmt.Fprintf(w, "Income\t%.2f\n", sum.TotalIncome)
			fmt.Fprintf(w, "Expense\t%.2f\n", sum.TotalExpense)
			fmt.Fprintf(w, "Net\t%.2f\n\n", sum.NetProfit)
			for _, ct := range sum.ByCategory {
				fmt.Fprintf(w, "%s\t%s\t%.2f\t%d\n", ct.Type, ct.Category, ct.Total, ct.Count)
			}
			return nil
		},
	}
}

func ledgerExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the ledger to an XLSX workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := openLedger()
			if err != nil {
				return err
			}
			defer closeFn()

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			if err := svc.Export(f); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ledger written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "farm-tally.xlsx", "output file")
	return cmd
}
