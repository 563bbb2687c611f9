package ledger

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/rewired-gh/mandipulse/internal/models"
)

const (
	EntriesSheet = "Entries"
	SummarySheet = "Summary"
	dateLayout   = "2006-01-02"
)

// Export writes the ledger as an XLSX workbook to w.
func (s *Service) Export(w io.Writer) error {
	entries, err := s.store.ListEntries()
	if err != nil {
		return err
	}
	return WriteXLSX(w, entries)
}

// WriteXLSX writes an entries sheet and a summary sheet.
func WriteXLSX(w io.Writer, entries []models.LedgerEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", EntriesSheet); err != nil {
		return fmt.Errorf("failed to name entries sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	header := []any{"Date", "Type", "Category", "Description", "Amount", "Quantity", "Unit"}
	if err := f.SetSheetRow(EntriesSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, e := range entries {
		var qty any
		if e.Quantity != nil {
			qty = *e.Quantity
		}
		row := []any{e.Date.Format(dateLayout), string(e.Type), e.Category, e.Description, e.Amount, qty, e.Unit}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(EntriesSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write entry %s: %w", e.ID, err)
		}
	}

	sum := Summarize(entries)
	rows := [][]any{
		{"Metric", "Value"},
		{"Total Income", sum.TotalIncome},
		{"Total Expense", sum.TotalExpense},
		{"Net Profit", sum.NetProfit},
		{"Entries", sum.Entries},
		{},
		{"Type", "Category", "Total", "Count"},
	}
	for _, c := range sum.ByCategory {
		rows = append(rows, []any{string(c.Type), c.Category, c.Total, c.Count})
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}

	for _, hr := range []struct {
		sheet string
		row   int
	}{{EntriesSheet, 1}, {SummarySheet, 1}, {SummarySheet, 7}} {
		if err := f.SetRowStyle(hr.sheet, hr.row, hr.row, bold); err != nil {
			return fmt.Errorf("failed to style header: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
