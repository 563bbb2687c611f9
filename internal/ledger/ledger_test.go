package ledger

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/rewired-gh/mandipulse/internal/models"
	"github.com/rewired-gh/mandipulse/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := storage.New(10, storage.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	svc := NewService(s)
	svc.now = func() time.Time { return time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC) }
	return svc
}

func day(d int) time.Time { return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC) }

func seed(t *testing.T, svc *Service) {
	t.Helper()
	qty := 20.0
	inputs := []NewEntry{
		{Date: day(1), Type: models.EntryIncome, Category: "Crop Sale", Description: "Wheat sale", Amount: 45000, Quantity: &qty, Unit: "quintal"},
		{Date: day(2), Type: models.EntryExpense, Category: "Seeds", Description: "Wheat seeds", Amount: 8500.10},
		{Date: day(3), Type: models.EntryExpense, Category: "Fertilizer", Description: "Urea", Amount: 3200.20},
		{Date: day(4), Type: models.EntryIncome, Category: "Subsidy", Description: "PM-KISAN", Amount: 2000},
	}
	for _, in := range inputs {
		_, err := svc.Add(in)
		require.NoError(t, err)
	}
}

func TestCategoriesAndUnits(t *testing.T) {
	assert.Equal(t, []string{"Crop Sale", "Livestock Sale", "Subsidy", "Other Income"}, Categories(models.EntryIncome))
	assert.Len(t, Categories(models.EntryExpense), 8)
	assert.Empty(t, Categories("gift"))
	assert.Contains(t, Units(), "quintal")

	c := Categories(models.EntryIncome)
	c[0] = "mutated"
	assert.Equal(t, "Crop Sale", Categories(models.EntryIncome)[0])
}

func TestAdd(t *testing.T) {
	svc := newTestService(t)
	e, err := svc.Add(NewEntry{Type: models.EntryExpense, Category: " Labour ", Description: "Harvest crew", Amount: 1200.456})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "Labour", e.Category)
	assert.Equal(t, 1200.46, e.Amount)
	assert.Equal(t, day(10), e.Date)

	list, err := svc.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, e.ID, list[0].ID)
}

func TestAdd_Rejects(t *testing.T) {
	svc := newTestService(t)
	tests := []struct {
		name string
		in   NewEntry
	}{
		{"bad type", NewEntry{Type: "gift", Category: "Seeds", Description: "x", Amount: 1}},
		{"category of other type", NewEntry{Type: models.EntryIncome, Category: "Seeds", Description: "x", Amount: 1}},
		{"unknown category", NewEntry{Type: models.EntryExpense, Category: "Snacks", Description: "x", Amount: 1}},
		{"empty description", NewEntry{Type: models.EntryExpense, Category: "Seeds", Amount: 1}},
		{"zero amount", NewEntry{Type: models.EntryExpense, Category: "Seeds", Description: "x"}},
		{"unknown unit", NewEntry{Type: models.EntryExpense, Category: "Seeds", Description: "x", Amount: 1, Unit: "bushel"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(tt.in)
			assert.ErrorIs(t, err, ErrInvalidEntry)
		})
	}
	list, err := svc.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListNewestFirstAndDelete(t *testing.T) {
	svc := newTestService(t)
	seed(t, svc)

	list, err := svc.List()
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, "PM-KISAN", list[0].Description)
	assert.Equal(t, "Wheat sale", list[3].Description)

	require.NoError(t, svc.Delete(list[0].ID))
	err = svc.Delete(list[0].ID)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestSummary(t *testing.T) {
	svc := newTestService(t)
	seed(t, svc)

	sum, err := svc.Summary()
	require.NoError(t, err)
	assert.Equal(t, 47000.0, sum.TotalIncome)
	assert.Equal(t, 11700.3, sum.TotalExpense)
	assert.Equal(t, 35299.7, sum.NetProfit)
	assert.Equal(t, 4, sum.Entries)
	require.Len(t, sum.ByCategory, 4)
	assert.Equal(t, CategoryTotal{Type: models.EntryIncome, Category: "Crop Sale", Total: 45000, Count: 1}, sum.ByCategory[0])
	assert.Equal(t, "Subsidy", sum.ByCategory[1].Category)
	assert.Equal(t, "Seeds", sum.ByCategory[2].Category)
	assert.Equal(t, "Fertilizer", sum.ByCategory[3].Category)

	empty := Summarize(nil)
	assert.Zero(t, empty.NetProfit)
	assert.Empty(t, empty.ByCategory)
}

func TestExport(t *testing.T) {
	svc := newTestService(t)
	seed(t, svc)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(&buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{EntriesSheet, SummarySheet}, f.GetSheetList())

	rows, err := f.GetRows(EntriesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "Date", rows[0][0])
	require.GreaterOrEqual(t, len(rows[1]), 5)
	assert.Equal(t, []string{"2024-06-04", "income", "Subsidy", "PM-KISAN", "2000"}, rows[1][:5])
	require.Len(t, rows[4], 7)
	assert.Equal(t, "20", rows[4][5])
	assert.Equal(t, "quintal", rows[4][6])

	net, err := f.GetCellValue(SummarySheet, "B4")
	require.NoError(t, err)
	assert.Equal(t, "35299.7", net)
}
