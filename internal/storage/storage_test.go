package storage

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rewired-gh/mandipulse/internal/models"
)

func newTestStorage(t *testing.T, maxHistory int) *Storage {
	t.Helper()
	s, err := New(maxHistory, MemoryPath)
	if err != nil {
		t.Fatalf("failed to create test storage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testDataset(prices ...float64) models.Dataset {
	d := make(models.Dataset, len(prices))
	for i, p := range prices {
		d[i] = models.PricedRecord{ID: fmt.Sprintf("rec-%d", i), Name: "Rice", CurrentPrice: p, Volume: 100 + i}
	}
	return d
}

func testAlert(id, commodityID string, created time.Time) *models.PriceAlert {
	return &models.PriceAlert{
		ID:          id,
		CommodityID: commodityID,
		Type:        models.AlertAbove,
		TargetPrice: 3000,
		IsActive:    true,
		CreatedAt:   created,
	}
}

func TestStorage_NewFileDatabase(t *testing.T) {
	path := t.TempDir() + "/nested/data.db"
	s, err := New(10, path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()
	if err := s.Watch("rice-punjab", time.Now()); err != nil {
		t.Fatalf("Watch: %v", err)
	}
}

func TestStorage_NewFailsOnDirectory(t *testing.T) {
	dir := t.TempDir()
	if s, err := New(10, dir); err == nil {
		_ = s.Close()
		t.Fatal("expected an error opening a directory as a database")
	}
	// The directory is left untouched and can be reused for a real database.
	s, err := New(10, dir+"/data.db")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_ = s.Close()
}

func TestStorage_RecordPricesAndHistory(t *testing.T) {
	s := newTestStorage(t, 100)
	base := time.Now()
	for i := 0; i < 3; i++ {
		if err := s.RecordPrices(testDataset(100+float64(i), 200), base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("RecordPrices: %v", err)
		}
	}

	points, err := s.History("rec-0", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("got %d points, want 3", len(points))
	}
	for i, p := range points {
		if want := 100 + float64(i); p.Price != want {
			t.Errorf("point %d: got price %v, want %v (oldest first)", i, p.Price, want)
		}
		if p.RecordID != "rec-0" || p.Volume != 100 {
			t.Errorf("point %d: unexpected %+v", i, p)
		}
	}

	latest, err := s.History("rec-0", 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(latest) != 2 || latest[0].Price != 101 || latest[1].Price != 102 {
		t.Errorf("limited history = %+v, want the two newest, oldest first", latest)
	}

	none, err := s.History("missing", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("got %d points for unknown record", len(none))
	}
}

func TestStorage_HistoryIsCappedPerRecord(t *testing.T) {
	s := newTestStorage(t, 5)
	base := time.Now()
	for i := 0; i < 12; i++ {
		if err := s.RecordPrices(testDataset(float64(i+1), float64(i+1)), base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("RecordPrices: %v", err)
		}
	}
	for _, id := range []string{"rec-0", "rec-1"} {
		points, err := s.History(id, 0)
		if err != nil {
			t.Fatalf("History: %v", err)
		}
		if len(points) != 5 {
			t.Fatalf("%s: got %d points, want 5", id, len(points))
		}
		if points[0].Price != 8 || points[4].Price != 12 {
			t.Errorf("%s: kept %v..%v, want 8..12", id, points[0].Price, points[4].Price)
		}
	}
}

func TestStorage_Alerts(t *testing.T) {
	s := newTestStorage(t, 10)
	now := time.Now()

	if err := s.AddAlert(testAlert("a1", "rice-punjab", now)); err != nil {
		t.Fatalf("AddAlert: %v", err)
	}
	if err := s.AddAlert(testAlert("a2", "wheat-bihar", now.Add(time.Second))); err != nil {
		t.Fatalf("AddAlert: %v", err)
	}

	got, err := s.GetAlert("a1")
	if err != nil {
		t.Fatalf("GetAlert: %v", err)
	}
	if got.CommodityID != "rice-punjab" || got.Type != models.AlertAbove || !got.IsActive {
		t.Errorf("unexpected alert %+v", got)
	}
	if !got.CreatedAt.Equal(time.Unix(0, now.UnixNano())) {
		t.Errorf("created_at round trip: got %v", got.CreatedAt)
	}

	all, err := s.ListAlerts()
	if err != nil {
		t.Fatalf("ListAlerts: %v", err)
	}
	if len(all) != 2 || all[0].ID != "a2" {
		t.Errorf("ListAlerts = %+v, want newest first", all)
	}

	if err := s.DeactivateAlert("a1"); err != nil {
		t.Fatalf("DeactivateAlert: %v", err)
	}
	active, err := s.ActiveAlerts()
	if err != nil {
		t.Fatalf("ActiveAlerts: %v", err)
	}
	if len(active) != 1 || active[0].ID != "a2" {
		t.Errorf("ActiveAlerts = %+v, want only a2", active)
	}

	if err := s.DeleteAlert("a2"); err != nil {
		t.Fatalf("DeleteAlert: %v", err)
	}
	if _, err := s.GetAlert("a2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetAlert after delete: got %v, want ErrNotFound", err)
	}
}

func TestStorage_AlertErrors(t *testing.T) {
	s := newTestStorage(t, 10)
	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"delete missing", func() error { return s.DeleteAlert("nope") }, ErrNotFound},
		{"deactivate missing", func() error { return s.DeactivateAlert("nope") }, ErrNotFound},
		{"unwatch missing", func() error { return s.Unwatch("nope") }, ErrNotFound},
		{"delete missing entry", func() error { return s.DeleteEntry("nope") }, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	bad := testAlert("bad", "rice-punjab", time.Now())
	bad.TargetPrice = 0
	if err := s.AddAlert(bad); err == nil {
		t.Error("expected validation error for zero target price")
	}
	if err := s.AddAlert(testAlert("dup", "x", time.Now())); err != nil {
		t.Fatalf("AddAlert: %v", err)
	}
	if err := s.AddAlert(testAlert("dup", "x", time.Now())); err == nil {
		t.Error("expected error for duplicate alert id")
	}
}

func TestStorage_TriggeredAlerts(t *testing.T) {
	s := newTestStorage(t, 10)
	base := time.Now()
	for i := 0; i < 3; i++ {
		err := s.AddTriggered(models.TriggeredAlert{
			AlertID:     fmt.Sprintf("a%d", i),
			CommodityID: "rice-punjab",
			Commodity:   "Rice",
			Region:      "Punjab",
			Type:        models.AlertBelow,
			TargetPrice: 2500,
			Price:       2400,
			Unit:        "₹/quintal",
			TriggeredAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("AddTriggered: %v", err)
		}
	}
	got, err := s.ListTriggered(2)
	if err != nil {
		t.Fatalf("ListTriggered: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d, want 2", len(got))
	}
	if got[0].AlertID != "a2" || got[0].Type != models.AlertBelow || got[0].Unit != "₹/quintal" {
		t.Errorf("unexpected newest triggered alert %+v", got[0])
	}
}

func TestStorage_Watchlist(t *testing.T) {
	s := newTestStorage(t, 10)
	now := time.Now()
	for i, id := range []string{"rice-punjab", "wheat-bihar", "rice-punjab"} {
		if err := s.Watch(id, now.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("Watch(%s): %v", id, err)
		}
	}
	if err := s.Watch("", now); err == nil {
		t.Error("expected error for empty id")
	}

	ids, err := s.Watchlist()
	if err != nil {
		t.Fatalf("Watchlist: %v", err)
	}
	if len(ids) != 2 || ids[0] != "rice-punjab" || ids[1] != "wheat-bihar" {
		t.Errorf("Watchlist = %v", ids)
	}

	if err := s.Unwatch("rice-punjab"); err != nil {
		t.Fatalf("Unwatch: %v", err)
	}
	ids, _ = s.Watchlist()
	if len(ids) != 1 || ids[0] != "wheat-bihar" {
		t.Errorf("Watchlist after unwatch = %v", ids)
	}
}

func TestStorage_Ledger(t *testing.T) {
	s := newTestStorage(t, 10)
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	qty := 12.5

	entries := []*models.LedgerEntry{
		{ID: "e1", Date: day, Type: models.EntryExpense, Category: "Seeds", Description: "Paddy seed", Amount: 4500},
		{ID: "e2", Date: day.AddDate(0, 0, 3), Type: models.EntryIncome, Category: "Crop Sale", Description: "Rice sale", Amount: 36000, Quantity: &qty, Unit: "quintal"},
	}
	for _, e := range entries {
		if err := s.AddEntry(e); err != nil {
			t.Fatalf("AddEntry(%s): %v", e.ID, err)
		}
	}

	got, err := s.ListEntries()
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(got) != 2 || got[0].ID != "e2" {
		t.Fatalf("ListEntries = %+v, want newest first", got)
	}
	if got[0].Quantity == nil || *got[0].Quantity != 12.5 || got[0].Unit != "quintal" {
		t.Errorf("quantity/unit not round-tripped: %+v", got[0])
	}
	if got[1].Quantity != nil || got[1].Unit != "" {
		t.Errorf("optional fields should stay empty: %+v", got[1])
	}
	if !got[0].Date.Equal(day.AddDate(0, 0, 3)) {
		t.Errorf("date round trip: %v", got[0].Date)
	}

	if err := s.AddEntry(&models.LedgerEntry{ID: "bad", Date: day, Type: "gift"}); err == nil {
		t.Error("expected validation error")
	}
	if err := s.DeleteEntry("e1"); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	got, _ = s.ListEntries()
	if len(got) != 1 {
		t.Errorf("got %d entries after delete, want 1", len(got))
	}
}
