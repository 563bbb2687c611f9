// Package monitor evaluates user price alerts against each new Dataset.
package monitor

import (
	"fmt"
	"sort"
	"time"

	"github.com/rewired-gh/mandipulse/internal/logger"
	"github.com/rewired-gh/mandipulse/internal/models"
)

// AlertStore is the persistence the monitor needs.
type AlertStore interface {
	ActiveAlerts() ([]models.PriceAlert, error)
	DeactivateAlert(id string) error
	AddTriggered(t models.TriggeredAlert) error
}

type Monitor struct {
	store      AlertStore
	now        func() time.Time
	cycleCount int
}

func New(store AlertStore) *Monitor {
	return &Monitor{store: store, now: time.Now}
}

// Evaluate checks every active alert against d. A matching alert is deactivated
// and recorded as triggered; it never fires twice. Alerts whose record is absent
// from d stay active.
func (m *Monitor) Evaluate(d models.Dataset) ([]models.TriggeredAlert, error) {
	alerts, err := m.store.ActiveAlerts()
	if err != nil {
		return nil, fmt.Errorf("failed to load active alerts: %w", err)
	}
	m.cycleCount++
	if len(alerts) == 0 {
		return nil, nil
	}

	index := make(map[string]int, len(d))
	for i, r := range d {
		index[r.ID] = i
	}

	now := m.now()
	var triggered []models.TriggeredAlert
	var missing int
	for _, a := range alerts {
		i, ok := index[a.CommodityID]
		if !ok {
			missing++
			continue
		}
		r := d[i]
		if !a.Matches(r.CurrentPrice) {
			continue
		}

		if err := m.store.DeactivateAlert(a.ID); err != nil {
			logger.Warn("Failed to deactivate alert %s: %v", a.ID, err)
			continue
		}
		t := models.TriggeredAlert{
			AlertID:     a.ID,
			CommodityID: a.CommodityID,
			Commodity:   r.Name,
			Region:      r.Region,
			Type:        a.Type,
			TargetPrice: a.TargetPrice,
			Price:       r.CurrentPrice,
			Unit:        r.Unit,
			TriggeredAt: now,
		}
		if err := m.store.AddTriggered(t); err != nil {
			logger.Warn("Failed to record triggered alert %s: %v", a.ID, err)
		}
		triggered = append(triggered, t)
	}

	logger.Debug("Cycle %d: evaluated %d active alerts, %d triggered, %d without a record",
		m.cycleCount, len(alerts), len(triggered), missing)
	return triggered, nil
}

// GroupByCommodity groups triggered alerts per commodity, largest group first.
// Within a group alerts keep their trigger order.
func GroupByCommodity(triggered []models.TriggeredAlert) []models.AlertGroup {
	groups := make(map[string]*models.AlertGroup)
	var order []string
	for _, t := range triggered {
		g, ok := groups[t.Commodity]
		if !ok {
			g = &models.AlertGroup{Commodity: t.Commodity}
			groups[t.Commodity] = g
			order = append(order, t.Commodity)
		}
		g.Alerts = append(g.Alerts, t)
	}

	result := make([]models.AlertGroup, 0, len(groups))
	for _, name := range order {
		result = append(result, *groups[name])
	}
	sort.SliceStable(result, func(i, j int) bool {
		return len(result[i].Alerts) > len(result[j].Alerts)
	})
	return result
}
