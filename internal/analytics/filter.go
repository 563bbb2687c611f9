package analytics

import (
	"cmp"
	"slices"
	"strings"

	"github.com/rewired-gh/mandipulse/internal/market"
	"github.com/rewired-gh/mandipulse/internal/models"
)

// Sort keys accepted by Query.
const (
	SortName          = "name"
	SortCurrentPrice  = "currentPrice"
	SortChangePercent = "changePercent"
	SortVolume        = "volume"
	SortRegion        = "region"
)

const (
	quintalUnit = "₹/quintal"
	kgUnit      = "₹/kg"
)

// Query narrows and orders a Dataset for the price table.
type Query struct {
	Region    string
	Commodity string
	Search    string
	SortBy    string
	Desc      bool
	PerKg     bool
}

// ValidSort reports whether key is a supported sort key. The empty key keeps Dataset order.
func ValidSort(key string) bool {
	switch key {
	case "", SortName, SortCurrentPrice, SortChangePercent, SortVolume, SortRegion:
		return true
	}
	return false
}

// Apply returns a new slice; d is not modified.
func (q Query) Apply(d models.Dataset) models.Dataset {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := models.Dataset{}
	for _, r := range d {
		if q.Region != "" && !strings.EqualFold(r.Region, q.Region) {
			continue
		}
		if q.Commodity != "" && !strings.EqualFold(r.Name, q.Commodity) {
			continue
		}
		if search != "" && !matches(r, search) {
			continue
		}
		if q.PerKg {
			r = perKg(r)
		}
		out = append(out, r)
	}

	if c := comparator(q.SortBy); c != nil {
		slices.SortStableFunc(out, func(a, b models.PricedRecord) int {
			if q.Desc {
				return c(b, a)
			}
			return c(a, b)
		})
	}
	return out
}

func matches(r models.PricedRecord, search string) bool {
	return strings.Contains(strings.ToLower(r.Name), search) ||
		strings.Contains(strings.ToLower(r.Region), search) ||
		strings.Contains(strings.ToLower(r.Market), search)
}

func comparator(key string) func(a, b models.PricedRecord) int {
	switch key {
	case SortName:
		return func(a, b models.PricedRecord) int { return strings.Compare(a.Name, b.Name) }
	case SortCurrentPrice:
		return func(a, b models.PricedRecord) int { return cmp.Compare(a.CurrentPrice, b.CurrentPrice) }
	case SortChangePercent:
		return func(a, b models.PricedRecord) int { return cmp.Compare(a.ChangePercent, b.ChangePercent) }
	case SortVolume:
		return func(a, b models.PricedRecord) int { return cmp.Compare(a.Volume, b.Volume) }
	case SortRegion:
		return func(a, b models.PricedRecord) int { return strings.Compare(a.Region, b.Region) }
	}
	return nil
}

// perKg converts a per-quintal record to per-kg prices. Other units pass through.
func perKg(r models.PricedRecord) models.PricedRecord {
	if r.Unit != quintalUnit {
		return r
	}
	r.Unit = kgUnit
	r.CurrentPrice = market.Round2(r.CurrentPrice / 100)
	r.PreviousPrice = market.Round2(r.PreviousPrice / 100)
	r.Change24h = market.Round2(r.Change24h / 100)
	if r.MSP != nil {
		v := market.Round2(*r.MSP / 100)
		r.MSP = &v
	}
	return r
}
