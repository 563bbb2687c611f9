// Package analytics derives read-only views from a Dataset and from recorded price history.
package analytics

import (
	"cmp"
	"slices"

	"github.com/rewired-gh/mandipulse/internal/models"
)

const (
	moversLimit     = 5
	volatileLimit   = 3
	arbitrageLimit  = 3
	arbitrageSpread = 1.1
)

// ArbitrageOpportunity pairs the cheapest and dearest region for one commodity.
type ArbitrageOpportunity struct {
	Commodity    string  `json:"commodity"`
	BuyRegion    string  `json:"buyState"`
	SellRegion   string  `json:"sellState"`
	BuyPrice     float64 `json:"buyPrice"`
	SellPrice    float64 `json:"sellPrice"`
	ProfitMargin float64 `json:"profitMargin"`
}

// Intelligence bundles the market intelligence views of one Dataset.
type Intelligence struct {
	TopGainers     []models.PricedRecord  `json:"topGainers"`
	TopLosers      []models.PricedRecord  `json:"topLosers"`
	HighVolatility []models.PricedRecord  `json:"highVolatility"`
	Arbitrage      []ArbitrageOpportunity `json:"arbitrageOpportunities"`
	Sentiment      Sentiment              `json:"sentiment"`
}

// Analyze computes every intelligence view over d.
func Analyze(d models.Dataset) Intelligence {
	return Intelligence{
		TopGainers:     TopGainers(d, moversLimit),
		TopLosers:      TopLosers(d, moversLimit),
		HighVolatility: HighVolatility(d),
		Arbitrage:      Arbitrage(d),
		Sentiment:      MarketSentiment(d),
	}
}

// TopGainers returns up to n rising records, largest changePercent first.
func TopGainers(d models.Dataset, n int) []models.PricedRecord {
	out := filter(d, func(r models.PricedRecord) bool { return r.ChangePercent > 0 })
	slices.SortStableFunc(out, func(a, b models.PricedRecord) int {
		return cmp.Compare(b.ChangePercent, a.ChangePercent)
	})
	return head(out, n)
}

// TopLosers returns up to n falling records, most negative changePercent first.
func TopLosers(d models.Dataset, n int) []models.PricedRecord {
	out := filter(d, func(r models.PricedRecord) bool { return r.ChangePercent < 0 })
	slices.SortStableFunc(out, func(a, b models.PricedRecord) int {
		return cmp.Compare(a.ChangePercent, b.ChangePercent)
	})
	return head(out, n)
}

// HighVolatility returns the first three high-volatility records in Dataset order.
func HighVolatility(d models.Dataset) []models.PricedRecord {
	out := filter(d, func(r models.PricedRecord) bool { return r.Volatility == models.VolatilityHigh })
	return head(out, volatileLimit)
}

// Arbitrage groups records by commodity in order of first appearance and reports
// groups whose dearest region is more than 10% above the cheapest.
// At most three opportunities are returned, in group order rather than by margin.
func Arbitrage(d models.Dataset) []ArbitrageOpportunity {
	var order []string
	groups := make(map[string][]models.PricedRecord)
	for _, r := range d {
		if _, ok := groups[r.Name]; !ok {
			order = append(order, r.Name)
		}
		groups[r.Name] = append(groups[r.Name], r)
	}

	out := []ArbitrageOpportunity{}
	for _, name := range order {
		items := groups[name]
		if len(items) < 2 {
			continue
		}
		lo, hi := items[0], items[0]
		for _, r := range items[1:] {
			if r.CurrentPrice < lo.CurrentPrice {
				lo = r
			}
			if r.CurrentPrice >= hi.CurrentPrice {
				hi = r
			}
		}
		if lo.CurrentPrice <= 0 || hi.CurrentPrice <= lo.CurrentPrice*arbitrageSpread {
			continue
		}
		out = append(out, ArbitrageOpportunity{
			Commodity:    name,
			BuyRegion:    lo.Region,
			SellRegion:   hi.Region,
			BuyPrice:     lo.CurrentPrice,
			SellPrice:    hi.CurrentPrice,
			ProfitMargin: (hi.CurrentPrice - lo.CurrentPrice) / lo.CurrentPrice * 100,
		})
		if len(out) == arbitrageLimit {
			break
		}
	}
	return out
}

func filter(d models.Dataset, keep func(models.PricedRecord) bool) []models.PricedRecord {
	out := []models.PricedRecord{}
	for _, r := range d {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func head(rs []models.PricedRecord, n int) []models.PricedRecord {
	if n >= 0 && len(rs) > n {
		return rs[:n]
	}
	return rs
}
