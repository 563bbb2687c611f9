package market

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rewired-gh/mandipulse/internal/models"
)

// Round2 rounds to two decimal places, halves away from zero.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Derive computes the rounded absolute and percent change between two prices.
// A zero previous price yields a zero percent change.
func Derive(current, previous float64) (change, percent float64) {
	change = Round2(current - previous)
	if previous == 0 {
		return change, 0
	}
	return change, Round2(change / previous * 100)
}

// ClassifyTrend maps a percent change to a trend.
func ClassifyTrend(changePercent float64) models.Trend {
	switch {
	case changePercent > 1:
		return models.TrendBullish
	case changePercent < -1:
		return models.TrendBearish
	default:
		return models.TrendNeutral
	}
}

// ClassifyVolatility maps a catalog coefficient to a volatility class.
func ClassifyVolatility(coefficient float64) models.Volatility {
	switch {
	case coefficient > 0.04:
		return models.VolatilityHigh
	case coefficient > 0.025:
		return models.VolatilityMedium
	default:
		return models.VolatilityLow
	}
}

// Slug lowercases s and joins its words with hyphens.
func Slug(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}

// RecordID builds the stable id of a commodity priced in a region.
func RecordID(commodity, region string) string {
	return Slug(commodity) + "-" + Slug(region)
}

// Reprice sets the price pair on r and recomputes every derived field.
func Reprice(r *models.PricedRecord, current, previous float64) {
	r.CurrentPrice = current
	r.PreviousPrice = previous
	r.Change24h, r.ChangePercent = Derive(current, previous)
	r.Trend = ClassifyTrend(r.ChangePercent)
}
