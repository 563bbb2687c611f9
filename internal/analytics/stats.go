package analytics

import (
	"time"

	"github.com/rewired-gh/mandipulse/internal/market"
	"github.com/rewired-gh/mandipulse/internal/models"
)

// Stats is the status-bar summary of a Dataset.
type Stats struct {
	Total            int       `json:"total"`
	Gainers          int       `json:"gainers"`
	Losers           int       `json:"losers"`
	Unchanged        int       `json:"unchanged"`
	AvgChangePercent float64   `json:"avgChangePercent"`
	LastUpdate       time.Time `json:"lastUpdate"`
}

// Sentiment is the share of records per trend, in percent.
type Sentiment struct {
	Bullish float64 `json:"bullish"`
	Bearish float64 `json:"bearish"`
	Neutral float64 `json:"neutral"`
}

// MarketStats counts movers and averages changePercent. LastUpdate is the newest record timestamp.
func MarketStats(d models.Dataset) Stats {
	s := Stats{Total: len(d)}
	sum := 0.0
	for _, r := range d {
		switch {
		case r.ChangePercent > 0:
			s.Gainers++
		case r.ChangePercent < 0:
			s.Losers++
		default:
			s.Unchanged++
		}
		sum += r.ChangePercent
		if r.LastUpdated.After(s.LastUpdate) {
			s.LastUpdate = r.LastUpdated
		}
	}
	if len(d) > 0 {
		s.AvgChangePercent = market.Round2(sum / float64(len(d)))
	}
	return s
}

// MarketSentiment reports the trend mix of d; an empty Dataset is all zeros.
func MarketSentiment(d models.Dataset) Sentiment {
	if len(d) == 0 {
		return Sentiment{}
	}
	var bull, bear, flat int
	for _, r := range d {
		switch r.Trend {
		case models.TrendBullish:
			bull++
		case models.TrendBearish:
			bear++
		default:
			flat++
		}
	}
	pct := func(n int) float64 { return market.Round2(float64(n) / float64(len(d)) * 100) }
	return Sentiment{Bullish: pct(bull), Bearish: pct(bear), Neutral: pct(flat)}
}
