package models

import "time"

// Impact classifies how a news item is expected to move prices.
type Impact string

const (
	ImpactPositive Impact = "positive"
	ImpactNegative Impact = "negative"
	ImpactNeutral  Impact = "neutral"
)

// NewsItem is one entry of the market news feed.
type NewsItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Impact      Impact    `json:"impact"`
	Commodities []string  `json:"commodities"`
	Timestamp   time.Time `json:"timestamp"`
	Source      string    `json:"source"`
}
