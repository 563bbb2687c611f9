// Package models defines the core domain entities: commodities, priced records, alerts, news and ledger entries.
package models

import (
	"errors"
	"time"
)

// Category is the fixed commodity classification.
type Category string

const (
	CategoryGrains     Category = "grains"
	CategoryVegetables Category = "vegetables"
	CategorySpices     Category = "spices"
	CategoryCashCrops  Category = "cash_crops"
	CategoryPulses     Category = "pulses"
)

// Trend is derived from a record's percent change.
type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendNeutral Trend = "neutral"
)

// Volatility is derived from a commodity's static volatility coefficient.
type Volatility string

const (
	VolatilityHigh   Volatility = "high"
	VolatilityMedium Volatility = "medium"
	VolatilityLow    Volatility = "low"
)

// Seasonality tags where a commodity sits in its crop cycle.
type Seasonality string

const (
	SeasonPeak      Seasonality = "peak"
	SeasonOffSeason Seasonality = "off_season"
	SeasonHarvest   Seasonality = "harvest"
)

// CommodityDefinition is an immutable catalog entry.
type CommodityDefinition struct {
	Name       string
	BasePrice  float64
	Volatility float64 // fraction, 0.02 = 2% typical swing
	Category   Category
	Unit       string
	MSP        *float64
}

// PricedRecord is one commodity priced in one region.
// ID is "<commodity>-<region>", lowercased and hyphenated.
type PricedRecord struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	CurrentPrice  float64     `json:"currentPrice"`
	PreviousPrice float64     `json:"previousPrice"`
	Change24h     float64     `json:"change24h"`
	ChangePercent float64     `json:"changePercent"`
	Volume        int         `json:"volume"`
	MarketCap     int         `json:"marketCap"`
	Region        string      `json:"state"`
	Market        string      `json:"market"`
	LastUpdated   time.Time   `json:"lastUpdated"`
	Trend         Trend       `json:"trend"`
	Volatility    Volatility  `json:"volatility"`
	Category      Category    `json:"category"`
	Unit          string      `json:"unit"`
	MSP           *float64    `json:"msp,omitempty"`
	Seasonality   Seasonality `json:"seasonality"`
}

// Dataset is the full set of priced records produced by one step.
// It is never mutated after it is produced.
type Dataset []PricedRecord

// Find returns the record with the given id.
func (d Dataset) Find(id string) (PricedRecord, bool) {
	for _, r := range d {
		if r.ID == id {
			return r, true
		}
	}
	return PricedRecord{}, false
}

// Validate checks record field constraints.
func (r *PricedRecord) Validate() error {
	if r.ID == "" {
		return errors.New("record ID must not be empty")
	}
	if r.Name == "" {
		return errors.New("commodity name must not be empty")
	}
	if r.Region == "" {
		return errors.New("region must not be empty")
	}
	if r.CurrentPrice <= 0 {
		return errors.New("current price must be positive")
	}
	if r.PreviousPrice < 0 {
		return errors.New("previous price must not be negative")
	}
	switch r.Trend {
	case TrendBullish, TrendBearish, TrendNeutral:
	default:
		return errors.New("trend must be bullish, bearish or neutral")
	}
	switch r.Volatility {
	case VolatilityHigh, VolatilityMedium, VolatilityLow:
	default:
		return errors.New("volatility must be high, medium or low")
	}
	return nil
}
