package models

import (
	"errors"
	"time"
)

// AlertType selects the direction a price must cross.
type AlertType string

const (
	AlertAbove AlertType = "above"
	AlertBelow AlertType = "below"
)

// PriceAlert is a user-created price threshold on one record.
type PriceAlert struct {
	ID          string    `json:"id"`
	CommodityID string    `json:"commodityId"`
	Type        AlertType `json:"type"`
	TargetPrice float64   `json:"targetPrice"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Validate checks alert field constraints.
func (a *PriceAlert) Validate() error {
	if a.CommodityID == "" {
		return errors.New("commodity ID must not be empty")
	}
	if a.Type != AlertAbove && a.Type != AlertBelow {
		return errors.New("alert type must be above or below")
	}
	if a.TargetPrice <= 0 {
		return errors.New("target price must be positive")
	}
	return nil
}

// Matches reports whether price satisfies the alert condition.
func (a *PriceAlert) Matches(price float64) bool {
	switch a.Type {
	case AlertAbove:
		return price >= a.TargetPrice
	case AlertBelow:
		return price <= a.TargetPrice
	}
	return false
}

// TriggeredAlert records an alert that fired against a Dataset.
type TriggeredAlert struct {
	AlertID     string    `json:"alertId"`
	CommodityID string    `json:"commodityId"`
	Commodity   string    `json:"commodity"`
	Region      string    `json:"state"`
	Type        AlertType `json:"type"`
	TargetPrice float64   `json:"targetPrice"`
	Price       float64   `json:"price"`
	Unit        string    `json:"unit"`
	TriggeredAt time.Time `json:"triggeredAt"`
}

// PricePoint is one recorded observation of a record.
type PricePoint struct {
	RecordID   string    `json:"id"`
	Price      float64   `json:"price"`
	Volume     int       `json:"volume"`
	RecordedAt time.Time `json:"recordedAt"`
}

// AlertGroup collects the alerts that fired for one commodity in a cycle.
type AlertGroup struct {
	Commodity string           `json:"commodity"`
	Alerts    []TriggeredAlert `json:"alerts"`
}
