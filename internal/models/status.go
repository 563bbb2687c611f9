package models

import "time"

// Dataset origins.
const (
	OriginSynthetic = "synthetic"
	OriginExternal  = "external"
)

// Source connection states.
const (
	SourceConnected    = "connected"
	SourceDisconnected = "disconnected"
	SourceLimited      = "limited"
)

// SourceStatus describes the last attempt against one external source.
type SourceStatus struct {
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	LastUpdate  time.Time `json:"lastUpdate"`
	RecordCount int       `json:"recordCount"`
	IsReal      bool      `json:"isReal"`
	Error       string    `json:"error,omitempty"`
}

// FeedStatus summarises where the current Dataset came from.
type FeedStatus struct {
	Mode                string         `json:"mode"`
	Origin              string         `json:"origin"`
	LastRefresh         time.Time      `json:"lastRefresh"`
	LastError           string         `json:"lastError,omitempty"`
	ConsecutiveFailures int            `json:"consecutiveFailures"`
	Sources             []SourceStatus `json:"sources"`
}
