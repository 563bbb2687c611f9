package models

import (
	"errors"
	"time"
)

// EntryType distinguishes money coming in from money going out.
type EntryType string

const (
	EntryIncome  EntryType = "income"
	EntryExpense EntryType = "expense"
)

// LedgerEntry is one line of the farm tally.
type LedgerEntry struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Type        EntryType `json:"type"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Quantity    *float64  `json:"quantity,omitempty"`
	Unit        string    `json:"unit,omitempty"`
}

// Validate checks ledger entry constraints.
func (e *LedgerEntry) Validate() error {
	if e.Type != EntryIncome && e.Type != EntryExpense {
		return errors.New("entry type must be income or expense")
	}
	if e.Category == "" {
		return errors.New("category must not be empty")
	}
	if e.Description == "" {
		return errors.New("description must not be empty")
	}
	if e.Amount <= 0 {
		return errors.New("amount must be positive")
	}
	if e.Quantity != nil && *e.Quantity <= 0 {
		return errors.New("quantity must be positive when set")
	}
	if e.Date.IsZero() {
		return errors.New("date must be set")
	}
	return nil
}
