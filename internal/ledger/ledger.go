// Package ledger implements the farm tally: income and expense entries with running totals.
package ledger

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rewired-gh/mandipulse/internal/models"
)

// ErrInvalidEntry wraps every rejection of user input.
var ErrInvalidEntry = errors.New("invalid ledger entry")

var categories = map[models.EntryType][]string{
	models.EntryIncome:  {"Crop Sale", "Livestock Sale", "Subsidy", "Other Income"},
	models.EntryExpense: {"Seeds", "Fertilizer", "Pesticide", "Labour", "Equipment", "Irrigation", "Transport", "Other Expense"},
}

var units = []string{"kg", "quintal", "ton", "liters", "pieces", "acres", "hours"}

// Categories lists the categories allowed for t.
func Categories(t models.EntryType) []string {
	return slices.Clone(categories[t])
}

// Units lists the allowed quantity units.
func Units() []string {
	return slices.Clone(units)
}

// Store is the persistence the ledger needs.
type Store interface {
	AddEntry(e *models.LedgerEntry) error
	DeleteEntry(id string) error
	ListEntries() ([]models.LedgerEntry, error)
}

// NewEntry is the user input for one ledger line. A zero Date means today.
type NewEntry struct {
	Date        time.Time        `json:"date"`
	Type        models.EntryType `json:"type"`
	Category    string           `json:"category"`
	Description string           `json:"description"`
	Amount      float64          `json:"amount"`
	Quantity    *float64         `json:"quantity,omitempty"`
	Unit        string           `json:"unit,omitempty"`
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Add validates in and stores it under a fresh id.
func (s *Service) Add(in NewEntry) (models.LedgerEntry, error) {
	date := in.Date
	if date.IsZero() {
		date = s.now()
	}
	e := models.LedgerEntry{
		ID:          uuid.New().String(),
		Date:        date,
		Type:        in.Type,
		Category:    strings.TrimSpace(in.Category),
		Description: strings.TrimSpace(in.Description),
		Amount:      decimal.NewFromFloat(in.Amount).Round(2).InexactFloat64(),
		Quantity:    in.Quantity,
		Unit:        strings.TrimSpace(in.Unit),
	}
	if err := e.Validate(); err != nil {
		return models.LedgerEntry{}, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	if !slices.Contains(categories[e.Type], e.Category) {
		return models.LedgerEntry{}, fmt.Errorf("%w: unknown %s category %q", ErrInvalidEntry, e.Type, e.Category)
	}
	if e.Unit != "" && !slices.Contains(units, e.Unit) {
		return models.LedgerEntry{}, fmt.Errorf("%w: unknown unit %q", ErrInvalidEntry, e.Unit)
	}
	if err := s.store.AddEntry(&e); err != nil {
		return models.LedgerEntry{}, err
	}
	return e, nil
}

func (s *Service) Delete(id string) error {
	return s.store.DeleteEntry(id)
}

// List returns every entry, newest first.
func (s *Service) List() ([]models.LedgerEntry, error) {
	return s.store.ListEntries()
}

// CategoryTotal is the sum of one category.
type CategoryTotal struct {
	Type     models.EntryType `json:"type"`
	Category string           `json:"category"`
	Total    float64          `json:"total"`
	Count    int              `json:"count"`
}

// Summary holds the running totals of the ledger.
type Summary struct {
	TotalIncome  float64         `json:"totalIncome"`
	TotalExpense float64         `json:"totalExpense"`
	NetProfit    float64         `json:"netProfit"`
	Entries      int             `json:"entries"`
	ByCategory   []CategoryTotal `json:"byCategory"`
}

func (s *Service) Summary() (Summary, error) {
	entries, err := s.store.ListEntries()
	if err != nil {
		return Summary{}, err
	}
	return Summarize(entries), nil
}

// Summarize totals entries with exact decimal arithmetic. Category totals
// follow the fixed category order, income before expense.
func Summarize(entries []models.LedgerEntry) Summary {
	income, expense := decimal.Zero, decimal.Zero
	type key struct {
		t models.EntryType
		c string
	}
	sums := make(map[key]decimal.Decimal)
	counts := make(map[key]int)
	for _, e := range entries {
		amt := decimal.NewFromFloat(e.Amount)
		switch e.Type {
		case models.EntryIncome:
			income = income.Add(amt)
		case models.EntryExpense:
			expense = expense.Add(amt)
		}
		k := key{e.Type, e.Category}
		sums[k] = sums[k].Add(amt)
		counts[k]++
	}

	sum := Summary{
		TotalIncome:  income.InexactFloat64(),
		TotalExpense: expense.InexactFloat64(),
		NetProfit:    income.Sub(expense).InexactFloat64(),
		Entries:      len(entries),
		ByCategory:   []CategoryTotal{},
	}
	for _, t := range []models.EntryType{models.EntryIncome, models.EntryExpense} {
		for _, c := range categories[t] {
			k := key{t, c}
			if counts[k] == 0 {
				continue
			}
			sum.ByCategory = append(sum.ByCategory, CategoryTotal{
				Type: t, Category: c, Total: sums[k].InexactFloat64(), Count: counts[k],
			})
		}
	}
	return sum
}
