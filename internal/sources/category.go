package sources

import (
	"strings"

	"github.com/rewired-gh/mandipulse/internal/catalog"
	"github.com/rewired-gh/mandipulse/internal/market"
	"github.com/rewired-gh/mandipulse/internal/models"
)

var categoryKeywords = []struct {
	category models.Category
	words    []string
}{
	{models.CategoryGrains, []string{"rice", "wheat", "maize", "barley", "paddy"}},
	{models.CategoryVegetables, []string{"tomato", "onion", "potato", "cabbage", "brinjal"}},
	{models.CategorySpices, []string{"turmeric", "chili", "cumin", "cardamom", "coriander"}},
	{models.CategoryCashCrops, []string{"cotton", "sugarcane", "tea", "coffee", "groundnut"}},
	{models.CategoryPulses, []string{"gram", "arhar", "moong", "masur", "urad"}},
}

// CategoryFor classifies an external commodity name by keyword, defaulting to grains.
func CategoryFor(commodity string) models.Category {
	lower := strings.ToLower(commodity)
	if lower == "" {
		return models.CategoryGrains
	}
	for _, group := range categoryKeywords {
		for _, w := range group.words {
			if strings.Contains(lower, w) {
				return group.category
			}
		}
	}
	return models.CategoryGrains
}

// enrich fills catalog-derived fields for an external record and recomputes the price-derived ones.
func enrich(r *models.PricedRecord) {
	if def, ok := catalog.Lookup(r.Name); ok {
		r.Volatility = market.ClassifyVolatility(def.Volatility)
		r.Category = def.Category
		r.MSP = def.MSP
	} else {
		if r.Volatility == "" {
			r.Volatility = models.VolatilityMedium
		}
		if r.Category == "" {
			r.Category = CategoryFor(r.Name)
		}
	}
	if r.Unit == "" {
		r.Unit = "₹/quintal"
	}
	if r.Seasonality == "" {
		r.Seasonality = models.SeasonPeak
	}
	if r.PreviousPrice <= 0 {
		r.PreviousPrice = r.CurrentPrice
	}
	market.Reprice(r, r.CurrentPrice, r.PreviousPrice)
}
