// Package catalog holds the static commodity and region reference tables.
package catalog

import "github.com/rewired-gh/mandipulse/internal/models"

// DefaultVolatility is used for commodities missing from the catalog.
const DefaultVolatility = 0.02

func msp(v float64) *float64 { return &v }

var definitions = []models.CommodityDefinition{
	{Name: "Rice", BasePrice: 2850, Volatility: 0.02, Category: models.CategoryGrains, Unit: "₹/quintal", MSP: msp(2040)},
	{Name: "Wheat", BasePrice: 2180, Volatility: 0.015, Category: models.CategoryGrains, Unit: "₹/quintal", MSP: msp(2125)},
	{Name: "Cotton", BasePrice: 59800, Volatility: 0.03, Category: models.CategoryCashCrops, Unit: "₹/bale", MSP: msp(6080)},
	{Name: "Tomato", BasePrice: 2800, Volatility: 0.08, Category: models.CategoryVegetables, Unit: "₹/quintal"},
	{Name: "Onion", BasePrice: 1950, Volatility: 0.06, Category: models.CategoryVegetables, Unit: "₹/quintal"},
	{Name: "Potato", BasePrice: 1600, Volatility: 0.04, Category: models.CategoryVegetables, Unit: "₹/quintal"},
	{Name: "Turmeric", BasePrice: 10250, Volatility: 0.025, Category: models.CategorySpices, Unit: "₹/quintal"},
	{Name: "Chili", BasePrice: 14500, Volatility: 0.035, Category: models.CategorySpices, Unit: "₹/quintal"},
	{Name: "Cumin", BasePrice: 48500, Volatility: 0.04, Category: models.CategorySpices, Unit: "₹/quintal"},
	{Name: "Cardamom", BasePrice: 275000, Volatility: 0.05, Category: models.CategorySpices, Unit: "₹/quintal"},
	{Name: "Tea", BasePrice: 28500, Volatility: 0.02, Category: models.CategoryCashCrops, Unit: "₹/quintal"},
	{Name: "Coffee", BasePrice: 42500, Volatility: 0.03, Category: models.CategoryCashCrops, Unit: "₹/quintal"},
	{Name: "Groundnut", BasePrice: 6800, Volatility: 0.025, Category: models.CategoryCashCrops, Unit: "₹/quintal", MSP: msp(5850)},
	{Name: "Soybean", BasePrice: 4500, Volatility: 0.03, Category: models.CategoryCashCrops, Unit: "₹/quintal", MSP: msp(4300)},
	{Name: "Mustard", BasePrice: 5200, Volatility: 0.025, Category: models.CategoryCashCrops, Unit: "₹/quintal", MSP: msp(5450)},
	{Name: "Gram", BasePrice: 5800, Volatility: 0.02, Category: models.CategoryPulses, Unit: "₹/quintal", MSP: msp(5230)},
	{Name: "Maize", BasePrice: 2200, Volatility: 0.02, Category: models.CategoryGrains, Unit: "₹/quintal", MSP: msp(1870)},
	{Name: "Coconut", BasePrice: 2800, Volatility: 0.03, Category: models.CategoryCashCrops, Unit: "₹/100 pieces"},
	{Name: "Rubber", BasePrice: 16500, Volatility: 0.04, Category: models.CategoryCashCrops, Unit: "₹/quintal"},
	{Name: "Jute", BasePrice: 4200, Volatility: 0.025, Category: models.CategoryCashCrops, Unit: "₹/quintal", MSP: msp(4750)},
}

var regions = []string{
	"Andhra Pradesh",
	"Arunachal Pradesh",
	"Assam",
	"Bihar",
	"Chhattisgarh",
	"Goa",
	"Gujarat",
	"Haryana",
	"Himachal Pradesh",
	"Jharkhand",
	"Karnataka",
	"Kerala",
	"Madhya Pradesh",
	"Maharashtra",
	"Manipur",
	"Meghalaya",
	"Mizoram",
	"Nagaland",
	"Odisha",
	"Punjab",
	"Rajasthan",
	"Sikkim",
	"Tamil Nadu",
	"Telangana",
	"Tripura",
	"Uttar Pradesh",
	"Uttarakhand",
	"West Bengal",
}

// Definitions returns the catalog in its fixed order.
// The returned slice is a copy; MSP pointers are shared and must not be written through.
func Definitions() []models.CommodityDefinition {
	out := make([]models.CommodityDefinition, len(definitions))
	copy(out, definitions)
	return out
}

// Lookup finds a commodity by exact name.
func Lookup(name string) (models.CommodityDefinition, bool) {
	for _, d := range definitions {
		if d.Name == name {
			return d, true
		}
	}
	return models.CommodityDefinition{}, false
}

// VolatilityOf returns the coefficient for name, or DefaultVolatility when unknown.
func VolatilityOf(name string) float64 {
	if d, ok := Lookup(name); ok {
		return d.Volatility
	}
	return DefaultVolatility
}

// Regions returns the first n regions in listed order.
// n is clamped to the size of the table.
func Regions(n int) []string {
	if n > len(regions) {
		n = len(regions)
	}
	if n < 0 {
		n = 0
	}
	out := make([]string, n)
	copy(out, regions[:n])
	return out
}

// RegionCount is the number of known regions.
func RegionCount() int { return len(regions) }

// Names returns the commodity names in catalog order.
func Names() []string {
	out := make([]string, len(definitions))
	for i, d := range definitions {
		out[i] = d.Name
	}
	return out
}
