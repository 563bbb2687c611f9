package market

import (
	"time"

	"github.com/rewired-gh/mandipulse/internal/catalog"
	"github.com/rewired-gh/mandipulse/internal/models"
)

// DefaultRegionCount is how many regions each commodity is priced in.
const DefaultRegionCount = 12

// Generator builds a full Dataset from the catalog.
type Generator struct {
	rnd         Rand
	regionCount int
	now         func() time.Time
}

// NewGenerator creates a snapshot generator pricing each commodity in the first regionCount regions.
func NewGenerator(rnd Rand, regionCount int) *Generator {
	if regionCount <= 0 {
		regionCount = DefaultRegionCount
	}
	return &Generator{rnd: rnd, regionCount: regionCount, now: time.Now}
}

// Generate produces one record per commodity and region.
// Later regions in the fixed list get a systematically higher price.
func (g *Generator) Generate() models.Dataset {
	defs := catalog.Definitions()
	regions := catalog.Regions(g.regionCount)
	now := g.now()

	data := make(models.Dataset, 0, len(defs)*len(regions))
	for _, def := range defs {
		for i, region := range regions {
			multiplier := 0.85 + float64(i)*0.03
			current := Round2(def.BasePrice * multiplier)
			previous := Round2(current * uniform(g.rnd, 0.97, 1.03))

			r := models.PricedRecord{
				ID:          RecordID(def.Name, region),
				Name:        def.Name,
				Volume:      1000 + g.rnd.IntN(10000),
				MarketCap:   100000 + g.rnd.IntN(1000000),
				Region:      region,
				Market:      region + " APMC",
				LastUpdated: now,
				Volatility:  ClassifyVolatility(def.Volatility),
				Category:    def.Category,
				Unit:        def.Unit,
				MSP:         def.MSP,
				Seasonality: g.seasonality(),
			}
			Reprice(&r, current, previous)
			data = append(data, r)
		}
	}
	return data
}

// seasonality keeps the two-coin-flip draw: peak 1/2, harvest 1/4, off_season 1/4.
func (g *Generator) seasonality() models.Seasonality {
	if g.rnd.Float64() > 0.5 {
		return models.SeasonPeak
	}
	if g.rnd.Float64() > 0.5 {
		return models.SeasonHarvest
	}
	return models.SeasonOffSeason
}
