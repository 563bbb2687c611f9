package market

import (
	"math"
	"time"

	"github.com/rewired-gh/mandipulse/internal/catalog"
	"github.com/rewired-gh/mandipulse/internal/models"
)

const (
	// MinPrice is the floor applied to every evolved price.
	MinPrice = 0.1
	// maxVolumeDrift bounds the per-step volume change in either direction.
	maxVolumeDrift = 100
)

// Evolver perturbs an existing Dataset into the next one.
type Evolver struct {
	rnd Rand
	now func() time.Time
}

// NewEvolver creates a price evolution engine.
func NewEvolver(rnd Rand) *Evolver {
	return &Evolver{rnd: rnd, now: time.Now}
}

// Evolve returns a new Dataset; prev is not modified.
// Record ids, category, unit, msp, seasonality, market and region carry over unchanged.
func (e *Evolver) Evolve(prev models.Dataset) models.Dataset {
	now := e.now()
	next := make(models.Dataset, len(prev))
	for i, r := range prev {
		old := r.CurrentPrice
		coefficient := catalog.VolatilityOf(r.Name)
		delta := uniform(e.rnd, -1, 1) * coefficient * old
		price := Round2(math.Max(MinPrice, old+delta))

		r.Volume += e.rnd.IntN(2*maxVolumeDrift+1) - maxVolumeDrift
		if r.Volume < 0 {
			r.Volume = 0
		}
		r.LastUpdated = now
		Reprice(&r, price, old)
		next[i] = r
	}
	return next
}
