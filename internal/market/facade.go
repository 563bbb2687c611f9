package market

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rewired-gh/mandipulse/internal/logger"
	"github.com/rewired-gh/mandipulse/internal/models"
)

// ErrEmptyResult is returned when every external source produced nothing.
var ErrEmptyResult = errors.New("no records from any external source")

// Fetcher retrieves a Dataset from external sources.
// Statuses describe each source attempted and are returned even on failure.
type Fetcher interface {
	Fetch(ctx context.Context) (models.Dataset, []models.SourceStatus, error)
}

// Facade is the single entry point for obtaining initial and refreshed datasets.
// Neither Initialize nor RefreshCycle return errors: failures fall back to synthetic data
// or to the previous Dataset.
type Facade struct {
	external  Fetcher
	generator *Generator
	evolver   *Evolver

	mu     sync.RWMutex
	status models.FeedStatus
}

// NewFacade builds a facade. A nil external fetcher selects the synthetic path.
func NewFacade(generator *Generator, evolver *Evolver, external Fetcher) *Facade {
	mode := models.OriginSynthetic
	if external != nil {
		mode = models.OriginExternal
	}
	return &Facade{
		external:  external,
		generator: generator,
		evolver:   evolver,
		status:    models.FeedStatus{Mode: mode},
	}
}

// Initialize produces the first Dataset of a session.
func (f *Facade) Initialize(ctx context.Context) models.Dataset {
	if f.external == nil {
		data := f.generator.Generate()
		f.recordSuccess(models.OriginSynthetic)
		logger.Info("Generated %d synthetic records", len(data))
		return data
	}

	return f.fetchExternal(ctx).OrElse(func(err error) models.Dataset {
		logger.Warn("External sources unavailable, generating synthetic data: %v", err)
		f.recordFailure(models.OriginSynthetic, err)
		return f.generator.Generate()
	})
}

// RefreshCycle produces the Dataset that supersedes prev.
// On the external path a failed fetch keeps prev; there is no retry within a cycle.
func (f *Facade) RefreshCycle(ctx context.Context, prev models.Dataset) models.Dataset {
	if f.external == nil {
		if len(prev) == 0 {
			logger.Warn("No records to evolve, regenerating snapshot")
			return f.Initialize(ctx)
		}
		next := f.evolver.Evolve(prev)
		f.recordSuccess(models.OriginSynthetic)
		return next
	}

	return f.fetchExternal(ctx).OrElse(func(err error) models.Dataset {
		logger.Warn("Refresh from external sources failed, keeping previous %d records: %v", len(prev), err)
		f.recordFailure("", err)
		return prev
	})
}

func (f *Facade) fetchExternal(ctx context.Context) Result[models.Dataset] {
	data, statuses, err := f.external.Fetch(ctx)
	f.mu.Lock()
	f.status.Sources = statuses
	f.mu.Unlock()

	if err != nil {
		return Fail[models.Dataset](fmt.Errorf("failed to fetch external data: %w", err))
	}
	if len(data) == 0 {
		return Fail[models.Dataset](ErrEmptyResult)
	}
	f.recordSuccess(models.OriginExternal)
	logger.Info("Fetched %d records from external sources", len(data))
	return Ok(data)
}

func (f *Facade) recordSuccess(origin string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.Origin = origin
	f.status.LastRefresh = time.Now()
	f.status.LastError = ""
	f.status.ConsecutiveFailures = 0
}

// recordFailure keeps the current origin when origin is empty.
func (f *Facade) recordFailure(origin string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if origin != "" {
		f.status.Origin = origin
	}
	f.status.LastRefresh = time.Now()
	f.status.LastError = err.Error()
	f.status.ConsecutiveFailures++
}

// Status returns a copy of the current feed status.
func (f *Facade) Status() models.FeedStatus {
	f.mu.RLock()
	defer f.mu.RUnlock()
	s := f.status
	s.Sources = append([]models.SourceStatus(nil), f.status.Sources...)
	return s
}
