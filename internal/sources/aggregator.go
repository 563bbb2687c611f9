package sources

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rewired-gh/mandipulse/internal/logger"
	"github.com/rewired-gh/mandipulse/internal/models"
)

// Aggregator fetches every source in parallel and joins them all-settled:
// one failing source never cancels or fails the others.
type Aggregator struct {
	sources []RecordSource
}

// NewAggregator combines sources; results are concatenated in the given order.
func NewAggregator(sources ...RecordSource) *Aggregator {
	return &Aggregator{sources: sources}
}

type fetchResult struct {
	records []models.PricedRecord
	err     error
	at      time.Time
}

// Fetch returns the concatenated records and one status per source.
// It fails only when every source failed.
func (a *Aggregator) Fetch(ctx context.Context) (models.Dataset, []models.SourceStatus, error) {
	results := make([]fetchResult, len(a.sources))

	var g errgroup.Group
	for i, src := range a.sources {
		g.Go(func() error {
			records, err := src.FetchRecords(ctx)
			results[i] = fetchResult{records: records, err: err, at: time.Now()}
			return nil
		})
	}
	_ = g.Wait()

	var (
		data     models.Dataset
		errs     []error
		statuses = make([]models.SourceStatus, len(a.sources))
	)
	for i, src := range a.sources {
		res := results[i]
		st := models.SourceStatus{Name: src.Name(), LastUpdate: res.at}
		switch {
		case res.err != nil:
			st.Status = models.SourceDisconnected
			st.Error = res.err.Error()
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), res.err))
			logger.Warn("Source %s failed: %v", src.Name(), res.err)
		case len(res.records) == 0:
			st.Status = models.SourceLimited
		default:
			st.Status = models.SourceConnected
			st.RecordCount = len(res.records)
			st.IsReal = true
			data = append(data, res.records...)
			logger.Debug("Source %s returned %d records", src.Name(), len(res.records))
		}
		statuses[i] = st
	}

	if len(a.sources) > 0 && len(errs) == len(a.sources) {
		return nil, statuses, errors.Join(errs...)
	}
	return dedupeIDs(data), statuses, nil
}

// dedupeIDs suffixes repeated ids with the lowest free "-N" so every id in
// the Dataset is unique, including against ids that already end in a suffix.
func dedupeIDs(d models.Dataset) models.Dataset {
	seen := make(map[string]bool, len(d))
	for i := range d {
		id := d[i].ID
		for n := 2; seen[id]; n++ {
			id = d[i].ID + "-" + strconv.Itoa(n)
		}
		seen[id] = true
		d[i].ID = id
	}
	return d
}
