// Package enrich derives classification fields for every roster record.
package enrich

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/okian/recruitstat/internal/domain/classify"
	"github.com/okian/recruitstat/internal/domain/model"
)

// chunkSize is the minimum slice handed to one goroutine; smaller datasets
// are enriched inline.
const chunkSize = 2048

// Record derives the enrichment fields for a single record.
func Record(r model.Record) model.EnrichedRecord {
	cohort, _ := classify.Cohort(r.BirthDate)
	return model.EnrichedRecord{
		Record:   r,
		Overseas: classify.IsOverseas(r.InstitutionTag),
		Tier:     classify.Tier(r.InstitutionTag),
		Province: classify.Province(r.Origin),
		Cohort:   cohort,
	}
}

// Dataset returns a new dataset of the same length and order. The input is
// not modified. Records are independent, so large inputs are split into
// chunks enriched concurrently.
func Dataset(ds model.Dataset) model.EnrichedDataset {
	out := make(model.EnrichedDataset, len(ds))
	if len(ds) <= chunkSize {
		for i := range ds {
			out[i] = Record(ds[i])
		}
		return out
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for start := 0; start < len(ds); start += chunkSize {
		end := min(start+chunkSize, len(ds))
		g.Go(func() error {
			for i := start; i < end; i++ {
				out[i] = Record(ds[i])
			}
			return nil
		})
	}
	_ = g.Wait() // workers never fail
	return out
}
