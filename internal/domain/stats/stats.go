// Package stats aggregates an enriched roster into distribution statistics.
package stats

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/okian/recruitstat/internal/domain/model"
)

// Agreement markers searched for in the agreement status cell.
const (
	BilateralMarker  = "两方"
	TrilateralMarker = "三方"
)

// Dimension names a distribution; the value is its JSON key.
type Dimension string

// Dimensions, in reporting order.
const (
	DimPolitical   Dimension = "political_status"
	DimGender      Dimension = "gender"
	DimAge         Dimension = "age_distribution"
	DimEducation   Dimension = "education"
	DimInstitution Dimension = "institution_category"
	DimMajorType   Dimension = "major_type"
	DimProvince    Dimension = "province_distribution"
)

// Dimensions lists every distribution in reporting order.
var Dimensions = []Dimension{
	DimPolitical, DimGender, DimAge, DimEducation, DimInstitution, DimMajorType, DimProvince,
}

var dimensionKeys = map[Dimension]func(*model.EnrichedRecord) string{
	DimPolitical:   func(r *model.EnrichedRecord) string { return r.PoliticalStatus },
	DimGender:      func(r *model.EnrichedRecord) string { return r.Gender },
	DimAge:         func(r *model.EnrichedRecord) string { return string(r.Cohort) },
	DimEducation:   func(r *model.EnrichedRecord) string { return r.Education },
	DimInstitution: func(r *model.EnrichedRecord) string { return string(r.Tier) },
	DimMajorType:   func(r *model.EnrichedRecord) string { return r.MajorType },
	DimProvince:    func(r *model.EnrichedRecord) string { return r.Province },
}

// Entry is one category of a distribution.
type Entry struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Distribution is ordered by descending count; equal counts keep the order in
// which categories first appear in the dataset.
type Distribution []Entry

// Sum returns the total count across entries.
func (d Distribution) Sum() int {
	n := 0
	for _, e := range d {
		n += e.Count
	}
	return n
}

// Snapshot is the full statistics result for one dataset.
type Snapshot struct {
	TotalCount      int `json:"total_count"`
	BilateralCount  int `json:"bilateral_count"`
	TrilateralCount int `json:"trilateral_count"`

	PoliticalStatus      Distribution `json:"political_status"`
	Gender               Distribution `json:"gender"`
	AgeDistribution      Distribution `json:"age_distribution"`
	Education            Distribution `json:"education"`
	InstitutionCategory  Distribution `json:"institution_category"`
	MajorType            Distribution `json:"major_type"`
	ProvinceDistribution Distribution `json:"province_distribution"`

	SpecialInstitutions SpecialInstitutions `json:"special_institutions"`
}

// Distribution returns the distribution for d, or nil for an unknown dimension.
func (s Snapshot) Distribution(d Dimension) Distribution {
	if p := (&s).slot(d); p != nil {
		return *p
	}
	return nil
}

func (s *Snapshot) slot(d Dimension) *Distribution {
	switch d {
	case DimPolitical:
		return &s.PoliticalStatus
	case DimGender:
		return &s.Gender
	case DimAge:
		return &s.AgeDistribution
	case DimEducation:
		return &s.Education
	case DimInstitution:
		return &s.InstitutionCategory
	case DimMajorType:
		return &s.MajorType
	case DimProvince:
		return &s.ProvinceDistribution
	}
	return nil
}

// Aggregate computes counts, the seven distributions and the special
// institution tally. Dimensions are independent reads of ds and run
// concurrently. A zero-record dataset yields empty distributions. The only
// error is ctx cancellation.
func Aggregate(ctx context.Context, ds model.EnrichedDataset) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	total := len(ds)
	snap := Snapshot{TotalCount: total}
	for i := range ds {
		status := ds[i].AgreementStatus
		if strings.Contains(status, BilateralMarker) {
			snap.BilateralCount++
		}
		if strings.Contains(status, TrilateralMarker) {
			snap.TrilateralCount++
		}
	}

	results := make([]Distribution, len(Dimensions))
	g, gctx := errgroup.WithContext(ctx)
	for i, d := range Dimensions {
		key := dimensionKeys[d]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = Count(ds, key)
			return nil
		})
	}
	var special SpecialInstitutions
	g.Go(func() error {
		special = TallySpecial(ds)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, fmt.Errorf("aggregate: %w", err)
	}

	for i, d := range Dimensions {
		*snap.slot(d) = results[i]
	}
	snap.SpecialInstitutions = special
	return snap, nil
}

// Count groups records by key. Empty keys are nulls: excluded from the
// entries but still part of the percentage denominator.
func Count(ds model.EnrichedDataset, key func(*model.EnrichedRecord) string) Distribution {
	order := make([]string, 0, 8)
	counts := make(map[string]int, 8)
	for i := range ds {
		k := key(&ds[i])
		if k == "" {
			continue
		}
		if _, seen := counts[k]; !seen {
			order = append(order, k)
		}
		counts[k]++
	}

	dist := make(Distribution, len(order))
	for i, k := range order {
		dist[i] = Entry{Name: k, Count: counts[k], Percentage: Percentage(counts[k], len(ds))}
	}
	sort.SliceStable(dist, func(i, j int) bool { return dist[i].Count > dist[j].Count })
	return dist
}

// Percentage is count/total*100 rounded half-to-even to one decimal place.
func Percentage(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.RoundToEven(float64(count)/float64(total)*1000) / 10
}
