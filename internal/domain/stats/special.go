package stats

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/okian/recruitstat/internal/domain/model"
)

// Flagships are the institutions tallied individually, in report order.
var Flagships = []string{
	"清华大学",
	"北京大学",
	"同济大学",
	"中南大学",
	"北京交通大学",
	"西南交通大学",
	"兰州交通大学",
	"大连交通大学",
	"华东交通大学",
}

// AllianceFlagships are the flagships that belong to the C9 alliance. They are
// subtracted from the alliance tier count so the alliance figure covers only
// the remaining members.
var AllianceFlagships = []string{"清华大学", "北京大学"}

// AllianceKey is the JSON key of the alliance remainder.
const AllianceKey = "C9联盟"

// InstitutionCount is a per-institution headcount.
type InstitutionCount struct {
	Name  string
	Count int
}

// SpecialInstitutions holds flagship headcounts in Flagships order plus the
// alliance remainder. The remainder is plain arithmetic and goes negative if
// flagship rows are tagged with a tier other than the alliance.
type SpecialInstitutions struct {
	Flagships                  []InstitutionCount
	AllianceExcludingFlagships int
}

// Count returns the headcount for a flagship name.
func (s SpecialInstitutions) Count(name string) int {
	for _, f := range s.Flagships {
		if f.Name == name {
			return f.Count
		}
	}
	return 0
}

// TallySpecial counts exact institution-name matches for each flagship and
// the alliance remainder.
func TallySpecial(ds model.EnrichedDataset) SpecialInstitutions {
	counts := make(map[string]int, len(Flagships))
	alliance := 0
	for i := range ds {
		counts[ds[i].Institution]++
		if ds[i].Tier == model.TierC9 {
			alliance++
		}
	}

	out := SpecialInstitutions{Flagships: make([]InstitutionCount, len(Flagships))}
	for i, name := range Flagships {
		out.Flagships[i] = InstitutionCount{Name: name, Count: counts[name]}
	}
	for _, name := range AllianceFlagships {
		alliance -= counts[name]
	}
	out.AllianceExcludingFlagships = alliance
	return out
}

// MarshalJSON renders an object keyed by institution name, flagships first in
// their fixed order and the alliance remainder last.
func (s SpecialInstitutions) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(name string, n int) error {
		k, err := json.Marshal(name)
		if err != nil {
			return err
		}
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		buf.Write(k)
		fmt.Fprintf(&buf, ":%d", n)
		return nil
	}
	for _, f := range s.Flagships {
		if err := write(f.Name, f.Count); err != nil {
			return nil, err
		}
	}
	if err := write(AllianceKey, s.AllianceExcludingFlagships); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts the object written by MarshalJSON. Names outside
// Flagships are ignored.
func (s *SpecialInstitutions) UnmarshalJSON(data []byte) error {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	s.Flagships = make([]InstitutionCount, len(Flagships))
	for i, name := range Flagships {
		s.Flagships[i] = InstitutionCount{Name: name, Count: m[name]}
	}
	s.AllianceExcludingFlagships = m[AllianceKey]
	return nil
}
