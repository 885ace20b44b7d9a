package rostertool

import (
	"fmt"
	"math"

	"github.com/okian/recruitstat/internal/domain/stats"
)

// percentTolerance absorbs float formatting differences in percentages.
const percentTolerance = 1e-9

// Compare lists every difference between a locally computed snapshot and the
// one a server returned. An empty result means they agree.
func Compare(local, remote stats.Snapshot) []string {
	var diffs []string
	counts := []struct {
		name string
		a, b int
	}{
		{"total_count", local.TotalCount, remote.TotalCount},
		{"bilateral_count", local.BilateralCount, remote.BilateralCount},
		{"trilateral_count", local.TrilateralCount, remote.TrilateralCount},
		{"special." + stats.AllianceKey, local.SpecialInstitutions.AllianceExcludingFlagships, remote.SpecialInstitutions.AllianceExcludingFlagships},
	}
	for _, name := range stats.Flagships {
		counts = append(counts, struct {
			name string
			a, b int
		}{"special." + name, local.SpecialInstitutions.Count(name), remote.SpecialInstitutions.Count(name)})
	}
	for _, c := range counts {
		if c.a != c.b {
			diffs = append(diffs, fmt.Sprintf("%s: local %d, server %d", c.name, c.a, c.b))
		}
	}

	for _, d := range stats.Dimensions {
		diffs = append(diffs, compareDistribution(string(d), local.Distribution(d), remote.Distribution(d))...)
	}
	return diffs
}

func compareDistribution(name string, a, b stats.Distribution) []string {
	if len(a) != len(b) {
		return []string{fmt.Sprintf("%s: local %d categories, server %d", name, len(a), len(b))}
	}
	var diffs []string
	for i := range a {
		switch {
		case a[i].Name != b[i].Name:
			diffs = append(diffs, fmt.Sprintf("%s[%d]: local %q, server %q", name, i, a[i].Name, b[i].Name))
		case a[i].Count != b[i].Count:
			diffs = append(diffs, fmt.Sprintf("%s[%s]: local count %d, server %d", name, a[i].Name, a[i].Count, b[i].Count))
		case math.Abs(a[i].Percentage-b[i].Percentage) > percentTolerance:
			diffs = append(diffs, fmt.Sprintf("%s[%s]: local %.2f%%, server %.2f%%", name, a[i].Name, a[i].Percentage, b[i].Percentage))
		}
	}
	return diffs
}
