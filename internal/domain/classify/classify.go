// Package classify maps raw roster fields to normalized categories.
//
// Every function is total: malformed input yields a fallback category or an
// absent value, never an error or a panic.
package classify

import (
	"strconv"
	"strings"

	"github.com/okian/recruitstat/internal/domain/model"
)

// OverseasMarker tags an institution as overseas in the free-text category cell.
const OverseasMarker = "海外院校"

// rule maps a substring marker to a result; lists are scanned in order and the
// first match wins.
type rule[T any] struct {
	marker string
	result T
}

var overseasRules = []rule[model.Tier]{
	{"QS1-50", model.TierQS50},
	{"QS100", model.TierQS100},
}

var domesticRules = []rule[model.Tier]{
	{"C9联盟", model.TierC9},
	{"985", model.Tier985},
	{"211", model.Tier211},
	{"轨道交通合作院校", model.TierRailPartner},
	{"优势学科院校", model.TierStrongSubject},
	{"湖南省知名高校", model.TierHunanNotable},
	{"创新型大学", model.TierInnovative},
	{"其他签字增补院校", model.TierSupplementary},
}

func firstMatch[T any](rules []rule[T], s string) (T, bool) {
	for _, r := range rules {
		if strings.Contains(s, r.marker) {
			return r.result, true
		}
	}
	var zero T
	return zero, false
}

// IsOverseas reports whether the category tag carries the overseas marker.
func IsOverseas(tag string) bool {
	return strings.Contains(tag, OverseasMarker)
}

// Tier classifies an institution category tag. The overseas marker takes
// precedence over any domestic tag in the same cell.
func Tier(tag string) model.Tier {
	if IsOverseas(tag) {
		if t, ok := firstMatch(overseasRules, tag); ok {
			return t
		}
		return model.TierOtherOverseas
	}
	if t, ok := firstMatch(domesticRules, tag); ok {
		return t
	}
	return model.TierOther
}

var cohortFloors = []struct {
	from   int
	cohort model.Cohort
}{
	{2005, model.Cohort2005s},
	{2000, model.Cohort2000s},
	{1995, model.Cohort1995s},
	{1990, model.Cohort1990s},
}

// Cohort buckets a birth date by year. Years before 1990 and unparseable
// dates are absent (ok == false).
func Cohort(birth string) (model.Cohort, bool) {
	year, ok := BirthYear(birth)
	if !ok {
		return model.CohortNone, false
	}
	for _, f := range cohortFloors {
		if year >= f.from {
			return f.cohort, true
		}
	}
	return model.CohortNone, false
}

// BirthYear extracts the year: the segment before the first '-', else before
// the first '/', else the first four characters.
func BirthYear(birth string) (int, bool) {
	s := strings.TrimSpace(birth)
	if s == "" {
		return 0, false
	}
	var head string
	switch {
	case strings.Contains(s, "-"):
		head, _, _ = strings.Cut(s, "-")
	case strings.Contains(s, "/"):
		head, _, _ = strings.Cut(s, "/")
	default:
		r := []rune(s)
		if len(r) > 4 {
			r = r[:4]
		}
		head = string(r)
	}
	year, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return 0, false
	}
	return year, true
}

// provinceAliases is scanned in order for substring matches, so longer or
// more specific keys precede the keys they contain.
var provinceAliases = []rule[string]{
	{"湖南长沙", "湖南"},
	{"湖南", "湖南"},
	{"北京", "北京"},
	{"上海", "上海"},
	{"广东", "广东"},
	{"江苏", "江苏"},
	{"浙江", "浙江"},
	{"山东", "山东"},
	{"河南", "河南"},
	{"四川", "四川"},
	{"湖北", "湖北"},
	{"河北", "河北"},
	{"安徽", "安徽"},
	{"福建", "福建"},
	{"江西", "江西"},
	{"辽宁", "辽宁"},
	{"陕西", "陕西"},
	{"山西", "山西"},
	{"重庆", "重庆"},
	{"天津", "天津"},
	{"云南", "云南"},
	{"贵州", "贵州"},
	{"广西", "广西"},
	{"海南", "海南"},
	{"甘肃", "甘肃"},
	{"青海", "青海"},
	{"宁夏", "宁夏"},
	{"新疆", "新疆"},
	{"西藏", "西藏"},
	{"内蒙古", "内蒙古"},
	{"黑龙江", "黑龙江"},
	{"吉林", "吉林"},
	{"未知地区", model.ProvinceOther},
}

var provinceExact = func() map[string]string {
	m := make(map[string]string, len(provinceAliases))
	for _, r := range provinceAliases {
		m[r.marker] = r.result
	}
	return m
}()

// Province normalizes a place-of-origin string to a province name.
//
// Resolution order: blank is Unknown; exact alias; text before the first '-'
// (aliased if known, else verbatim); first alias contained in the input;
// otherwise the input unchanged.
func Province(origin string) string {
	if origin == "" {
		return model.ProvinceUnknown
	}
	if p, ok := provinceExact[origin]; ok {
		return p
	}
	if head, _, found := strings.Cut(origin, "-"); found {
		if p, ok := provinceExact[head]; ok {
			return p
		}
		return head
	}
	if p, ok := firstMatch(provinceAliases, origin); ok {
		return p
	}
	return origin
}
