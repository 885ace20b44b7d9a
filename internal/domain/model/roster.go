// Package model contains domain models passed between layers.
package model

import (
	"math"
	"strconv"
	"strings"
)

// Roster column headers as they appear in the uploaded spreadsheet.
const (
	ColSeq             = "序号"
	ColName            = "姓名"
	ColGender          = "性别"
	ColAge             = "年龄"
	ColBirthDate       = "出生日期"
	ColPoliticalStatus = "政治面貌"
	ColOrigin          = "籍贯"
	ColAgreementStatus = "应聘状态"
	ColPosition        = "应聘职位"
	ColEducation       = "最高学历"
	ColMajor           = "最高学历专业"
	ColMajorType       = "专业类型"
	ColInstitution     = "最高学历毕业院校"
	ColInstitutionTag  = "最高学历毕业院校类别"
)

// Derived column headers appended by enrichment.
const (
	ColOverseas = "是否为海外院校"
	ColTier     = "最高学历毕业院校类别-分类1"
	ColProvince = "籍贯-省份"
	ColCohort   = "出生年代"
)

// RequiredColumns is the input contract, in reporting order.
var RequiredColumns = []string{
	ColSeq, ColName, ColGender, ColAge, ColBirthDate, ColPoliticalStatus, ColOrigin,
	ColAgreementStatus, ColPosition, ColEducation, ColMajor, ColMajorType,
	ColInstitution, ColInstitutionTag,
}

// Table is the raw tabular form of an upload: a header row plus cell strings.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Index maps each header to its first position.
func (t Table) Index() map[string]int {
	idx := make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		c = strings.TrimSpace(c)
		if _, dup := idx[c]; !dup {
			idx[c] = i
		}
	}
	return idx
}

// Records converts rows into typed records. Columns absent from the header
// yield empty fields; callers validate the header first.
func (t Table) Records() Dataset {
	idx := t.Index()
	cell := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	out := make(Dataset, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, Record{
			Seq:             cell(row, ColSeq),
			Name:            cell(row, ColName),
			Gender:          cell(row, ColGender),
			Age:             parseAge(cell(row, ColAge)),
			BirthDate:       cell(row, ColBirthDate),
			PoliticalStatus: cell(row, ColPoliticalStatus),
			Origin:          cell(row, ColOrigin),
			AgreementStatus: cell(row, ColAgreementStatus),
			Position:        cell(row, ColPosition),
			Education:       cell(row, ColEducation),
			Major:           cell(row, ColMajor),
			MajorType:       cell(row, ColMajorType),
			Institution:     cell(row, ColInstitution),
			InstitutionTag:  cell(row, ColInstitutionTag),
		})
	}
	return out
}

// parseAge accepts "23" and spreadsheet renderings such as "23.0"; anything
// else is 0.
func parseAge(s string) int {
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int(f)
	}
	return 0
}

// Record is one roster row. Empty strings stand for blank cells.
type Record struct {
	Seq             string `json:"seq"`
	Name            string `json:"name"`
	Gender          string `json:"gender"`
	Age             int    `json:"age"`
	BirthDate       string `json:"birth_date"`
	PoliticalStatus string `json:"political_status"`
	Origin          string `json:"origin"`
	AgreementStatus string `json:"agreement_status"`
	Position        string `json:"position"`
	Education       string `json:"education"`
	Major           string `json:"major"`
	MajorType       string `json:"major_type"`
	Institution     string `json:"institution"`
	InstitutionTag  string `json:"institution_tag"`
}

// Dataset is an ordered sequence of records.
type Dataset []Record

// Tier is the normalized institution classification.
type Tier string

// Tier values. Overseas tiers are only produced for overseas-tagged records.
const (
	TierQS50          Tier = "QS1-50"
	TierQS100         Tier = "QS100"
	TierOtherOverseas Tier = "其他海外院校"
	TierC9            Tier = "C9联盟"
	Tier985           Tier = "985"
	Tier211           Tier = "211"
	TierRailPartner   Tier = "轨道交通合作院校"
	TierStrongSubject Tier = "优势学科院校"
	TierHunanNotable  Tier = "湖南省知名高校"
	TierInnovative    Tier = "创新型大学"
	TierSupplementary Tier = "其他签字增补院校"
	TierOther         Tier = "其他"
)

// Cohort is a five-year birth bucket. The zero value means absent.
type Cohort string

// Cohort values.
const (
	CohortNone  Cohort = ""
	Cohort2005s Cohort = "05后"
	Cohort2000s Cohort = "00后"
	Cohort1995s Cohort = "95后"
	Cohort1990s Cohort = "90后"
)

// Province names produced outside the alias table.
const (
	ProvinceUnknown = "未知"
	ProvinceOther   = "其他"
)

// EnrichedRecord is a Record plus its derived classification fields.
type EnrichedRecord struct {
	Record
	Overseas bool   `json:"overseas"`
	Tier     Tier   `json:"tier"`
	Province string `json:"province"`
	Cohort   Cohort `json:"cohort,omitempty"`
}

// OverseasLabel renders Overseas the way the roster spells booleans.
func (e EnrichedRecord) OverseasLabel() string {
	if e.Overseas {
		return "是"
	}
	return "否"
}

// EnrichedDataset is the output of enrichment; same length and order as its input.
type EnrichedDataset []EnrichedRecord

// Records strips the derived fields.
func (ds EnrichedDataset) Records() Dataset {
	out := make(Dataset, len(ds))
	for i := range ds {
		out[i] = ds[i].Record
	}
	return out
}

// Columns is the export header: required columns followed by derived ones.
func (ds EnrichedDataset) Columns() []string {
	cols := make([]string, 0, len(RequiredColumns)+4)
	cols = append(cols, RequiredColumns...)
	return append(cols, ColOverseas, ColTier, ColProvince, ColCohort)
}

// Row renders record i in Columns order.
func (ds EnrichedDataset) Row(i int) []string {
	e := ds[i]
	age := ""
	if e.Age != 0 {
		age = strconv.Itoa(e.Age)
	}
	return []string{
		e.Seq, e.Name, e.Gender, age, e.BirthDate, e.PoliticalStatus, e.Origin,
		e.AgreementStatus, e.Position, e.Education, e.Major, e.MajorType,
		e.Institution, e.InstitutionTag,
		e.OverseasLabel(), string(e.Tier), e.Province, string(e.Cohort),
	}
}
