package classify

import (
	"testing"

	"github.com/okian/recruitstat/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTier(t *testing.T) {
	Convey("Given institution category tags", t, func() {
		Convey("Overseas takes precedence over domestic markers", func() {
			So(Tier("海外院校,C9联盟"), ShouldEqual, model.TierOtherOverseas)
			So(Tier("C9联盟、海外院校、985"), ShouldEqual, model.TierOtherOverseas)
			So(IsOverseas("海外院校,C9联盟"), ShouldBeTrue)
		})

		Convey("Overseas tags are sub-classified by ranking", func() {
			So(Tier("海外院校,QS1-50"), ShouldEqual, model.TierQS50)
			So(Tier("海外院校 QS100"), ShouldEqual, model.TierQS100)
			So(Tier("QS1-50,QS100,海外院校"), ShouldEqual, model.TierQS50)
		})

		Convey("Ranking markers without the overseas marker are ignored", func() {
			So(Tier("QS1-50"), ShouldEqual, model.TierOther)
			So(IsOverseas("QS1-50"), ShouldBeFalse)
		})

		Convey("Domestic tags resolve by priority", func() {
			So(Tier("985,211,C9联盟"), ShouldEqual, model.TierC9)
			So(Tier("211,985"), ShouldEqual, model.Tier985)
			So(Tier("211"), ShouldEqual, model.Tier211)
			So(Tier("轨道交通合作院校"), ShouldEqual, model.TierRailPartner)
			So(Tier("优势学科院校,创新型大学"), ShouldEqual, model.TierStrongSubject)
			So(Tier("湖南省知名高校"), ShouldEqual, model.TierHunanNotable)
			So(Tier("创新型大学"), ShouldEqual, model.TierInnovative)
			So(Tier("其他签字增补院校"), ShouldEqual, model.TierSupplementary)
		})

		Convey("Anything else falls through to Other", func() {
			So(Tier(""), ShouldEqual, model.TierOther)
			So(Tier("普通本科"), ShouldEqual, model.TierOther)
		})
	})
}

func TestCohort(t *testing.T) {
	Convey("Given birth date strings", t, func() {
		check := func(in string, want model.Cohort, wantOK bool) {
			got, ok := Cohort(in)
			So(got, ShouldEqual, want)
			So(ok, ShouldEqual, wantOK)
		}

		Convey("Dash and slash dates are bucketed", func() {
			check("2001/07/15", model.Cohort2000s, true)
			check("1998-03-01", model.Cohort1995s, true)
			check("2005-01-01", model.Cohort2005s, true)
			check("1990-12-31", model.Cohort1990s, true)
			check("1999-12-31 00:00:00", model.Cohort1995s, true)
		})

		Convey("Compact dates use the first four characters", func() {
			check("20030412", model.Cohort2000s, true)
			check("1996年5月", model.Cohort1995s, true)
		})

		Convey("Years before 1990 are absent", func() {
			check("1988-03-01", model.CohortNone, false)
		})

		Convey("Blank and malformed dates are absent without panicking", func() {
			check("", model.CohortNone, false)
			check("   ", model.CohortNone, false)
			check("unknown", model.CohortNone, false)
			check("-05-01", model.CohortNone, false)
			check("九八年", model.CohortNone, false)
		})
	})
}

func TestProvince(t *testing.T) {
	Convey("Given place-of-origin strings", t, func() {
		Convey("Exact aliases resolve", func() {
			So(Province("湖南长沙"), ShouldEqual, "湖南")
			So(Province("北京"), ShouldEqual, "北京")
			So(Province("未知地区"), ShouldEqual, model.ProvinceOther)
		})

		Convey("Hyphenated input uses the prefix", func() {
			So(Province("湖南-株洲"), ShouldEqual, "湖南")
			So(Province("台湾-台北"), ShouldEqual, "台湾")
			So(Province("-"), ShouldEqual, "")
		})

		Convey("Substrings resolve in table order", func() {
			So(Province("湖南省长沙市"), ShouldEqual, "湖南")
			So(Province("黑龙江哈尔滨"), ShouldEqual, "黑龙江")
			So(Province("广西桂林"), ShouldEqual, "广西")
		})

		Convey("Unknown input is returned unchanged", func() {
			So(Province("Atlantis"), ShouldEqual, "Atlantis")
		})

		Convey("Blank input is Unknown", func() {
			So(Province(""), ShouldEqual, model.ProvinceUnknown)
		})
	})
}
