package types_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/okian/recruitstat/internal/domain/stats"
	types "github.com/okian/recruitstat/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStatisticsResponse(t *testing.T) {
	Convey("Given a statistics response", t, func() {
		resp := types.StatisticsResponse{
			Snapshot: stats.Snapshot{
				TotalCount: 3,
				Gender:     stats.Distribution{{Name: "男", Count: 2, Percentage: 66.7}},
			},
			UploadID:    "u-1",
			UploadTime:  time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
			Description: "春招",
		}

		Convey("When encoded", func() {
			b, err := json.Marshal(resp)
			So(err, ShouldBeNil)

			var m map[string]any
			So(json.Unmarshal(b, &m), ShouldBeNil)

			Convey("Then snapshot fields are flattened next to upload metadata", func() {
				So(m["total_count"], ShouldEqual, float64(3))
				So(m["description"], ShouldEqual, "春招")
				So(m["upload_time"], ShouldEqual, "2025-01-02T03:04:05Z")
				So(m["gender"], ShouldHaveLength, 1)
				So(m, ShouldContainKey, "special_institutions")
			})
		})
	})
}

func TestReportRequest(t *testing.T) {
	Convey("Given a report request body", t, func() {
		var req types.ReportRequest
		err := json.Unmarshal([]byte(`{"chart_images":{"gender":"AAAA"}}`), &req)

		Convey("Then chart images decode by dimension key", func() {
			So(err, ShouldBeNil)
			So(req.ChartImages["gender"], ShouldEqual, "AAAA")
		})
	})

	Convey("Given an empty report response content", t, func() {
		b, err := json.Marshal(types.ReportResponse{Message: "ok", Filename: "r.pdf"})

		Convey("Then content is omitted", func() {
			So(err, ShouldBeNil)
			So(string(b), ShouldNotContainSubstring, "content")
		})
	})
}
