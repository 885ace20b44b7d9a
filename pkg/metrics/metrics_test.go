package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then every collector should be registered", func() {
				So(manager, ShouldNotBeNil)
				manager.uploadsTotal.WithLabelValues("accepted").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 10)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_ns"),
				WithSubsystem("test_sub"),
				WithMetricPrefix("pfx"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.datasetRecords.Set(7)

			Convey("Then names and labels should reflect the options", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_ns_test_sub_pfx_dataset_records" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
						So(f.GetMetric()[0].GetGauge().GetValue(), ShouldEqual, 7)
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording pipeline metrics", func() {
			before := testutil.ToFloat64(globalManager.uploadsTotal.WithLabelValues("rejected"))
			RecordUpload("rejected")
			UpdateDatasetRecords(42)
			RecordReport("pdf", "ok")

			Convey("Then the collectors should reflect the changes", func() {
				So(testutil.ToFloat64(globalManager.uploadsTotal.WithLabelValues("rejected")), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.datasetRecords), ShouldEqual, 42)
				So(testutil.ToFloat64(globalManager.reportsGenerated.WithLabelValues("pdf", "ok")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording without panicking", func() {
			So(func() {
				RecordUploadRecords(120)
				RecordStageDuration("enrich", 1.5)
				RecordDistributionsComputed()
				RecordReportDuration("html", 3)
				RecordReportPages(2)
				UpdateHistoryEntries(3)
				RecordAuthAttempt("ok")
				UpdateLiveClients(1)
				RecordHTTPRequest("upload", "POST", "200")
				RecordHTTPRequestDuration("upload", "POST", "200", 12)
				UpdateQueueSize(1)
				UpdateQueueCapacity(8)
				UpdateQueueUtilization(0.125)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueProcessingLatency(0.2)
				UpdateWorkerActiveCount(2)
				RecordWorkerProcessingLatency(800)
				RecordWorkerError()
				RecordErrorByComponent("render", "timeout")
				RecordErrorByType("timeout", "high")
				RecordErrorByEndpoint("upload", "POST", "client_error")
				RecordErrorLatency("http", "client_error", 4)
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})

		Convey("When gathering from the exported registry", func() {
			RecordUpload("accepted")
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)

			Convey("Then metric names should use the default namespace", func() {
				hit := false
				for _, f := range families {
					if strings.HasPrefix(f.GetName(), "recruitstat_roster_uploads_total") {
						hit = true
					}
				}
				So(hit, ShouldBeTrue)
			})
		})
	})
}
