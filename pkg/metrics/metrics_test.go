package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then collectors are registered on that registry", func() {
				So(manager, ShouldNotBeNil)
				manager.entriesSubmitted.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When creating with custom naming", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10}),
				WithRecomputeBuckets([]float64{0.5}),
				WithPrometheusRegistry(registry),
			)
			So(manager.recomputeBuckets, ShouldResemble, []float64{0.5})
			manager.entriesSubmitted.Inc()

			Convey("Then metric names carry the namespace and subsystem", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_unit_entries_submitted_total")
			})
		})

		Convey("When empty options are given", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithRecomputeBuckets(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "icao")
				So(manager.subsystem, ShouldEqual, "scores")
				So(len(manager.histogramBuckets), ShouldBeGreaterThan, 0)
				So(len(manager.recomputeBuckets), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording submissions", func() {
			before := testutil.ToFloat64(globalManager.entriesSubmitted)
			RecordEntrySubmitted()
			RecordEntrySubmitted()

			Convey("Then the counter advances", func() {
				So(testutil.ToFloat64(globalManager.entriesSubmitted), ShouldEqual, before+2)
			})
		})

		Convey("When recording rejections by reason", func() {
			before := testutil.ToFloat64(globalManager.submissionsRejected.WithLabelValues("missing_name"))
			RecordSubmissionRejected("missing_name")

			Convey("Then only that reason advances", func() {
				So(testutil.ToFloat64(globalManager.submissionsRejected.WithLabelValues("missing_name")), ShouldEqual, before+1)
			})
		})

		Convey("When recording deletes", func() {
			before := testutil.ToFloat64(globalManager.entriesDeleted)
			RecordEntriesDeleted(3)

			Convey("Then the counter adds the batch size", func() {
				So(testutil.ToFloat64(globalManager.entriesDeleted), ShouldEqual, before+3)
			})
		})

		Convey("When recording a snapshot", func() {
			RecordSnapshot(42)

			Convey("Then the gauge holds the latest size", func() {
				So(testutil.ToFloat64(globalManager.snapshotEntries), ShouldEqual, 42)
			})
		})

		Convey("When recording the remaining collectors", func() {
			Convey("Then nothing panics", func() {
				So(func() {
					RecordIdempotentReplay()
					RecordBulkDelete()
					RecordStoreError("create")
					RecordStoreLatency("create", 1.5)
					RecordSnapshotRecompute(0.3)
					UpdateStreamListeners(2)
					RecordStreamCoalesced()
					RecordExport("csv")
					RecordHTTPRequest("entries", "GET", "200")
					RecordHTTPRequestDuration("entries", "GET", "200", 4)
					RecordErrorByEndpoint("entries", "POST", "client_error")
					UpdateSystemMemoryUsage(1024)
					UpdateSystemGoroutineCount(10)
				}, ShouldNotPanic)
			})
		})

		Convey("Then the registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
