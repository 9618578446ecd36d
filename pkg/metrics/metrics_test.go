package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithRegistry(registry))

			Convey("Then every collector should be registered", func() {
				So(manager, ShouldNotBeNil)
				manager.rankingRequests.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When creating with a prefix, labels and namespace", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithMetricPrefix("deck"),
				WithConstLabels(map[string]string{"env": "test"}),
				WithErrorBuckets([]float64{1, 2, 3}),
				WithRegistry(registry),
			)
			manager.rankingNoMatch.Inc()

			Convey("Then metric names should carry them", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_unit_deck_no_match_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When latency buckets are not ascending", func() {
			manager := NewManager(
				WithRegistry(prometheus.NewRegistry()),
				WithLatencyBuckets([]float64{100, 10}),
				WithErrorBuckets(nil),
			)

			Convey("Then the defaults are kept", func() {
				So(manager.latencyBuckets, ShouldResemble, defaultLatencyBuckets)
				So(manager.errorBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording ranking metrics", func() {
			before := testutil.ToFloat64(globalManager.rankingRequests)
			RecordRankingRequest()
			RecordRankingNoMatch()
			RecordRankingLatency(120)
			RecordRankingShape(17, 80, 12)

			Convey("Then the request counter should move", func() {
				So(testutil.ToFloat64(globalManager.rankingRequests), ShouldEqual, before+1)
			})
		})

		Convey("When recording upstream call metrics", func() {
			RecordSearchCall("high", OutcomeOK, 300)
			RecordSearchCall("low", OutcomeError, 5000)
			RecordTranscriptFetch(OutcomeEmpty)
			RecordTranscriptBatch()
			RecordCatalogRefresh("official", OutcomeOK)
			UpdateCatalogSize(130)
			RecordSavedItemWrite("deck", "create")

			Convey("Then labelled series should be readable", func() {
				So(testutil.ToFloat64(globalManager.searchCalls.WithLabelValues("low", OutcomeError)), ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(globalManager.catalogSize), ShouldEqual, 130)
			})
		})

		Convey("When recording HTTP and error metrics", func() {
			So(func() {
				RecordHTTPRequest("rank", "POST", "200")
				RecordHTTPRequestDuration("rank", "POST", "200", 900)
				RecordErrorByComponent("youtube", "timeout")
				RecordErrorByType("client_error", "medium")
				RecordErrorByEndpoint("analyze", "POST", "client_error")
				RecordErrorLatency("http", "client_error", 3)
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(42)
			}, ShouldNotPanic)
		})

		Convey("When exporting the registry", func() {
			RecordRankingRequest()
			count, err := testutil.GatherAndCount(GetRegistry(), "decktube_ranking_requests_total")

			Convey("Then the custom registry should expose the series", func() {
				So(err, ShouldBeNil)
				So(count, ShouldEqual, 1)
			})
		})
	})
}

func TestMetricsDisabled(t *testing.T) {
	Convey("Given a disabled global manager", t, func() {
		saved := globalManager
		defer func() { globalManager = saved }()
		globalManager = NewManager(WithRegistry(prometheus.NewRegistry()), WithEnabled(false))

		RecordRankingRequest()

		Convey("Then recording should be a no-op", func() {
			So(testutil.ToFloat64(globalManager.rankingRequests), ShouldEqual, 0)
		})
	})
}
