package aggregator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aggregatorPagesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_pages_total",
		Help: "Number of pages the current aggregation run requests",
	})

	aggregatorPagesCompleted = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_pages_completed",
		Help: "Number of pages fetched successfully in the current run",
	})

	aggregatorCourses = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_courses",
		Help: "Number of courses aggregated so far",
	})

	aggregatorLoading = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_loading",
		Help: "1 while an aggregation run is in progress",
	})

	aggregatorPageFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_page_failures_total",
		Help: "Total number of pages that could not be fetched",
	})

	aggregatorRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_run_duration_seconds",
		Help:    "Duration of complete aggregation runs",
		Buckets: []float64{1, 10, 30, 60, 120, 300, 600, 1200},
	})
)
