package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scanPassTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carakube_scan_pass_total",
			Help: "Total scan passes by outcome.",
		},
		[]string{"outcome"},
	)
	scanPassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "carakube_scan_pass_duration_seconds",
			Help:    "Duration of full scan passes.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)
	scanCategoryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carakube_scan_category_failures_total",
			Help: "Total rule category evaluations that failed.",
		},
		[]string{"category"},
	)
	graphNodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "carakube_graph_nodes",
			Help: "Node count of the last published graph.",
		},
	)
	graphLinks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "carakube_graph_links",
			Help: "Link count of the last published graph.",
		},
	)
	graphFindings = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "carakube_graph_findings",
			Help: "Finding count of the last published graph.",
		},
	)
)
