package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	backendAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docintake_backend_attempts_total",
			Help: "Total number of recognition backend attempts",
		},
		[]string{"backend", "result"}, // result: meaningful, empty, error
	)

	backendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docintake_backend_duration_seconds",
			Help:    "Recognition backend call duration in seconds",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		},
		[]string{"backend"},
	)

	extractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docintake_extractions_total",
			Help: "Total number of document extractions",
		},
		[]string{"kind", "result"}, // result: meaningful, empty, persist_failed
	)

	fallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "docintake_fallbacks_total",
			Help: "Extractions that needed more than one backend",
		},
	)

	fieldsExtracted = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docintake_fields_extracted",
			Help:    "Number of identity fields recovered per extraction",
			Buckets: prometheus.LinearBuckets(0, 1, 14),
		},
	)
)
