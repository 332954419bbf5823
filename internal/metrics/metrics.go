// Package metrics holds the Prometheus collectors of the image pipeline.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_uploads_total",
			Help: "Processed image uploads by outcome",
		},
		[]string{"outcome"},
	)
	UploadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "image_upload_duration_seconds",
			Help:    "Time spent normalizing, extracting and resizing an upload",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
	ExtractionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coordinate_extractions_total",
			Help: "Coordinate extraction results by status",
		},
		[]string{"status"},
	)
	ExtractionCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coordinate_extraction_cache_hits_total",
			Help: "Extractions answered from the content hash cache",
		},
	)
	CoordinateUpsertFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coordinate_upsert_failures_total",
			Help: "Coordinate store writes that failed after a canvas save",
		},
	)
)

var registerOnce sync.Once

// Register adds the pipeline collectors to reg. Later calls are no-ops.
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(
			UploadsTotal,
			UploadDuration,
			ExtractionsTotal,
			ExtractionCacheHits,
			CoordinateUpsertFailures,
		)
	})
}
