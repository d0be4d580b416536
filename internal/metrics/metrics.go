package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "terroir",
			Name:      "http_requests_total",
			Help:      "Count of API requests by endpoint and status class.",
		},
		[]string{"endpoint", "status"},
	)

	scheduleEvaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "terroir",
			Name:      "schedule_evaluations_total",
			Help:      "Count of opening-status evaluations by result.",
		},
		[]string{"result"},
	)

	geocodeLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "terroir",
			Name:      "geocode_lookups_total",
			Help:      "Count of geocoder lookups by cache outcome.",
		},
		[]string{"outcome"},
	)

	photoUploads = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "terroir",
			Name:      "photo_uploads_total",
			Help:      "Count of stored photo uploads.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, scheduleEvaluations, geocodeLookups, photoUploads)
	})
}

func IncHTTPRequest(endpoint, status string) {
	httpRequests.WithLabelValues(endpoint, status).Inc()
}

func IncScheduleEvaluation(result string) {
	scheduleEvaluations.WithLabelValues(result).Inc()
}

func IncGeocodeLookup(outcome string) {
	geocodeLookups.WithLabelValues(outcome).Inc()
}

func IncPhotoUpload() {
	photoUploads.Inc()
}
