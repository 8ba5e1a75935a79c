// Package metrics defines the Prometheus metrics of certificate generation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// GenerationMetrics holds the generation metrics. A nil *GenerationMetrics
// records nothing.
type GenerationMetrics struct {
	// GenerationsTotal counts generation requests by result status.
	GenerationsTotal *prometheus.CounterVec
	// PagesTotal counts rendered pages by template.
	PagesTotal *prometheus.CounterVec
	// DurationSeconds tracks end-to-end generation time.
	DurationSeconds prometheus.Histogram
	// MissingValuesTotal counts fields drawn without a value, by template.
	MissingValuesTotal *prometheus.CounterVec
	// SweptFilesTotal counts files removed by the retention sweeper.
	SweptFilesTotal prometheus.Counter
	// TemplateCacheTotal counts template cache lookups by result.
	TemplateCacheTotal *prometheus.CounterVec
}

// New creates the metrics and registers them with reg. Pass
// prometheus.DefaultRegisterer to expose them on the default handler.
func New(reg prometheus.Registerer) *GenerationMetrics {
	f := promauto.With(reg)
	return &GenerationMetrics{
		GenerationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "certgen_generations_total",
			Help: "Total number of generation requests by result status",
		}, []string{"status"}),
		PagesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "certgen_pages_total",
			Help: "Total number of certificate pages rendered by template",
		}, []string{"template"}),
		DurationSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "certgen_generation_duration_seconds",
			Help:    "Duration of a generation request in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		}),
		MissingValuesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "certgen_missing_values_total",
			Help: "Total number of fields drawn without a value by template",
		}, []string{"template"}),
		SweptFilesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "certgen_swept_files_total",
			Help: "Total number of expired files removed by the retention sweeper",
		}),
		TemplateCacheTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "certgen_template_cache_total",
			Help: "Total number of template cache lookups by result",
		}, []string{"result"}),
	}
}

// RecordGeneration records one finished request.
func (m *GenerationMetrics) RecordGeneration(status int, d time.Duration) {
	if m == nil {
		return
	}
	m.GenerationsTotal.WithLabelValues(statusLabel(status)).Inc()
	m.DurationSeconds.Observe(d.Seconds())
}

// RecordPages adds n rendered pages for template.
func (m *GenerationMetrics) RecordPages(template string, n int) {
	if m == nil {
		return
	}
	m.PagesTotal.WithLabelValues(template).Add(float64(n))
}

// RecordMissingValues adds n fields drawn without a value for template.
func (m *GenerationMetrics) RecordMissingValues(template string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.MissingValuesTotal.WithLabelValues(template).Add(float64(n))
}

// RecordSwept adds n removed files.
func (m *GenerationMetrics) RecordSwept(n int) {
	if m == nil {
		return
	}
	m.SweptFilesTotal.Add(float64(n))
}

// RecordCacheLookup records a template cache hit or miss.
func (m *GenerationMetrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.TemplateCacheTotal.WithLabelValues(result).Inc()
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	}
	return "2xx"
}
