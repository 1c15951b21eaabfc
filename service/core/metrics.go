package core

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so several service contexts, tests included, never collide
type Metrics struct {
	registry           *prometheus.Registry
	reportsTotal       *prometheus.CounterVec
	offsetOutcomes     *prometheus.CounterVec
	stepDuration       *prometheus.HistogramVec
	articlesClassified *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		reportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newsprice_reports_total",
				Help: "Total number of correlation reports by source and result",
			},
			[]string{"source", "result"},
		),
		offsetOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newsprice_offset_outcomes_total",
				Help: "Correlation outcomes per trading day offset",
			},
			[]string{"offset", "outcome"},
		),
		stepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "newsprice_step_duration_seconds",
				Help:    "Duration of report steps in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"step"},
		),
		articlesClassified: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newsprice_articles_classified_total",
				Help: "Articles scored, by whether the score was reused from storage",
			},
			[]string{"reused"},
		),
	}
}

// nil receivers are no-ops, a context built without metrics still works

func (m *Metrics) RecordReport(source string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.reportsTotal.WithLabelValues(source, result).Inc()
}

func (m *Metrics) RecordOutcomes(report *CorrelationReport) {
	if m == nil || report == nil {
		return
	}
	for _, res := range report.Results {
		m.offsetOutcomes.WithLabelValues(strconv.Itoa(res.Offset), res.Outcome.Name()).Inc()
	}
}

func (m *Metrics) ObserveStep(step string, start time.Time) {
	if m == nil {
		return
	}
	m.stepDuration.WithLabelValues(step).Observe(time.Since(start).Seconds())
}

func (m *Metrics) RecordClassified(reused bool, n int) {
	if m == nil || n == 0 {
		return
	}
	m.articlesClassified.WithLabelValues(strconv.FormatBool(reused)).Add(float64(n))
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
