package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unihaven/unihaven/backend/compat"
)

// matchMetrics holds the Prometheus collectors exported on /metrics.
type matchMetrics struct {
	registry *prometheus.Registry

	ScoresComputed *prometheus.CounterVec
	ScoreValues    prometheus.Histogram
	AlertsSent     prometheus.Counter
	AlertClients   prometheus.Gauge
}

func newMatchMetrics() *matchMetrics {
	m := &matchMetrics{
		registry: prometheus.NewRegistry(),
		ScoresComputed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unihaven_compatibility_scores_total",
				Help: "Compatibility scores computed, by label",
			},
			[]string{"label"},
		),
		ScoreValues: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "unihaven_compatibility_score",
			Help:    "Distribution of computed compatibility scores",
			Buckets: []float64{20, 40, 60, 80, 100},
		}),
		AlertsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "unihaven_match_alerts_sent_total",
			Help: "Match alerts queued to connected websocket clients",
		}),
		AlertClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "unihaven_match_alert_clients",
			Help: "Websocket clients currently subscribed to match alerts",
		}),
	}
	m.registry.MustRegister(
		m.ScoresComputed, m.ScoreValues, m.AlertsSent, m.AlertClients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

var matchStats = newMatchMetrics()

func (m *matchMetrics) observe(res compat.Result) {
	m.ScoresComputed.WithLabelValues(string(res.Label)).Inc()
	m.ScoreValues.Observe(float64(res.Score))
}

func (m *matchMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
