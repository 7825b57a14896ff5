package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus собирает метрики gateway и edge-проверки.
// Реализует gateway.Observer и edge.Observer.
type Prometheus struct {
	refreshes     *prometheus.CounterVec
	refreshTime   prometheus.Histogram
	waiters       prometheus.Histogram
	replays       *prometheus.CounterVec
	edgeDecisions *prometheus.CounterVec
	httpDuration  *prometheus.SummaryVec
}

// New регистрирует коллекторы в reg
func New(reg prometheus.Registerer) *Prometheus {
	f := promauto.With(reg)
	return &Prometheus{
		refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "yski_token_refresh_total",
			Help: "Token refresh attempts by outcome.",
		}, []string{"outcome"}),
		refreshTime: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "yski_token_refresh_duration_seconds",
			Help:    "Duration of token refresh calls.",
			Buckets: prometheus.DefBuckets,
		}),
		waiters: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "yski_token_refresh_waiters",
			Help:    "Requests that waited on a single in-flight refresh.",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
		}),
		replays: f.NewCounterVec(prometheus.CounterOpts{
			Name: "yski_request_replay_total",
			Help: "Requests replayed after refresh by result.",
		}, []string{"result"}),
		edgeDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "yski_edge_decisions_total",
			Help: "Edge guard navigation decisions.",
		}, []string{"decision"}),
		httpDuration: f.NewSummaryVec(prometheus.SummaryOpts{
			Name: "yski_dashboard_http_duration_seconds",
			Help: "Duration of dashboard HTTP requests.",
		}, []string{"route", "method", "status"}),
	}
}

// Handler отдает метрики из g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RefreshFinished фиксирует завершение refresh
func (p *Prometheus) RefreshFinished(outcome string, waiters int, d time.Duration) {
	if p == nil {
		return
	}
	p.refreshes.WithLabelValues(outcome).Inc()
	p.refreshTime.Observe(d.Seconds())
	p.waiters.Observe(float64(waiters))
}

// Replayed фиксирует повтор запроса
func (p *Prometheus) Replayed(ok bool) {
	if p == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	p.replays.WithLabelValues(result).Inc()
}

// EdgeDecision фиксирует решение edge-проверки
func (p *Prometheus) EdgeDecision(decision string) {
	if p == nil {
		return
	}
	p.edgeDecisions.WithLabelValues(decision).Inc()
}

// ObserveHTTP фиксирует длительность HTTP запроса dashboard
func (p *Prometheus) ObserveHTTP(route, method string, status int, d time.Duration) {
	if p == nil {
		return
	}
	p.httpDuration.WithLabelValues(route, method, statusClass(status)).Observe(d.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
