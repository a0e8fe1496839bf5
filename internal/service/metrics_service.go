package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface and the generation engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	generationRuns     *prometheus.CounterVec
	generationDuration prometheus.Histogram
	generationRounds   prometheus.Histogram
	bestFitness        prometheus.Gauge

	recalibrations prometheus.Counter
	weightVersion  prometheus.Gauge
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	generationRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_generation_runs_total",
		Help: "Completed schedule generation runs by outcome",
	}, []string{"outcome"})

	generationDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schedule_generation_duration_seconds",
		Help:    "Wall-clock duration of schedule generation runs",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})

	generationRounds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schedule_generation_generations",
		Help:    "Generations consumed before a run terminated",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 150, 250, 500},
	})

	bestFitness := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "schedule_generation_best_fitness",
		Help: "Best fitness of the most recent generation run",
	})

	recalibrations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "weight_recalibrations_total",
		Help: "Total weight recalibration passes applied",
	})

	weightVersion := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "weight_table_version",
		Help: "Version of the active rule weight table",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, generationRuns, generationDuration, generationRounds, bestFitness, recalibrations, weightVersion, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		generationRuns:     generationRuns,
		generationDuration: generationDuration,
		generationRounds:   generationRounds,
		bestFitness:        bestFitness,
		recalibrations:     recalibrations,
		weightVersion:      weightVersion,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveGenerationRun records the outcome of one engine run.
func (m *MetricsService) ObserveGenerationRun(success bool, generations int, best float64, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "infeasible"
	if success {
		outcome = "success"
	}
	m.generationRuns.WithLabelValues(outcome).Inc()
	m.generationDuration.Observe(duration.Seconds())
	m.generationRounds.Observe(float64(generations))
	m.bestFitness.Set(best)
}

// ObserveRecalibration records an applied weight tuning pass.
func (m *MetricsService) ObserveRecalibration(weightVersion int) {
	if m == nil {
		return
	}
	m.recalibrations.Inc()
	m.weightVersion.Set(float64(weightVersion))
}
