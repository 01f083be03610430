package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SearchMetrics owns the process registry and every webintel series:
// HTTP server traffic, search aggregation outcomes, per-provider call
// health, and conversational stream lifecycle.
type SearchMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	searchTotal          *prometheus.CounterVec
	searchDuration       *prometheus.HistogramVec
	searchMergedResults  *prometheus.HistogramVec
	searchFailedTotal    *prometheus.CounterVec
	searchAnswerTotal    *prometheus.CounterVec
	strategyRequestTotal *prometheus.CounterVec

	providerCallTotal    *prometheus.CounterVec
	providerCallDuration *prometheus.HistogramVec

	streamActive         prometheus.Gauge
	streamFragmentsTotal prometheus.Counter
	streamFinishedTotal  *prometheus.CounterVec
}

func NewSearchMetrics(service string) *SearchMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webintel",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "webintel",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "webintel",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	searchTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webintel",
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Total aggregated search requests by urgency.",
		},
		[]string{"service", "urgency"},
	)
	searchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "webintel",
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "End-to-end aggregation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "urgency"},
	)
	searchMergedResults := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "webintel",
			Subsystem: "search",
			Name:      "merged_results",
			Help:      "Distribution of merged result counts per request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	searchFailedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webintel",
			Subsystem: "search",
			Name:      "failed_total",
			Help:      "Total requests where every selected provider failed.",
		},
		[]string{"service"},
	)
	searchAnswerTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webintel",
			Subsystem: "search",
			Name:      "answer_total",
			Help:      "Total responses carrying a synthesized answer.",
		},
		[]string{"service"},
	)
	strategyRequestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webintel",
			Subsystem: "search",
			Name:      "strategy_requests_total",
			Help:      "Total conversational requests by retrieval strategy.",
		},
		[]string{"service", "strategy"},
	)
	providerCallTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webintel",
			Subsystem: "provider",
			Name:      "calls_total",
			Help:      "Total provider calls by outcome.",
		},
		[]string{"service", "provider", "status"},
	)
	providerCallDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "webintel",
			Subsystem: "provider",
			Name:      "call_duration_seconds",
			Help:      "Provider call duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "provider"},
	)
	streamActive := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "webintel",
			Subsystem: "stream",
			Name:      "active",
			Help:      "Currently registered stream connections.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	streamFragmentsTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "webintel",
			Subsystem: "stream",
			Name:      "fragments_total",
			Help:      "Total stream fragments emitted.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	streamFinishedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webintel",
			Subsystem: "stream",
			Name:      "finished_total",
			Help:      "Total finished streams by terminal status.",
		},
		[]string{"service", "status"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		searchTotal,
		searchDuration,
		searchMergedResults,
		searchFailedTotal,
		searchAnswerTotal,
		strategyRequestTotal,
		providerCallTotal,
		providerCallDuration,
		streamActive,
		streamFragmentsTotal,
		streamFinishedTotal,
	)

	return &SearchMetrics{
		registry:             registry,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		searchTotal:          searchTotal,
		searchDuration:       searchDuration,
		searchMergedResults:  searchMergedResults,
		searchFailedTotal:    searchFailedTotal,
		searchAnswerTotal:    searchAnswerTotal,
		strategyRequestTotal: strategyRequestTotal,
		providerCallTotal:    providerCallTotal,
		providerCallDuration: providerCallDuration,
		streamActive:         streamActive,
		streamFragmentsTotal: streamFragmentsTotal,
		streamFinishedTotal:  streamFinishedTotal,
	}
}

func (m *SearchMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *SearchMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/providers/"):
		return "/v1/providers/{provider}"
	default:
		return path
	}
}

// RecordSearch observes one completed aggregation.
func (m *SearchMetrics) RecordSearch(service, urgency string, resultCount int, failed, hasAnswer bool, duration time.Duration) {
	m.searchTotal.WithLabelValues(service, urgency).Inc()
	m.searchDuration.WithLabelValues(service, urgency).Observe(duration.Seconds())
	m.searchMergedResults.WithLabelValues(service).Observe(float64(resultCount))
	if failed {
		m.searchFailedTotal.WithLabelValues(service).Inc()
	}
	if hasAnswer {
		m.searchAnswerTotal.WithLabelValues(service).Inc()
	}
}

// ProviderCall implements the engine's execution observer.
func (m *SearchMetrics) ProviderCall(provider, status string, elapsed time.Duration) {
	if provider == "" {
		provider = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	m.providerCallTotal.WithLabelValues("api", provider, status).Inc()
	m.providerCallDuration.WithLabelValues("api", provider).Observe(elapsed.Seconds())
}

// StreamStarted, StreamFragment and StreamFinished implement the
// dispatcher's stream observer.
func (m *SearchMetrics) StreamStarted(strategy string) {
	if strategy == "" {
		strategy = "unknown"
	}
	m.strategyRequestTotal.WithLabelValues("api", strategy).Inc()
}

func (m *SearchMetrics) StreamFragment() {
	m.streamFragmentsTotal.Inc()
}

func (m *SearchMetrics) StreamFinished(status string) {
	if status == "" {
		status = "unknown"
	}
	m.streamFinishedTotal.WithLabelValues("api", status).Inc()
}

// StreamConnectionOpened and StreamConnectionClosed track the SSE
// connection manager's active handle count.
func (m *SearchMetrics) StreamConnectionOpened() {
	m.streamActive.Inc()
}

func (m *SearchMetrics) StreamConnectionClosed() {
	m.streamActive.Dec()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
