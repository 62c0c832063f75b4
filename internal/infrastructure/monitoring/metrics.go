package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Catalog metrics
	Packages      prometheus.Gauge
	FetchTotal    *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	Activations   *prometheus.CounterVec

	// Modal metrics
	ModalPending prometheus.Gauge

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time
}

// NewMetrics creates a metrics collector registered on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{startTime: time.Now()}

	// HTTP metrics
	m.RequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gameshelf_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	m.RequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gameshelf_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)
	m.RequestSize = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gameshelf_http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000},
		},
		[]string{"method", "path"},
	)
	m.ResponseSize = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gameshelf_http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
		},
		[]string{"method", "path"},
	)

	// Catalog metrics
	m.Packages = factory.NewGauge(prometheus.GaugeOpts{
		Name: "gameshelf_packages",
		Help: "Number of packages in the catalog",
	})
	m.FetchTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gameshelf_fetch_total",
			Help: "Total number of package fetches",
		},
		[]string{"kind", "outcome"},
	)
	m.FetchDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gameshelf_fetch_duration_seconds",
			Help:    "Package fetch duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"kind"},
	)
	m.Activations = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gameshelf_activations_total",
			Help: "Total number of selection activations by outcome",
		},
		[]string{"outcome"},
	)

	m.ModalPending = factory.NewGauge(prometheus.GaugeOpts{
		Name: "gameshelf_modal_pending",
		Help: "Messages waiting behind the displayed modal message",
	})

	// WebSocket metrics
	m.WSConnections = factory.NewGauge(prometheus.GaugeOpts{
		Name: "gameshelf_ws_connections",
		Help: "Number of active WebSocket connections",
	})
	m.WSMessages = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gameshelf_ws_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction", "type"},
	)

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "gameshelf_uptime_seconds",
			Help: "Daemon uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
}

// SetPackages sets the catalog size.
func (m *Metrics) SetPackages(n int) {
	m.Packages.Set(float64(n))
}

// ObserveFetch records a finished fetch of the given kind.
func (m *Metrics) ObserveFetch(kind string, err error, elapsed time.Duration) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.FetchTotal.WithLabelValues(kind, outcome).Inc()
	m.FetchDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveActivation counts an activation attempt.
func (m *Metrics) ObserveActivation(outcome string) {
	m.Activations.WithLabelValues(outcome).Inc()
}

// SetModalPending sets the modal backlog size.
func (m *Metrics) SetModalPending(n int) {
	m.ModalPending.Set(float64(n))
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}
