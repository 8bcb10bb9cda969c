package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chat_dm"

// Outcome labels shared by the counters below.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
	OutcomeDropped  = "dropped"
)

// Metrics holds the Prometheus collectors of one server instance.
// Each instance owns its registry so tests can build as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	MessagesRecorded prometheus.Counter
	Uploads          *prometheus.CounterVec
	UploadedBytes    prometheus.Counter
	Deliveries       *prometheus.CounterVec
	OpenStreams      prometheus.Gauge
	ChannelLength    *prometheus.GaugeVec
	ChannelCapacity  *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		MessagesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_recorded_total",
			Help:      "Total number of messages persisted",
		}),
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Total number of attachment uploads by outcome",
		}, []string{"outcome"}),
		UploadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Total number of attachment bytes stored",
		}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Total number of real-time deliveries by outcome",
		}, []string{"outcome"}),
		OpenStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_streams",
			Help:      "Number of open event streams",
		}),
		ChannelLength: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "channel_length",
			Help:      "Buffered items in an internal channel",
		}, []string{"channel"}),
		ChannelCapacity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "channel_capacity",
			Help:      "Capacity of an internal channel",
		}, []string{"channel"}),
	}
	registry.MustRegister(
		m.HTTPRequests, m.HTTPDuration, m.MessagesRecorded,
		m.Uploads, m.UploadedBytes, m.Deliveries, m.OpenStreams,
		m.ChannelLength, m.ChannelCapacity,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
