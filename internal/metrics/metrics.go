package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "baza_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "baza_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "baza_http_inflight_requests",
			Help: "Number of HTTP requests currently being served.",
		},
	)

	MessagesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "baza_messages_received_total",
			Help: "Total number of inbound XMPP messages, by kind.",
		},
		[]string{"type"},
	)

	QuotaDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "baza_quota_decisions_total",
			Help: "Daily quota admission decisions, by tier and outcome.",
		},
		[]string{"tier", "outcome"},
	)

	BurstRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "baza_burst_rejections_total",
			Help: "Total number of messages rejected by the per-minute burst limiter.",
		},
	)

	BackendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "baza_backend_requests_total",
			Help: "Total number of generation backend requests, by status.",
		},
		[]string{"status"},
	)

	BackendLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "baza_backend_latency_seconds",
			Help:    "Generation backend request latency in seconds.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 90},
		},
	)

	ChunksDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "baza_chunks_delivered_total",
			Help: "Total number of reply chunks delivered, by rendering.",
		},
		[]string{"rendering"},
	)

	DeliveryFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "baza_delivery_fallbacks_total",
			Help: "Total number of chunks retried as plain text after a markup send failure.",
		},
	)

	Transcriptions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "baza_transcriptions_total",
			Help: "Total number of voice note transcription attempts, by status.",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		HTTPInflight,
		MessagesReceived,
		QuotaDecisions,
		BurstRejections,
		BackendRequests,
		BackendLatency,
		ChunksDelivered,
		DeliveryFallbacks,
		Transcriptions,
	)
}
