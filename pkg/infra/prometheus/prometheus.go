package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var registry = prometheus.NewRegistry()

var registerer = prometheus.WrapRegistererWith(nil, registry)

var (
	// Latency buckets in milliseconds
	latencyBuckets = []float64{
		0.5, 1, 2.5, // local redis
		5, 10, 25, // same region
		50, 100, 250, // slow network
		500, 1000, 5000, // timeouts
	}

	CacheOperationsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartcache_operations_total",
			Help: "Total number of cache operations by action and result",
		},
		[]string{"action", "result"}, // result: hit, miss, stored, error
	)

	CacheBackendLatency = promauto.With(registerer).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smartcache_backend_latency_ms",
			Help:    "Backend round trip latency in milliseconds",
			Buckets: latencyBuckets,
		},
		[]string{"action"},
	)

	EventsPublishedTotal = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "smartcache_events_published_total",
			Help: "Access events handed to the broker producer",
		},
	)

	EventsDroppedTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartcache_events_dropped_total",
			Help: "Access events lost before reaching the broker",
		},
		[]string{"reason"}, // reason: encode, enqueue, delivery, flush
	)

	GatewayRequestTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartcache_gateway_requests_total",
			Help: "Total number of gateway requests processed",
		},
		[]string{"route", "status"},
	)

	ConsumerEventsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartcache_consumer_events_total",
			Help: "Access events processed by the database updater",
		},
		[]string{"result"}, // result: stored, invalid, failed
	)
)

type MetricsConfig struct {
	EnableLatency bool // Backend latency histogram
}

func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		EnableLatency: true,
	}
}

var Config = DefaultMetricsConfig()

func Initialize(cfg MetricsConfig) {
	Config = cfg
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
}

func Registry() *prometheus.Registry {
	return registry
}
