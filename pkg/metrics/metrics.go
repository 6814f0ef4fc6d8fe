package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Connection metrics
	ConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "whoisd_connections_active",
			Help: "Number of WHOIS connections currently open",
		},
	)

	ConnectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "whoisd_connections_total",
			Help: "Total number of accepted WHOIS connections",
		},
	)

	// Query metrics
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whoisd_queries_total",
			Help: "Total number of queries by tag and outcome",
		},
		[]string{"tag", "outcome"},
	)

	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "whoisd_query_duration_seconds",
			Help:    "End-to-end query handling duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tag"},
	)

	// Upstream metrics
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whoisd_upstream_requests_total",
			Help: "Total number of upstream requests by upstream and outcome",
		},
		[]string{"upstream", "outcome"},
	)

	UpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "whoisd_upstream_duration_seconds",
			Help:    "Upstream request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"upstream"},
	)

	// Storage metrics
	StoreSizeBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "whoisd_store_size_bytes",
			Help: "On-disk size of each dataset store",
		},
		[]string{"dataset"},
	)

	StoreKeysTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "whoisd_store_keys_total",
			Help: "Number of keys in each dataset store",
		},
		[]string{"dataset"},
	)

	// Maintenance metrics
	RegistrySyncTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whoisd_registry_sync_total",
			Help: "Total number of registry sync runs by outcome",
		},
		[]string{"outcome"},
	)

	MaintenanceRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whoisd_maintenance_runs_total",
			Help: "Total number of dataset maintenance runs by dataset and outcome",
		},
		[]string{"dataset", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(ConnectionsActive)
	prometheus.MustRegister(ConnectionsTotal)
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(UpstreamRequestsTotal)
	prometheus.MustRegister(UpstreamDuration)
	prometheus.MustRegister(StoreSizeBytes)
	prometheus.MustRegister(StoreKeysTotal)
	prometheus.MustRegister(RegistrySyncTotal)
	prometheus.MustRegister(MaintenanceRunsTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
