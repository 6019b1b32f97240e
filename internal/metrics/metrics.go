package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	priceUpdates      *prometheus.CounterVec
	providerRequests  *prometheus.CounterVec
	providerFallbacks *prometheus.CounterVec
	refreshCycles     prometheus.Counter
	refreshDuration   prometheus.Histogram
	searchesTotal     *prometheus.CounterVec
	historyRecords    prometheus.Counter
	historyPruned     prometheus.Counter
	predictionsTotal  *prometheus.CounterVec
	trackedAssets     prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.priceUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patrimoine_price_updates_total",
			Help: "Total number of asset price updates",
		},
		[]string{"asset_type", "status"},
	)
	r.providerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patrimoine_provider_requests_total",
			Help: "Total number of provider price requests",
		},
		[]string{"provider", "status"},
	)
	r.providerFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patrimoine_provider_fallbacks_total",
			Help: "Total number of chain fallbacks past the primary provider",
		},
		[]string{"asset_type"},
	)
	r.refreshCycles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "patrimoine_refresh_cycles_total",
			Help: "Total number of full refresh cycles completed",
		},
	)
	r.refreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "patrimoine_refresh_duration_seconds",
			Help:    "Full refresh cycle duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)
	r.searchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patrimoine_searches_total",
			Help: "Total number of asset searches",
		},
		[]string{"source"},
	)
	r.historyRecords = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "patrimoine_history_records_total",
			Help: "Total number of price history records written",
		},
	)
	r.historyPruned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "patrimoine_history_pruned_total",
			Help: "Total number of price history records pruned",
		},
	)
	r.predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patrimoine_predictions_total",
			Help: "Total number of price predictions computed",
		},
		[]string{"algorithm"},
	)
	r.trackedAssets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "patrimoine_tracked_assets",
			Help: "Number of assets eligible for automatic refresh",
		},
	)

	reg.MustRegister(r.priceUpdates)
	reg.MustRegister(r.providerRequests)
	reg.MustRegister(r.providerFallbacks)
	reg.MustRegister(r.refreshCycles)
	reg.MustRegister(r.refreshDuration)
	reg.MustRegister(r.searchesTotal)
	reg.MustRegister(r.historyRecords)
	reg.MustRegister(r.historyPruned)
	reg.MustRegister(r.predictionsTotal)
	reg.MustRegister(r.trackedAssets)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordPriceUpdate records one asset price update outcome.
func (r *Registry) RecordPriceUpdate(assetType, status string) {
	r.priceUpdates.WithLabelValues(assetType, status).Inc()
}

// RecordProviderRequest records one provider price request outcome.
func (r *Registry) RecordProviderRequest(provider, status string) {
	r.providerRequests.WithLabelValues(provider, status).Inc()
}

// RecordFallback records that a chain moved past its primary provider.
func (r *Registry) RecordFallback(assetType string) {
	r.providerFallbacks.WithLabelValues(assetType).Inc()
}

// RecordRefreshCycle records a full refresh cycle completion.
func (r *Registry) RecordRefreshCycle(duration float64) {
	r.refreshCycles.Inc()
	r.refreshDuration.Observe(duration)
}

// RecordSearch records an asset search by answering source.
func (r *Registry) RecordSearch(source string) {
	r.searchesTotal.WithLabelValues(source).Inc()
}

// RecordHistoryWrite records one history record written.
func (r *Registry) RecordHistoryWrite() {
	r.historyRecords.Inc()
}

// RecordHistoryPruned records pruned history records.
func (r *Registry) RecordHistoryPruned(count int) {
	r.historyPruned.Add(float64(count))
}

// RecordPrediction records a computed prediction.
func (r *Registry) RecordPrediction(algorithm string) {
	r.predictionsTotal.WithLabelValues(algorithm).Inc()
}

// SetTrackedAssets sets the number of trackable assets.
func (r *Registry) SetTrackedAssets(count int) {
	r.trackedAssets.Set(float64(count))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
