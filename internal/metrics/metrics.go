// Package metrics provides Prometheus metrics for the emulator.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	storeOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cognito_emulator_store_operations_total",
			Help: "Total number of data store operations",
		},
		[]string{"store", "operation"}, // operation: "get", "set", "get_root"
	)

	storeErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cognito_emulator_store_errors_total",
			Help: "Total number of data store persistence errors",
		},
		[]string{"store", "operation"},
	)

	poolCacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cognito_emulator_pool_cache_lookups_total",
			Help: "Total number of user pool cache lookups",
		},
		[]string{"result"}, // "hit" or "miss"
	)

	targetRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cognito_emulator_target_requests_total",
			Help: "Total number of API target invocations",
		},
		[]string{"target", "status"}, // status: "ok" or the exception code
	)
)

// RecordStoreOperation records a data store get/set/get_root.
func RecordStoreOperation(store, operation string) {
	storeOperationsTotal.WithLabelValues(store, operation).Inc()
}

// RecordStoreError records a persistence failure.
func RecordStoreError(store, operation string) {
	storeErrorsTotal.WithLabelValues(store, operation).Inc()
}

// RecordPoolCacheLookup records a user pool cache hit or miss.
func RecordPoolCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	poolCacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordTargetRequest records an API target invocation and its outcome.
func RecordTargetRequest(target, status string) {
	targetRequestsTotal.WithLabelValues(target, status).Inc()
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
