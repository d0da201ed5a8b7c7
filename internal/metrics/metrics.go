// internal/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PagesFetched counts search result pages retrieved.
	PagesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "finnmonitor_pages_fetched_total",
		Help: "Search result pages retrieved.",
	})

	// ListingsUpserted counts listings written to the store.
	ListingsUpserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "finnmonitor_listings_upserted_total",
		Help: "Listings inserted or refreshed in the store.",
	})

	// FetchErrors counts failed page or detail fetches.
	FetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "finnmonitor_fetch_errors_total",
		Help: "Failed search or detail page fetches.",
	})

	// CyclesCompleted counts finished scrape cycles.
	CyclesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "finnmonitor_cycles_completed_total",
		Help: "Completed full scrape cycles.",
	})
)

// Serve exposes /metrics on addr in a background goroutine. An empty addr
// disables the endpoint.
func Serve(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		_ = http.ListenAndServe(addr, mux)
	}()
}
