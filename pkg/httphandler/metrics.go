package httphandler

import (
	"net/http"

	// Packages
	minion "github.com/Grinnz/minion-pg/pkg/minion"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	prometheus "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// RegisterMetricsHandler registers a Prometheus metrics endpoint reporting
// the manager's queue-wide stats.
func RegisterMetricsHandler(router *http.ServeMux, prefix string, manager *minion.Manager) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(manager.Collector())
	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	router.HandleFunc(joinPath(prefix, "metrics"), func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.ServeHTTP(w, r)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	})
}
