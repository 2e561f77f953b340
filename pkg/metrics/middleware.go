// Copyright Contributors to the Open Cluster Management project

package metrics

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Instrument with prometheus middleware to capture request metrics.
func PrometheusMiddleware(next http.Handler) http.Handler {

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		routeName := "unknown"
		if route := mux.CurrentRoute(r); route != nil && route.GetName() != "" {
			routeName = route.GetName()
		}

		// Add the route label to the request counter.
		curriedCount, _ := RequestCount.CurryWith(prometheus.Labels{"route": routeName})

		// Instrument and serve.
		promhttp.InstrumentHandlerInFlight(RequestsInFlight,
			promhttp.InstrumentHandlerDuration(RequestDuration,
				promhttp.InstrumentHandlerCounter(curriedCount, next))).ServeHTTP(w, r)
	})
}
