package main

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/angeloszaimis/remotelog/internal/circuitbreaker"
	"github.com/angeloszaimis/remotelog/pkg/metrics"
	"github.com/angeloszaimis/remotelog/pkg/transport"
)

type breakerReporter interface {
	Breakers() map[string]transport.BreakerStatus
}

type healthResponse struct {
	Status   string                             `json:"status"`
	Breakers map[string]transport.BreakerStatus `json:"breakers"`
}

func setupRouter(metricsCollector *metrics.Collector, breakers breakerReporter) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/metrics", metricsCollector.Handler())
	mux.HandleFunc("/healthz", healthHandler(breakers))

	return mux
}

// healthHandler reports "degraded" while any endpoint breaker is open. The
// process itself is still healthy, so the status code stays 200.
func healthHandler(breakers breakerReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok", Breakers: breakers.Breakers()}
		for _, b := range resp.Breakers {
			if b.State == circuitbreaker.StateOpen.String() {
				resp.Status = "degraded"
				break
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := jsoniter.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
