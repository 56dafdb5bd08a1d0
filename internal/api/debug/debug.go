// Package debug provides the handler set for the optional debug listener.
package debug

import (
	"expvar"
	"net/http"
	"net/http/pprof"

	"github.com/arl/statsviz"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Mux registers the debug routes on a fresh mux: the standard pprof
// endpoints, expvar, the statsviz runtime dashboard and a Prometheus
// scrape endpoint for the default registry, where otel.InitTelemetry
// registers the pipeline meters. The default mux is left untouched.
func Mux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/vars", expvar.Handler())

	// Register only fails on a malformed root path, and the default is fine.
	_ = statsviz.Register(mux)

	mux.Handle("/metrics", promhttp.Handler())

	return mux
}
