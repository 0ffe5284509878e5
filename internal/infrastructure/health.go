package infrastructure

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JaimeStill/segmenter/pkg/handlers"
	"github.com/JaimeStill/segmenter/pkg/module"
)

// Mount registers the liveness, readiness and metrics endpoints at the
// router root.
func (i *Infrastructure) Mount(router *module.Router) {
	router.HandleNative("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.HandleNative("GET /readyz", i.ready)
	router.HandleNative("GET /metrics", promhttp.HandlerFor(i.Metrics, promhttp.HandlerOpts{}).ServeHTTP)
}

// ready requires completed startup hooks and a reachable database.
func (i *Infrastructure) ready(w http.ResponseWriter, r *http.Request) {
	if !i.Lifecycle.Ready() {
		handlers.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
		return
	}
	if err := i.Database.Ping(r.Context()); err != nil {
		handlers.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
