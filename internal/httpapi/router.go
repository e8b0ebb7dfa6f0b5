// Package httpapi is a thin chi-based HTTP+SSE surface over the core
// (events.Bus, zone.Aggregator, adapter.Coordinator): exactly the
// routes spec.md §6 names, wired in cmd/hifictl as a demonstration
// harness that C1-C5 work end to end behind HTTP. It deliberately does
// not attempt a product-grade REST API — no auth, no templating, no
// pagination — mirroring the teacher's internal/api/router.go shape
// narrowed to this module's surface.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/muness/unified-hifi-control/internal/adapter"
	"github.com/muness/unified-hifi-control/internal/events"
	"github.com/muness/unified-hifi-control/internal/zone"
)

// controlRateLimit bounds how often a single client can issue
// control/set_pipeline requests, protecting the downstream DSP/LMS/Roon
// engines from a runaway client rather than protecting this process.
const (
	controlRateLimit  = 20
	controlRateWindow = time.Second
)

// NewRouter builds the HTTP handler for the bridge's external surface,
// wired directly to agg, coord, and bus rather than through an
// intermediate snapshot-state controller.
func NewRouter(agg *zone.Aggregator, coord *adapter.Coordinator, bus *events.Bus) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)
	r.Use(middleware.CleanPath)

	h := &handlers{agg: agg, coord: coord, bus: bus}

	r.Get("/zones", h.listZones)
	r.Get("/zones/{zoneID}/now-playing", h.nowPlaying)
	r.Get("/zones/{zoneID}/image", h.getImage)
	r.Get("/hqp/pipeline", h.getPipeline)
	r.Get("/hqp/profiles", h.getProfiles)
	r.Get("/events", h.sseEvents)

	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(controlRateLimit, controlRateWindow, httprate.WithKeyFuncs(httprate.KeyByIP)))
		r.Post("/zones/{zoneID}/control", h.control)
		r.Post("/hqp/pipeline", h.setPipeline)
	})

	return r
}

// corsMiddleware adds permissive CORS headers for local network access,
// matching the teacher's internal/api/router.go.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
