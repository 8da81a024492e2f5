// Package httptransport assembles the public HTTP surface.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"xup/internal/platform/metrics"
	"xup/internal/platform/middleware"
	"xup/pkg/platform/httputil"
)

// APIPrefix is where the resource routes are mounted.
const APIPrefix = "/api/xup"

const healthTimeout = 2 * time.Second

// Registrar mounts a resource's routes.
type Registrar interface {
	Register(r chi.Router)
}

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the collaborators the router needs. Metrics, RateLimiter
// and ClientIP are optional; without ClientIP the socket peer is the client.
type Dependencies struct {
	Logger        *slog.Logger
	ClientIP      *middleware.ClientIPResolver
	Metrics       *metrics.Metrics
	RateLimiter   *middleware.RateLimiter
	AllowedOrigin string
	Resources     []Registrar
	HealthChecks  map[string]Pinger
}

// NewRouter wires the middleware chain, the health and metrics endpoints and
// every resource under APIPrefix.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	var observer middleware.RequestObserver
	if deps.Metrics != nil {
		observer = deps.Metrics
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata(deps.ClientIP))
	r.Use(middleware.Logger(deps.Logger, observer))
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.CORS(deps.AllowedOrigin))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimw.Compress(5))

	r.Get("/health", healthHandler(deps.HealthChecks))
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Route(APIPrefix, func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware)
		}
		for _, res := range deps.Resources {
			res.Register(r)
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusNotFound, map[string]string{
			"error":   "not_found",
			"message": "route not found",
		})
	})
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]Pinger) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
		status := http.StatusOK
		for _, name := range names {
			if err := checks[name].Ping(ctx); err != nil {
				resp.Checks[name] = "unavailable"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
