package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/graviton-studio/logos-I/internal/credential"
)

const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
)

// HealthChecker serves the Kubernetes liveness and readiness probes.
type HealthChecker struct {
	ready     atomic.Bool
	sc        *ServerContext
	store     credential.Store
	startTime time.Time
}

// NewHealthChecker creates a health checker. The store is pinged on
// readiness checks; pass nil to skip the store check.
func NewHealthChecker(sc *ServerContext, store credential.Store) *HealthChecker {
	h := &HealthChecker{
		sc:        sc,
		store:     store,
		startTime: time.Now(),
	}
	h.ready.Store(true)
	return h
}

// SetReady flips the readiness state, used during startup and drain.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// HealthResponse is the JSON body of the probe endpoints.
type HealthResponse struct {
	Status string            `json:"status"`
	Uptime string            `json:"uptime,omitempty"`
	Checks map[string]string `json:"checks,omitempty"`
}

// RegisterHealthEndpoints wires /healthz and /readyz onto the mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
}

// LivenessHandler answers /healthz. Liveness only says the process runs.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(HealthResponse{
			Status: healthStatusOK,
			Uptime: time.Since(h.startTime).Truncate(time.Second).String(),
		})
	})
}

// ReadinessHandler answers /readyz: ready flag, shutdown state, and a
// credential store round trip.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		checks := make(map[string]string)
		allOK := true

		if h.ready.Load() {
			checks["ready"] = healthStatusOK
		} else {
			checks["ready"] = healthStatusNotReady
			allOK = false
		}

		if h.sc != nil && h.sc.IsShutdown() {
			checks["shutdown"] = healthStatusShuttingDown
			allOK = false
		} else {
			checks["shutdown"] = healthStatusOK
		}

		if h.store != nil {
			if err := h.pingStore(r.Context()); err != nil {
				checks["store"] = err.Error()
				allOK = false
			} else {
				checks["store"] = healthStatusOK
			}
		}

		resp := HealthResponse{Checks: checks}
		if allOK {
			resp.Status = healthStatusOK
			w.WriteHeader(http.StatusOK)
		} else {
			resp.Status = healthStatusNotReady
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
}

// pingStore exercises the store's read path with a lookup that is expected
// to miss.
func (h *HealthChecker) pingStore(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	_, err := h.store.Get(ctx, "healthcheck", "none")
	if err != nil && !errors.Is(err, credential.ErrNotFound) {
		return err
	}
	return nil
}
