package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/teemow/inboxdraft/internal/logging"
)

const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"

	guidelinesEnabled  = "enabled"
	guidelinesDisabled = "disabled"
)

// HealthChecker serves the probes of the HTTP transport. Readiness is lost
// when the transport starts shutting down or the ServerContext is shut down.
type HealthChecker struct {
	ready     atomic.Bool
	sc        *ServerContext
	startTime time.Time
}

// NewHealthChecker creates a HealthChecker that starts out ready. sc may be nil.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{sc: sc, startTime: time.Now()}
	h.ready.Store(true)
	return h
}

// SetReady sets the readiness state of the server.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the server accepts traffic
func (h *HealthChecker) IsReady() bool {
	ok, _ := h.checks()
	return ok
}

// HealthResponse is the body of /healthz and /readyz
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse is the body of /healthz/detailed. The mailbox is
// identified by its domain only.
type DetailedHealthResponse struct {
	Status     string            `json:"status"`
	Uptime     string            `json:"uptime"`
	Domain     string            `json:"mailbox_domain,omitempty"`
	Guidelines string            `json:"guidelines"`
	Checks     map[string]string `json:"checks"`
}

// checks evaluates the readiness checks
func (h *HealthChecker) checks() (bool, map[string]string) {
	checks := map[string]string{
		"ready":    healthStatusOK,
		"shutdown": healthStatusOK,
	}
	ok := true
	if !h.ready.Load() {
		checks["ready"] = healthStatusNotReady
		ok = false
	}
	if h.sc != nil && h.sc.IsShutdown() {
		checks["shutdown"] = healthStatusShuttingDown
		ok = false
	}
	return ok, checks
}

// LivenessHandler serves /healthz. It only tells that the process is serving.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler serves /readyz
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		ok, checks := h.checks()
		if !ok {
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: healthStatusNotReady, Checks: checks})
			return
		}
		writeJSON(w, http.StatusOK, HealthResponse{Status: healthStatusOK, Checks: checks})
	})
}

// DetailedHealthHandler serves /healthz/detailed
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		ok, checks := h.checks()

		resp := DetailedHealthResponse{
			Status:     healthStatusOK,
			Uptime:     time.Since(h.startTime).Truncate(time.Second).String(),
			Guidelines: guidelinesDisabled,
			Checks:     checks,
		}
		if h.sc != nil {
			resp.Domain = logging.ExtractDomain(h.sc.Account())
			if h.sc.GuidelinesEnabled() {
				resp.Guidelines = guidelinesEnabled
			}
		}

		status := http.StatusOK
		switch {
		case checks["ready"] != healthStatusOK:
			resp.Status = healthStatusNotReady
		case checks["shutdown"] != healthStatusOK:
			resp.Status = healthStatusShuttingDown
		}
		if !ok {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	})
}

// RegisterHealthEndpoints registers the probes on mux
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/healthz/detailed", h.DetailedHealthHandler())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
