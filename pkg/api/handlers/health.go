package handlers

import (
	"net/http"
)

// MountLister reports the registered virtual roots.
type MountLister interface {
	Names() []string
}

// HealthHandler serves the unauthenticated probes.
type HealthHandler struct {
	mounts MountLister
}

// NewHealthHandler creates a health handler. mounts may be nil, in which
// case readiness always fails.
func NewHealthHandler(mounts MountLister) *HealthHandler {
	return &HealthHandler{mounts: mounts}
}

// Liveness handles GET /health.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "dittodav",
	}))
}

// Readiness handles GET /health/ready. The gateway is ready once at least
// one mount is registered.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.mounts == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("mount table not initialized"))
		return
	}

	names := h.mounts.Names()
	if len(names) == 0 {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("no mounts configured"))
		return
	}

	writeJSON(w, http.StatusOK, healthyResponse(map[string]any{
		"mounts": names,
	}))
}
