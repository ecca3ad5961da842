package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness and storage reachability.
type HealthHandler struct {
	store   Pinger
	backend string
	timeout time.Duration
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
	Error   string `json:"error,omitempty"`
}

// NewHealthHandler creates a health handler for the named backend.
func NewHealthHandler(store Pinger, backend string) *HealthHandler {
	return &HealthHandler{store: store, backend: backend, timeout: 2 * time.Second}
}

// Health handles GET /health - 200 when storage answers, 503 otherwise
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Backend: h.backend, Error: err.Error()})
		return
	}
	WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok", Backend: h.backend})
}
