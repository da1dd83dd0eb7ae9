package http_handlers

import (
	"context"
	"net/http"

	"github.com/baechuer/contacts-api/internal/transport/http/response"
)

// Pinger is anything readiness depends on (database, redis).
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	deps map[string]Pinger
}

func NewHealthHandler(deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// Healthz handles GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz handles GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	for name, p := range h.deps {
		if p == nil {
			continue
		}
		if err := p.Ping(r.Context()); err != nil {
			response.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  name + " unavailable",
			})
			return
		}
	}
	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
