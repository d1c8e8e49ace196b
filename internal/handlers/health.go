// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger checks that a backing service is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Health reports service liveness along with its dependencies.
type Health struct {
	checks map[string]Pinger
}

// NewHealth creates the health handler. Nil checks are skipped.
func NewHealth(checks map[string]Pinger) *Health {
	live := make(map[string]Pinger, len(checks))
	for name, c := range checks {
		if c != nil {
			live[name] = c
		}
	}
	return &Health{checks: live}
}

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Check pings every dependency with a short timeout. Any failure turns the
// response into a 503.
// GET /health
func (h *Health) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	status := http.StatusOK
	for name, c := range h.checks {
		if err := c.PingContext(ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	writeJSON(w, status, resp)
}
