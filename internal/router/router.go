// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// inkwell server. Routes are split into the JSON API and the public
// document pages.
package router

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"inkwell/internal/handlers"
	"inkwell/internal/middleware"
)

// maxAPIBody caps JSON request bodies. Conversion input is limited to
// 500,000 characters, which fits with room for JSON escaping.
const maxAPIBody = 4 << 20

// Handlers bundles the handler groups mounted by New.
type Handlers struct {
	Convert   *handlers.Convert
	Documents *handlers.Documents
	Sessions  *handlers.Sessions
	Public    *handlers.Public
	Health    *handlers.Health
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. limiter may be nil to disable rate limiting.
func New(h Handlers, limiter *middleware.RateLimiter) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	r.Get("/health", h.Health.Check)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.MaxBody(maxAPIBody))
		if limiter != nil {
			r.Use(limiter.Middleware)
		}

		// Stateless conversion.
		r.Post("/convert/markdown", h.Convert.ToMarkdown)
		r.Post("/convert/html", h.Convert.ToHTML)
		r.Post("/normalize/{format}", h.Convert.Normalize)

		// Documents
		r.Route("/documents", func(r chi.Router) {
			r.Get("/", h.Documents.List)
			r.Post("/", h.Documents.Create)
			r.Get("/{id}", h.Documents.Get)
			r.Delete("/{id}", h.Documents.Delete)
			r.Get("/{id}/revisions", h.Documents.Revisions)
			r.Post("/{id}/sessions", h.Sessions.Create)
		})

		// Editing sessions
		r.Route("/sessions/{sid}", func(r chi.Router) {
			r.Get("/", h.Sessions.Get)
			r.Delete("/", h.Sessions.Close)
			r.Put("/content", h.Sessions.Edit)
			r.Post("/mode", h.Sessions.Switch)
			r.Post("/save", h.Sessions.Save)
		})
	})

	// Public document pages.
	r.Get("/{slug}", h.Public.Page)

	return r
}
