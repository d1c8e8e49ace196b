// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"inkwell/internal/models"
	"inkwell/internal/richtext"
	"inkwell/internal/slug"
	"inkwell/internal/store"
)

// DocumentRepo is the document persistence used by the handlers.
type DocumentRepo interface {
	List() ([]models.Document, error)
	FindByID(id uuid.UUID) (*models.Document, error)
	FindBySlug(slug string) (*models.Document, error)
	SlugExists(slug string) (bool, error)
	Create(d *models.Document) (*models.Document, error)
	UpdateBody(id uuid.UUID, body string, format models.BodyFormat) (*models.Document, error)
	Delete(id uuid.UUID) error
}

// RevisionRepo lists document revisions.
type RevisionRepo interface {
	ListByDocumentID(documentID uuid.UUID) ([]*models.DocumentRevision, error)
}

// PageCache holds rendered public pages by slug.
type PageCache interface {
	Get(ctx context.Context, slug string) ([]byte, bool)
	Set(ctx context.Context, slug string, html []byte)
	Invalidate(ctx context.Context, slug string)
}

// Documents groups the document CRUD endpoints.
type Documents struct {
	docs      DocumentRepo
	revisions RevisionRepo
	conv      *richtext.Converter
	pages     PageCache
}

// NewDocuments creates the document handlers.
func NewDocuments(docs DocumentRepo, revisions RevisionRepo, conv *richtext.Converter, pages PageCache) *Documents {
	return &Documents{docs: docs, revisions: revisions, conv: conv, pages: pages}
}

// createDocumentRequest is the body of POST /api/documents.
type createDocumentRequest struct {
	Title      string `json:"title"`
	Slug       string `json:"slug"`
	Body       string `json:"body"`
	BodyFormat string `json:"body_format"`
}

// canonicalBody normalizes body in its own grammar before it is stored.
func canonicalBody(conv *richtext.Converter, body string, format models.BodyFormat) string {
	if format == models.BodyFormatMarkdown {
		return conv.NormalizeMarkdown(body)
	}
	return conv.NormalizeHTML(body)
}

// Create stores a new document. The slug is derived from the title when
// omitted and suffixed when already taken.
// POST /api/documents
func (h *Documents) Create(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := validateDocument(req.Title, req.Slug, req.Body); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}
	format, err := models.ParseBodyFormat(req.BodyFormat)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	base := slug.Generate(req.Slug)
	if base == "" {
		base = slug.Generate(req.Title)
	}
	var lookupErr error
	docSlug := slug.Unique(base, func(s string) bool {
		taken, err := h.docs.SlugExists(s)
		if err != nil {
			lookupErr = err
			return false
		}
		return taken
	})
	if lookupErr != nil {
		internalError(w, "check slug failed", lookupErr, "slug", base)
		return
	}

	doc, err := h.docs.Create(&models.Document{
		Title:      strings.TrimSpace(req.Title),
		Slug:       docSlug,
		Body:       canonicalBody(h.conv, req.Body, format),
		BodyFormat: format,
	})
	if err != nil {
		internalError(w, "create document failed", err, "slug", docSlug)
		return
	}

	slog.Info("document created", "id", doc.ID, "slug", doc.Slug, "format", doc.BodyFormat)
	writeJSON(w, http.StatusCreated, doc)
}

// List returns all documents.
// GET /api/documents
func (h *Documents) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.docs.List()
	if err != nil {
		internalError(w, "list documents failed", err)
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

// Get returns one document.
// GET /api/documents/{id}
func (h *Documents) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	doc, err := h.docs.FindByID(id)
	if err != nil {
		internalError(w, "find document failed", err, "id", id)
		return
	}
	if doc == nil {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Delete removes a document and drops its cached page.
// DELETE /api/documents/{id}
func (h *Documents) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	doc, err := h.docs.FindByID(id)
	if err != nil {
		internalError(w, "find document failed", err, "id", id)
		return
	}
	if doc == nil {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}

	if err := h.docs.Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		internalError(w, "delete document failed", err, "id", id)
		return
	}
	h.pages.Invalidate(r.Context(), doc.Slug)

	slog.Info("document deleted", "id", id, "slug", doc.Slug)
	w.WriteHeader(http.StatusNoContent)
}

// Revisions lists the snapshots of a document, newest first.
// GET /api/documents/{id}/revisions
func (h *Documents) Revisions(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	doc, err := h.docs.FindByID(id)
	if err != nil {
		internalError(w, "find document failed", err, "id", id)
		return
	}
	if doc == nil {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}

	revs, err := h.revisions.ListByDocumentID(id)
	if err != nil {
		internalError(w, "list revisions failed", err, "id", id)
		return
	}
	if revs == nil {
		revs = []*models.DocumentRevision{}
	}
	writeJSON(w, http.StatusOK, revs)
}
