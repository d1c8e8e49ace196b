// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"inkwell/internal/editor"
	"inkwell/internal/models"
	"inkwell/internal/richtext"
	"inkwell/internal/session"
	"inkwell/internal/store"
)

// SessionRepo persists editing sessions.
type SessionRepo interface {
	Create(ctx context.Context, data *session.Data) error
	Get(ctx context.Context, id string) (*session.Data, error)
	Save(ctx context.Context, data *session.Data) error
	Delete(ctx context.Context, id string) error
}

// Sessions groups the editing-session endpoints. Each request restores an
// editor from the stored mode and content, applies one operation and
// stores the result.
type Sessions struct {
	sessions SessionRepo
	docs     DocumentRepo
	conv     *richtext.Converter
	pages    PageCache
}

// NewSessions creates the session handlers.
func NewSessions(sessions SessionRepo, docs DocumentRepo, conv *richtext.Converter, pages PageCache) *Sessions {
	return &Sessions{sessions: sessions, docs: docs, conv: conv, pages: pages}
}

// modeRequest is the body of POST /api/sessions/{sid}/mode.
type modeRequest struct {
	Mode string `json:"mode"`
}

// editorConfig returns the editor wiring for session sid.
func (h *Sessions) editorConfig(sid string) editor.Config {
	return editor.Config{
		Converter: h.conv,
		OnChange: func(content string) {
			slog.Debug("session content changed", "session", sid, "bytes", len(content))
		},
	}
}

// load fetches the session named by {sid}. On failure it writes the error
// response and returns nil.
func (h *Sessions) load(w http.ResponseWriter, r *http.Request) *session.Data {
	sid := chi.URLParam(r, "sid")
	data, err := h.sessions.Get(r.Context(), sid)
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return nil
	}
	if err != nil {
		internalError(w, "get session failed", err, "session", sid)
		return nil
	}
	return data
}

// open restores the editor for data. On failure it writes a 500.
func (h *Sessions) open(w http.ResponseWriter, data *session.Data) *editor.Editor {
	e, err := data.Open(h.editorConfig(data.ID))
	if err != nil {
		internalError(w, "restore editor failed", err, "session", data.ID)
		return nil
	}
	return e
}

// persist writes data back and answers with it.
func (h *Sessions) persist(w http.ResponseWriter, r *http.Request, data *session.Data) {
	if err := h.sessions.Save(r.Context(), data); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		internalError(w, "save session failed", err, "session", data.ID)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// Create opens an editing session on a document, starting in RichText.
// Markdown bodies are converted to HTML for the surface.
// POST /api/documents/{id}/sessions
func (h *Sessions) Create(w http.ResponseWriter, r *http.Request) {
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

	html := doc.Body
	if doc.BodyFormat == models.BodyFormatMarkdown {
		html = h.conv.MarkdownToHTML(html)
	}
	e := editor.New(editor.Config{Converter: h.conv}, h.conv.NormalizeHTML(html))

	data := &session.Data{DocumentID: doc.ID}
	data.Capture(e)
	if err := h.sessions.Create(r.Context(), data); err != nil {
		internalError(w, "create session failed", err, "id", id)
		return
	}

	slog.Info("editing session opened", "session", data.ID, "document", doc.ID)
	writeJSON(w, http.StatusCreated, data)
}

// Get returns the session state.
// GET /api/sessions/{sid}
func (h *Sessions) Get(w http.ResponseWriter, r *http.Request) {
	data := h.load(w, r)
	if data == nil {
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// Edit replaces the content in the current mode.
// PUT /api/sessions/{sid}/content
func (h *Sessions) Edit(w http.ResponseWriter, r *http.Request) {
	content, ok := readContent(w, r)
	if !ok {
		return
	}
	data := h.load(w, r)
	if data == nil {
		return
	}
	e := h.open(w, data)
	if e == nil {
		return
	}

	if err := e.Edit(content); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	data.Capture(e)
	h.persist(w, r, data)
}

// Switch changes the editing mode, converting the content.
// POST /api/sessions/{sid}/mode {"mode": "markdown"}
func (h *Sessions) Switch(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	mode, err := editor.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	data := h.load(w, r)
	if data == nil {
		return
	}
	e := h.open(w, data)
	if e == nil {
		return
	}

	from := e.Mode()
	if err := e.Switch(mode); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	data.Capture(e)

	slog.Debug("editing mode switched", "session", data.ID, "from", from, "to", mode)
	h.persist(w, r, data)
}

// Save writes the session content back to its document. Markdown source
// is stored as normalized Markdown, every other mode as canonical HTML.
// POST /api/sessions/{sid}/save
func (h *Sessions) Save(w http.ResponseWriter, r *http.Request) {
	data := h.load(w, r)
	if data == nil {
		return
	}
	e := h.open(w, data)
	if e == nil {
		return
	}

	body, format := e.Canonical(), models.BodyFormatHTML
	if e.Mode() == editor.MarkdownSource {
		body, format = h.conv.NormalizeMarkdown(e.Content()), models.BodyFormatMarkdown
	}
	if msg := validateContent(body); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	doc, err := h.docs.UpdateBody(data.DocumentID, body, format)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		internalError(w, "save document failed", err, "session", data.ID, "document", data.DocumentID)
		return
	}
	h.pages.Invalidate(r.Context(), doc.Slug)

	slog.Info("document saved from session", "session", data.ID, "document", doc.ID, "format", format)
	writeJSON(w, http.StatusOK, doc)
}

// Close ends the session.
// DELETE /api/sessions/{sid}
func (h *Sessions) Close(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	if err := h.sessions.Delete(r.Context(), sid); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		internalError(w, "delete session failed", err, "session", sid)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
