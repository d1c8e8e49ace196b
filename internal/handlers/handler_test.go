// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"inkwell/internal/markdown"
	"inkwell/internal/models"
	"inkwell/internal/render"
	"inkwell/internal/richtext"
	"inkwell/internal/session"
	"inkwell/internal/store"
)

// memDocs is an in-memory DocumentRepo.
type memDocs struct {
	mu        sync.Mutex
	docs      map[uuid.UUID]*models.Document
	revisions map[uuid.UUID][]*models.DocumentRevision
	err       error // returned by every call when set
}

func newMemDocs() *memDocs {
	return &memDocs{
		docs:      make(map[uuid.UUID]*models.Document),
		revisions: make(map[uuid.UUID][]*models.DocumentRevision),
	}
}

func (m *memDocs) List() ([]models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []models.Document
	for _, d := range m.docs {
		out = append(out, *d)
	}
	return out, nil
}

func (m *memDocs) FindByID(id uuid.UUID) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	d, ok := m.docs[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (m *memDocs) FindBySlug(slug string) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, d := range m.docs {
		if d.Slug == slug {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memDocs) SlugExists(slug string) (bool, error) {
	d, err := m.FindBySlug(slug)
	return d != nil, err
}

func (m *memDocs) Create(d *models.Document) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	cp := *d
	cp.ID = uuid.New()
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	m.docs[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memDocs) UpdateBody(id uuid.UUID, body string, format models.BodyFormat) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	d, ok := m.docs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	m.revisions[id] = append([]*models.DocumentRevision{{
		ID:         uuid.New(),
		DocumentID: id,
		Title:      d.Title,
		Body:       d.Body,
		BodyFormat: d.BodyFormat,
		CreatedAt:  time.Now().UTC(),
	}}, m.revisions[id]...)
	d.Body = body
	d.BodyFormat = format
	d.UpdatedAt = time.Now().UTC()
	cp := *d
	return &cp, nil
}

func (m *memDocs) Delete(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.docs[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.docs, id)
	delete(m.revisions, id)
	return nil
}

func (m *memDocs) ListByDocumentID(id uuid.UUID) ([]*models.DocumentRevision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revisions[id], m.err
}

// add stores a document directly and returns it.
func (m *memDocs) add(t *testing.T, title, slug, body string, format models.BodyFormat) *models.Document {
	t.Helper()
	d, err := m.Create(&models.Document{Title: title, Slug: slug, Body: body, BodyFormat: format})
	if err != nil {
		t.Fatalf("add document: %v", err)
	}
	return d
}

// memPages is an in-memory PageCache that records invalidations.
type memPages struct {
	mu          sync.Mutex
	pages       map[string][]byte
	invalidated []string
}

func newMemPages() *memPages {
	return &memPages{pages: make(map[string][]byte)}
}

func (m *memPages) Get(_ context.Context, slug string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.pages[slug]
	return b, ok
}

func (m *memPages) Set(_ context.Context, slug string, html []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[slug] = append([]byte(nil), html...)
}

func (m *memPages) Invalidate(_ context.Context, slug string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pages, slug)
	m.invalidated = append(m.invalidated, slug)
}

// memSessions is an in-memory SessionRepo.
type memSessions struct {
	mu       sync.Mutex
	sessions map[string]session.Data
	next     int
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: make(map[string]session.Data)}
}

func (m *memSessions) Create(_ context.Context, data *session.Data) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	data.ID = fmt.Sprintf("s%d", m.next)
	data.CreatedAt = time.Now().UTC()
	data.UpdatedAt = data.CreatedAt
	m.sessions[data.ID] = *data
	return nil
}

func (m *memSessions) Get(_ context.Context, id string) (*session.Data, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.sessions[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return &d, nil
}

func (m *memSessions) Save(_ context.Context, data *session.Data) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[data.ID]; !ok {
		return session.ErrNotFound
	}
	data.UpdatedAt = time.Now().UTC()
	m.sessions[data.ID] = *data
	return nil
}

func (m *memSessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return session.ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

// memConvertCache counts conversions and memoizes them in a map.
type memConvertCache struct {
	mu      sync.Mutex
	entries map[string]string
	misses  int
}

func (m *memConvertCache) Convert(_ context.Context, direction, input string, fn func(string) string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = make(map[string]string)
	}
	key := direction + "\x00" + input
	if out, ok := m.entries[key]; ok {
		return out
	}
	m.misses++
	out := fn(input)
	m.entries[key] = out
	return out
}

// testEnv wires every handler group to in-memory fakes behind a chi router
// with the same routes the server mounts.
type testEnv struct {
	Docs     *memDocs
	Pages    *memPages
	Sessions *memSessions
	Cache    *memConvertCache
	Router   http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	templates, err := render.New()
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	env := &testEnv{
		Docs:     newMemDocs(),
		Pages:    newMemPages(),
		Sessions: newMemSessions(),
		Cache:    &memConvertCache{},
	}
	conv := richtext.New(richtext.Options{})

	convert := NewConvert(conv, env.Cache)
	docs := NewDocuments(env.Docs, env.Docs, conv, env.Pages)
	sessions := NewSessions(env.Sessions, env.Docs, conv, env.Pages)
	public := NewPublic(env.Docs, markdown.New(""), templates, env.Pages)

	r := chi.NewRouter()
	r.Post("/api/convert/markdown", convert.ToMarkdown)
	r.Post("/api/convert/html", convert.ToHTML)
	r.Post("/api/normalize/{format}", convert.Normalize)
	r.Get("/api/documents", docs.List)
	r.Post("/api/documents", docs.Create)
	r.Get("/api/documents/{id}", docs.Get)
	r.Delete("/api/documents/{id}", docs.Delete)
	r.Get("/api/documents/{id}/revisions", docs.Revisions)
	r.Post("/api/documents/{id}/sessions", sessions.Create)
	r.Get("/api/sessions/{sid}", sessions.Get)
	r.Put("/api/sessions/{sid}/content", sessions.Edit)
	r.Post("/api/sessions/{sid}/mode", sessions.Switch)
	r.Post("/api/sessions/{sid}/save", sessions.Save)
	r.Delete("/api/sessions/{sid}", sessions.Close)
	r.Get("/{slug}", public.Page)
	env.Router = r

	return env
}

// do sends a request through the router. body is JSON-encoded unless it is
// a string, which is sent as is.
func (env *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = strings.NewReader(string(raw))
	}

	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)
	return rec
}

// decode unmarshals the recorded JSON body into v.
func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

// wantStatus fails the test when the recorded status differs.
func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status: got %d, want %d (body %q)", rec.Code, want, rec.Body.String())
	}
}

var errBoom = errors.New("boom")
