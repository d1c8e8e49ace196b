// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"

	"inkwell/internal/editor"
	"inkwell/internal/models"
	"inkwell/internal/session"
)

// openSession starts a session on doc and returns its state.
func openSession(t *testing.T, env *testEnv, doc *models.Document) session.Data {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/documents/"+doc.ID.String()+"/sessions", nil)
	wantStatus(t, rec, http.StatusCreated)
	var data session.Data
	decode(t, rec, &data)
	return data
}

func TestSessionCreateFromMarkdown(t *testing.T) {
	env := newTestEnv(t)
	doc := env.Docs.add(t, "Notes", "notes", "Some **bold** text", models.BodyFormatMarkdown)

	data := openSession(t, env, doc)
	if data.ID == "" {
		t.Fatal("expected a session ID")
	}
	if data.DocumentID != doc.ID {
		t.Errorf("document: got %s, want %s", data.DocumentID, doc.ID)
	}
	if data.Mode != editor.RichText {
		t.Errorf("mode: got %s, want richtext", data.Mode)
	}
	if data.Content != "<p>Some <strong>bold</strong> text</p>" {
		t.Errorf("content: got %q", data.Content)
	}
}

func TestSessionCreateErrors(t *testing.T) {
	env := newTestEnv(t)
	wantStatus(t, env.do(t, http.MethodPost, "/api/documents/bad/sessions", nil), http.StatusBadRequest)
	wantStatus(t, env.do(t, http.MethodPost, "/api/documents/"+uuid.NewString()+"/sessions", nil), http.StatusNotFound)
}

func TestSessionSwitchAndEdit(t *testing.T) {
	env := newTestEnv(t)
	doc := env.Docs.add(t, "Doc", "doc", "<h1>Title</h1>", models.BodyFormatHTML)
	data := openSession(t, env, doc)
	base := "/api/sessions/" + data.ID

	rec := env.do(t, http.MethodPost, base+"/mode", modeRequest{Mode: "markdown"})
	wantStatus(t, rec, http.StatusOK)
	decode(t, rec, &data)
	if data.Mode != editor.MarkdownSource || data.Content != "# Title" {
		t.Fatalf("after switch to markdown: mode %s, content %q", data.Mode, data.Content)
	}

	rec = env.do(t, http.MethodPut, base+"/content", contentRequest{Content: "# Title\n\nNew *text*"})
	wantStatus(t, rec, http.StatusOK)
	decode(t, rec, &data)
	if data.Content != "# Title\n\nNew *text*" {
		t.Errorf("after edit: content %q", data.Content)
	}

	rec = env.do(t, http.MethodPost, base+"/mode", modeRequest{Mode: "HTML"})
	wantStatus(t, rec, http.StatusOK)
	decode(t, rec, &data)
	if data.Mode != editor.HTMLSource {
		t.Errorf("mode: got %s, want html", data.Mode)
	}
	if !strings.Contains(data.Content, "<h1>Title</h1>") || !strings.Contains(data.Content, "<em>text</em>") {
		t.Errorf("html content: %q", data.Content)
	}

	// The stored state matches what the handler answered.
	rec = env.do(t, http.MethodGet, base, nil)
	wantStatus(t, rec, http.StatusOK)
	var stored session.Data
	decode(t, rec, &stored)
	if stored.Mode != data.Mode || stored.Content != data.Content {
		t.Errorf("stored %+v, answered %+v", stored, data)
	}
}

func TestSessionSwitchToSameMode(t *testing.T) {
	env := newTestEnv(t)
	doc := env.Docs.add(t, "Doc", "doc", "<p>x</p>", models.BodyFormatHTML)
	data := openSession(t, env, doc)

	rec := env.do(t, http.MethodPost, "/api/sessions/"+data.ID+"/mode", modeRequest{Mode: "richtext"})
	wantStatus(t, rec, http.StatusOK)
	var after session.Data
	decode(t, rec, &after)
	if after.Content != data.Content {
		t.Errorf("content changed: %q -> %q", data.Content, after.Content)
	}
}

func TestSessionBadRequests(t *testing.T) {
	env := newTestEnv(t)
	doc := env.Docs.add(t, "Doc", "doc", "<p>x</p>", models.BodyFormatHTML)
	data := openSession(t, env, doc)
	base := "/api/sessions/" + data.ID

	wantStatus(t, env.do(t, http.MethodPost, base+"/mode", modeRequest{Mode: "wysiwyg"}), http.StatusUnprocessableEntity)
	wantStatus(t, env.do(t, http.MethodPost, base+"/mode", `{"mode":`), http.StatusBadRequest)
	wantStatus(t, env.do(t, http.MethodPut, base+"/content", `{"body":"x"}`), http.StatusBadRequest)
	wantStatus(t, env.do(t, http.MethodGet, "/api/sessions/missing", nil), http.StatusNotFound)
	wantStatus(t, env.do(t, http.MethodPut, "/api/sessions/missing/content", contentRequest{Content: "x"}), http.StatusNotFound)
	wantStatus(t, env.do(t, http.MethodPost, "/api/sessions/missing/mode", modeRequest{Mode: "html"}), http.StatusNotFound)
	wantStatus(t, env.do(t, http.MethodPost, "/api/sessions/missing/save", nil), http.StatusNotFound)
}

func TestSessionSave(t *testing.T) {
	tests := []struct {
		name       string
		mode       string
		edit       string
		wantFormat models.BodyFormat
		wantBody   string
	}{
		{
			name:       "rich text stores canonical html",
			mode:       "richtext",
			edit:       "<p>  saved   <b>now</b></p>",
			wantFormat: models.BodyFormatHTML,
			wantBody:   "<p> saved <b>now</b></p>",
		},
		{
			name:       "html source stores canonical html",
			mode:       "html",
			edit:       "<p>raw</p>",
			wantFormat: models.BodyFormatHTML,
			wantBody:   "<p>raw</p>",
		},
		{
			name:       "markdown source stores normalized markdown",
			mode:       "markdown",
			edit:       "line   \r\n\r\n\r\nnext",
			wantFormat: models.BodyFormatMarkdown,
			wantBody:   "line\n\nnext",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			doc := env.Docs.add(t, "Doc", "doc", "<p>old</p>", models.BodyFormatHTML)
			data := openSession(t, env, doc)
			base := "/api/sessions/" + data.ID

			wantStatus(t, env.do(t, http.MethodPost, base+"/mode", modeRequest{Mode: tt.mode}), http.StatusOK)
			wantStatus(t, env.do(t, http.MethodPut, base+"/content", contentRequest{Content: tt.edit}), http.StatusOK)

			rec := env.do(t, http.MethodPost, base+"/save", nil)
			wantStatus(t, rec, http.StatusOK)

			var saved models.Document
			decode(t, rec, &saved)
			if saved.BodyFormat != tt.wantFormat {
				t.Errorf("format: got %q, want %q", saved.BodyFormat, tt.wantFormat)
			}
			if saved.Body != tt.wantBody {
				t.Errorf("body: got %q, want %q", saved.Body, tt.wantBody)
			}
			if len(env.Docs.revisions[doc.ID]) != 1 {
				t.Errorf("expected one revision, got %d", len(env.Docs.revisions[doc.ID]))
			}
			if len(env.Pages.invalidated) != 1 || env.Pages.invalidated[0] != "doc" {
				t.Errorf("invalidated: got %v, want [doc]", env.Pages.invalidated)
			}
		})
	}
}

func TestSessionSaveDeletedDocument(t *testing.T) {
	env := newTestEnv(t)
	doc := env.Docs.add(t, "Doc", "doc", "<p>x</p>", models.BodyFormatHTML)
	data := openSession(t, env, doc)

	if err := env.Docs.Delete(doc.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	wantStatus(t, env.do(t, http.MethodPost, "/api/sessions/"+data.ID+"/save", nil), http.StatusNotFound)
}

func TestSessionClose(t *testing.T) {
	env := newTestEnv(t)
	doc := env.Docs.add(t, "Doc", "doc", "<p>x</p>", models.BodyFormatHTML)
	data := openSession(t, env, doc)

	wantStatus(t, env.do(t, http.MethodDelete, "/api/sessions/"+data.ID, nil), http.StatusNoContent)
	wantStatus(t, env.do(t, http.MethodGet, "/api/sessions/"+data.ID, nil), http.StatusNotFound)
	wantStatus(t, env.do(t, http.MethodDelete, "/api/sessions/"+data.ID, nil), http.StatusNotFound)
}
