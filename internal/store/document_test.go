// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"inkwell/internal/models"
)

// testSlug returns a slug unique to this run so parallel packages sharing
// the database do not collide.
func testSlug(prefix string) string {
	return prefix + "-" + uuid.New().String()[:8]
}

func createTestDocument(t *testing.T, s *DocumentStore, slug, body string, format models.BodyFormat) *models.Document {
	t.Helper()
	d, err := s.Create(&models.Document{Title: "Test " + slug, Slug: slug, Body: body, BodyFormat: format})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return d
}

func TestDocumentStoreCreateAndFind(t *testing.T) {
	db := testDB(t)
	s := NewDocumentStore(db)
	slug := testSlug("create-find")
	t.Cleanup(func() { cleanDocuments(t, db, slug) })

	created := createTestDocument(t, s, slug, "<p>Hello</p>", models.BodyFormatHTML)
	if created.ID == uuid.Nil {
		t.Fatal("expected a generated ID")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}

	byID, err := s.FindByID(created.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if byID == nil || byID.Body != "<p>Hello</p>" || byID.BodyFormat != models.BodyFormatHTML {
		t.Errorf("FindByID = %+v, want the created document", byID)
	}

	bySlug, err := s.FindBySlug(slug)
	if err != nil {
		t.Fatalf("FindBySlug: %v", err)
	}
	if bySlug == nil || bySlug.ID != created.ID {
		t.Errorf("FindBySlug = %+v, want ID %s", bySlug, created.ID)
	}

	exists, err := s.SlugExists(slug)
	if err != nil {
		t.Fatalf("SlugExists: %v", err)
	}
	if !exists {
		t.Error("SlugExists = false, want true")
	}
}

func TestDocumentStoreCreateDefaultsToHTML(t *testing.T) {
	db := testDB(t)
	s := NewDocumentStore(db)
	slug := testSlug("default-format")
	t.Cleanup(func() { cleanDocuments(t, db, slug) })

	d := createTestDocument(t, s, slug, "<p>x</p>", "")
	if d.BodyFormat != models.BodyFormatHTML {
		t.Errorf("BodyFormat = %q, want html", d.BodyFormat)
	}
}

func TestDocumentStoreFindMissing(t *testing.T) {
	db := testDB(t)
	s := NewDocumentStore(db)

	d, err := s.FindByID(uuid.New())
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if d != nil {
		t.Errorf("FindByID = %+v, want nil", d)
	}

	d, err = s.FindBySlug(testSlug("missing"))
	if err != nil {
		t.Fatalf("FindBySlug: %v", err)
	}
	if d != nil {
		t.Errorf("FindBySlug = %+v, want nil", d)
	}
}

func TestDocumentStoreUpdateBodySnapshotsRevision(t *testing.T) {
	db := testDB(t)
	s := NewDocumentStore(db)
	revisions := NewRevisionStore(db)
	slug := testSlug("update-body")
	t.Cleanup(func() { cleanDocuments(t, db, slug) })

	d := createTestDocument(t, s, slug, "<p>v1</p>", models.BodyFormatHTML)

	updated, err := s.UpdateBody(d.ID, "v2 **bold**", models.BodyFormatMarkdown)
	if err != nil {
		t.Fatalf("UpdateBody: %v", err)
	}
	if updated.Body != "v2 **bold**" || updated.BodyFormat != models.BodyFormatMarkdown {
		t.Errorf("UpdateBody = %+v, want markdown v2", updated)
	}
	if updated.UpdatedAt.Before(d.UpdatedAt) {
		t.Error("UpdatedAt moved backwards")
	}

	if _, err := s.UpdateBody(d.ID, "v3", models.BodyFormatMarkdown); err != nil {
		t.Fatalf("second UpdateBody: %v", err)
	}

	revs, err := revisions.ListByDocumentID(d.ID)
	if err != nil {
		t.Fatalf("ListByDocumentID: %v", err)
	}
	if len(revs) != 2 {
		t.Fatalf("got %d revisions, want 2", len(revs))
	}
	if revs[1].Body != "<p>v1</p>" || revs[1].BodyFormat != models.BodyFormatHTML {
		t.Errorf("oldest revision = %+v, want the html v1 body", revs[1])
	}
	if revs[0].Body != "v2 **bold**" {
		t.Errorf("newest revision body = %q, want v2", revs[0].Body)
	}
}

func TestDocumentStoreUpdateBodyMissing(t *testing.T) {
	db := testDB(t)
	s := NewDocumentStore(db)

	_, err := s.UpdateBody(uuid.New(), "x", models.BodyFormatHTML)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateBody error = %v, want ErrNotFound", err)
	}
}

func TestDocumentStoreList(t *testing.T) {
	db := testDB(t)
	s := NewDocumentStore(db)
	older, newer := testSlug("list-older"), testSlug("list-newer")
	t.Cleanup(func() { cleanDocuments(t, db, older, newer) })

	first := createTestDocument(t, s, older, "a", models.BodyFormatMarkdown)
	second := createTestDocument(t, s, newer, "b", models.BodyFormatMarkdown)

	docs, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	pos := map[uuid.UUID]int{}
	for i, d := range docs {
		pos[d.ID] = i
	}
	i, ok1 := pos[first.ID]
	j, ok2 := pos[second.ID]
	if !ok1 || !ok2 {
		t.Fatal("List is missing the created documents")
	}
	if j > i {
		t.Errorf("newer document at %d listed after older at %d", j, i)
	}
}

func TestDocumentStoreDelete(t *testing.T) {
	db := testDB(t)
	s := NewDocumentStore(db)
	slug := testSlug("delete")
	t.Cleanup(func() { cleanDocuments(t, db, slug) })

	d := createTestDocument(t, s, slug, "x", models.BodyFormatHTML)
	if _, err := s.UpdateBody(d.ID, "y", models.BodyFormatHTML); err != nil {
		t.Fatalf("UpdateBody: %v", err)
	}

	if err := s.Delete(d.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := s.FindByID(d.ID); got != nil {
		t.Error("document still found after Delete")
	}

	revs, err := NewRevisionStore(db).ListByDocumentID(d.ID)
	if err != nil {
		t.Fatalf("ListByDocumentID: %v", err)
	}
	if len(revs) != 0 {
		t.Errorf("got %d revisions after Delete, want 0", len(revs))
	}

	if err := s.Delete(d.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}
}
