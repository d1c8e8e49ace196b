// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"inkwell/internal/models"
)

// ErrNotFound is returned by mutations that target a missing document.
var ErrNotFound = errors.New("document not found")

// documentColumns lists all columns for documents SELECTs.
const documentColumns = `id, title, slug, body, body_format, created_at, updated_at`

// DocumentStore handles all document-related database operations.
type DocumentStore struct {
	db *sql.DB
}

// NewDocumentStore creates a new DocumentStore with the given database connection.
func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// scanDocument scans a single documents row.
func scanDocument(scanner interface{ Scan(...any) error }) (*models.Document, error) {
	var d models.Document
	err := scanner.Scan(&d.ID, &d.Title, &d.Slug, &d.Body, &d.BodyFormat, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// List returns all documents, most recently updated first.
func (s *DocumentStore) List() ([]models.Document, error) {
	rows, err := s.db.Query(`
		SELECT ` + documentColumns + `
		FROM documents
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

// FindByID retrieves a document by its UUID. Returns nil if not found.
func (s *DocumentStore) FindByID(id uuid.UUID) (*models.Document, error) {
	d, err := scanDocument(s.db.QueryRow(`
		SELECT `+documentColumns+` FROM documents WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find document by id: %w", err)
	}
	return d, nil
}

// FindBySlug retrieves a document by its slug. Returns nil if not found.
func (s *DocumentStore) FindBySlug(slug string) (*models.Document, error) {
	d, err := scanDocument(s.db.QueryRow(`
		SELECT `+documentColumns+` FROM documents WHERE slug = $1
	`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find document by slug: %w", err)
	}
	return d, nil
}

// SlugExists reports whether a document already uses slug.
func (s *DocumentStore) SlugExists(slug string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM documents WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check document slug: %w", err)
	}
	return exists, nil
}

// Create inserts a new document and returns it with the generated ID and
// timestamps.
func (s *DocumentStore) Create(d *models.Document) (*models.Document, error) {
	if d.BodyFormat == "" {
		d.BodyFormat = models.BodyFormatHTML
	}
	result, err := scanDocument(s.db.QueryRow(`
		INSERT INTO documents (title, slug, body, body_format)
		VALUES ($1, $2, $3, $4)
		RETURNING `+documentColumns,
		d.Title, d.Slug, d.Body, d.BodyFormat,
	))
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return result, nil
}

// UpdateBody replaces the body and its format. The previous state is
// snapshotted into document_revisions in the same transaction.
func (s *DocumentStore) UpdateBody(id uuid.UUID, body string, format models.BodyFormat) (*models.Document, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin update body: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO document_revisions (document_id, title, body, body_format)
		SELECT id, title, body, body_format FROM documents WHERE id = $1
	`, id)
	if err != nil {
		return nil, fmt.Errorf("snapshot revision: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}

	d, err := scanDocument(tx.QueryRow(`
		UPDATE documents SET body = $2, body_format = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+documentColumns,
		id, body, format,
	))
	if err != nil {
		return nil, fmt.Errorf("update document body: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update body: %w", err)
	}
	return d, nil
}

// Delete removes a document and, through the foreign key, its revisions.
func (s *DocumentStore) Delete(id uuid.UUID) error {
	res, err := s.db.Exec(`DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
