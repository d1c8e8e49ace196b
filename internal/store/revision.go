// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"inkwell/internal/models"
)

// revisionColumns lists all columns for document_revisions SELECTs.
const revisionColumns = `id, document_id, title, body, body_format, created_at`

// RevisionStore provides read access to document revisions. Revisions are
// written by DocumentStore.UpdateBody.
type RevisionStore struct {
	db *sql.DB
}

// NewRevisionStore creates a new RevisionStore backed by the given database.
func NewRevisionStore(db *sql.DB) *RevisionStore {
	return &RevisionStore{db: db}
}

// scanRevision scans a single document_revisions row.
func scanRevision(scanner interface{ Scan(...any) error }) (*models.DocumentRevision, error) {
	var r models.DocumentRevision
	err := scanner.Scan(&r.ID, &r.DocumentID, &r.Title, &r.Body, &r.BodyFormat, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListByDocumentID returns all revisions of a document, newest first.
func (s *RevisionStore) ListByDocumentID(documentID uuid.UUID) ([]*models.DocumentRevision, error) {
	rows, err := s.db.Query(`
		SELECT `+revisionColumns+`
		FROM document_revisions
		WHERE document_id = $1
		ORDER BY created_at DESC
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()

	var revisions []*models.DocumentRevision
	for rows.Next() {
		r, err := scanRevision(rows)
		if err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		revisions = append(revisions, r)
	}
	return revisions, rows.Err()
}
