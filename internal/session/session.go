// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package session provides Valkey-backed editing sessions. A session holds
// one editor's mode and content string between requests, stored as JSON
// with automatic TTL expiry.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"inkwell/internal/editor"
)

const (
	// DefaultTTL is how long an idle session lives in Valkey.
	DefaultTTL = 24 * time.Hour

	// keyPrefix namespaces session keys in Valkey to avoid collisions.
	keyPrefix = "session:"

	// idLength is the byte length of the random session ID (16 bytes = 32 hex chars).
	idLength = 16
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// Data is the persisted state of an editing session.
type Data struct {
	ID         string      `json:"id"`
	DocumentID uuid.UUID   `json:"document_id"`
	Mode       editor.Mode `json:"mode"`
	Content    string      `json:"content"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Open restores an editor from the session state.
func (d *Data) Open(cfg editor.Config) (*editor.Editor, error) {
	e, err := editor.Restore(cfg, d.Mode, d.Content)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", d.ID, err)
	}
	return e, nil
}

// Capture copies the editor's mode and content into the session state.
func (d *Data) Capture(e *editor.Editor) {
	d.Mode = e.Mode()
	d.Content = e.Content()
}

// Store manages session lifecycle in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a session store backed by the given Valkey client.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, ttl: ttl}
}

// Create assigns a new ID to data and stores it.
func (s *Store) Create(ctx context.Context, data *Data) error {
	id, err := generateID()
	if err != nil {
		return fmt.Errorf("session create: %w", err)
	}

	now := time.Now().UTC()
	data.ID = id
	data.CreatedAt = now
	data.UpdatedAt = now

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session marshal: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+id, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	return nil
}

// Get loads a session by ID. Returns ErrNotFound if it does not exist.
func (s *Store) Get(ctx context.Context, id string) (*Data, error) {
	payload, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}
	return &data, nil
}

// Save writes back an existing session and resets its TTL. A session that
// expired in the meantime is not recreated.
func (s *Store) Save(ctx context.Context, data *Data) error {
	data.UpdatedAt = time.Now().UTC()

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session marshal: %w", err)
	}

	ok, err := s.client.SetXX(ctx, keyPrefix+data.ID, payload, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Delete removes a session. Returns ErrNotFound if it did not exist.
func (s *Store) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, keyPrefix+id).Result()
	if err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// generateID creates a cryptographically random session identifier.
func generateID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
