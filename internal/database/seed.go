// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// welcomeBody is the Markdown body of the seeded welcome document. It
// touches most of the constructs the editor converts.
const welcomeBody = `# Welcome to Inkwell

Edit this document in **rich text**, *Markdown* or raw HTML and switch
between the modes at any time.

- Lists nest
  - to any depth
1. and count

> Quotes, ` + "`code`" + ` and [links](https://example.com) survive the trip.

| Mode | Grammar |
| --- | --- |
| richtext | HTML |
| markdown | Markdown |
| html | HTML |
`

// Seed populates the database with initial development data. It creates a
// welcome document if no documents exist yet.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&count); err != nil {
		return fmt.Errorf("seed check documents: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	_, err := db.Exec(`
		INSERT INTO documents (title, slug, body, body_format)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (slug) DO NOTHING
	`, "Welcome to Inkwell", "welcome", welcomeBody, "markdown")
	if err != nil {
		return fmt.Errorf("seed insert welcome document: %w", err)
	}

	slog.Info("database seeded with welcome document", "slug", "welcome")
	return nil
}
