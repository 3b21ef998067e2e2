// Copyright 2026 The picstash Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pgstore persists image records in a PostgreSQL table.
// Record IDs are UUID strings.
package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/picstash-io/picstash/pkg/image"
)

const schema = `
CREATE TABLE IF NOT EXISTS images (
	id UUID PRIMARY KEY,
	blob_key TEXT NOT NULL DEFAULT '',
	source_url TEXT NOT NULL DEFAULT '',
	created TIMESTAMPTZ NOT NULL,
	modified TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS images_created_idx ON images (created, id);
`

// Store implements image.Store over a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ image.Store = (*Store)(nil)

// NewStore connects to PostgreSQL and ensures the images table exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure images schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) NewID() string {
	return uuid.New().String()
}

func (s *Store) Put(ctx context.Context, img *image.Image) error {
	if _, err := uuid.Parse(img.ID); err != nil {
		return fmt.Errorf("invalid image id %q: %w", img.ID, err)
	}

	query := `
		INSERT INTO images (id, blob_key, source_url, created, modified)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE
		SET blob_key = EXCLUDED.blob_key,
		    source_url = EXCLUDED.source_url,
		    modified = NOW()
		RETURNING created, modified
	`
	row := s.pool.QueryRow(ctx, query, img.ID, img.BlobKey, img.SourceURL)
	if err := row.Scan(&img.Created, &img.Modified); err != nil {
		return fmt.Errorf("failed to upsert image: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*image.Image, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, image.ErrImageNotFound
	}

	query := `
		SELECT id, blob_key, source_url, created, modified
		FROM images
		WHERE id = $1
	`
	row := s.pool.QueryRow(ctx, query, id)

	var img image.Image
	err := row.Scan(&img.ID, &img.BlobKey, &img.SourceURL, &img.Created, &img.Modified)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, image.ErrImageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan image: %w", err)
	}
	return &img, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return image.ErrImageNotFound
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return image.ErrImageNotFound
	}
	return nil
}

// List pages through records in creation order using keyset
// pagination on (created, id).
func (s *Store) List(ctx context.Context, cursor string, limit int) ([]*image.Image, string, error) {
	if limit < 1 {
		return nil, "", nil
	}

	var rows pgx.Rows
	var err error

	// Fetch one extra row to learn whether another page exists.
	if cursor == "" {
		query := `
			SELECT id, blob_key, source_url, created, modified
			FROM images
			ORDER BY created, id
			LIMIT $1
		`
		rows, err = s.pool.Query(ctx, query, limit+1)
	} else {
		if _, perr := uuid.Parse(cursor); perr != nil {
			return nil, "", image.ErrBadCursor
		}
		query := `
			SELECT i.id, i.blob_key, i.source_url, i.created, i.modified
			FROM images i, images c
			WHERE c.id = $1
			  AND (i.created, i.id) > (c.created, c.id)
			ORDER BY i.created, i.id
			LIMIT $2
		`
		rows, err = s.pool.Query(ctx, query, cursor, limit+1)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to list images: %w", err)
	}
	defer rows.Close()

	var images []*image.Image
	for rows.Next() {
		var img image.Image
		if err := rows.Scan(&img.ID, &img.BlobKey, &img.SourceURL, &img.Created, &img.Modified); err != nil {
			return nil, "", fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, &img)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	next := ""
	if len(images) > limit {
		images = images[:limit]
		next = images[limit-1].ID
	}
	return images, next, nil
}
