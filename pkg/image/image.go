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

// Package image stores and retrieves image records whose binary data
// lives in a blob store. It keeps one invariant above all others: an
// image record with a blob key always has that blob present, and
// deleting the record deletes the blob.
package image

import (
	"context"
	"errors"
	"time"
)

// Image is one stored image. BlobKey is empty until binary data has
// been attached.
type Image struct {
	ID        string    `json:"id"`
	BlobKey   string    `json:"blob_key,omitempty"`
	SourceURL string    `json:"source_url,omitempty"`
	Created   time.Time `json:"created"`
	Modified  time.Time `json:"modified"`
}

// HasBlob reports whether binary data is attached to the record.
func (img *Image) HasBlob() bool {
	return img != nil && img.BlobKey != ""
}

// Store persists image records. Implementations differ in key type and
// listing mechanics but share these semantics: Put upserts and manages
// the Created/Modified timestamps, Get and Delete report
// ErrImageNotFound for unknown IDs, and List walks records in creation
// order using an opaque cursor.
type Store interface {
	// NewID mints a key for a new record.
	NewID() string

	// Put inserts or updates a record. Created is set on first insert,
	// Modified on every write.
	Put(ctx context.Context, img *Image) error

	// Get returns the record with the given ID.
	Get(ctx context.Context, id string) (*Image, error)

	// Delete removes the record with the given ID.
	Delete(ctx context.Context, id string) error

	// List returns up to limit records starting after cursor, plus the
	// cursor for the next page ("" when exhausted). A limit below 1
	// yields an empty page with no cursor.
	List(ctx context.Context, cursor string, limit int) ([]*Image, string, error)
}

var (
	// ErrImageNotFound is returned for IDs with no stored record.
	ErrImageNotFound = errors.New("image not found")

	// ErrNoImageData is returned by Create when no image source
	// yielded any data.
	ErrNoImageData = errors.New("no image data")

	// ErrInvalidMIMEType is returned by Create when the resolved MIME
	// type is not in the configured allow-list.
	ErrInvalidMIMEType = errors.New("image mime type is not valid")

	// ErrBadCursor is returned by List for a cursor the store did not
	// issue.
	ErrBadCursor = errors.New("invalid list cursor")
)
