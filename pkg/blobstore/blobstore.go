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

package blobstore

import (
	"context"
	"errors"
	"net/url"
	"time"
)

// ErrNotFound is returned when no blob exists under the requested key.
var ErrNotFound = errors.New("blob not found")

// Store is the blob storage service consumed by the image library.
// Keys are opaque; callers must not assume any structure.
type Store interface {
	// Put writes data under key with the given content type.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// ReadAll returns the full raw bytes stored under key.
	ReadAll(ctx context.Context, key string) ([]byte, error)

	// ReadRange returns up to n bytes starting at off. Used to fetch
	// a bounded header window for image introspection.
	ReadRange(ctx context.Context, key string, off, n int64) ([]byte, error)

	// Delete removes the blob under key. Deleting a missing blob is
	// not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether a blob is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// PresignedGet returns a time-limited URL that serves the blob
	// directly. reqParams are carried through as query parameters.
	PresignedGet(ctx context.Context, key string, reqParams url.Values, expires time.Duration) (*url.URL, error)
}
