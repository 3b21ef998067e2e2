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
	"fmt"
	"net/url"
	"sync"
	"time"
)

// MemStore is an in-memory Store used by tests and local development.
// It serves presigned URLs from a fake host so callers can exercise the
// serving-URL flow without an object storage server.
type MemStore struct {
	mu    sync.RWMutex
	blobs map[string]memBlob
}

type memBlob struct {
	data        []byte
	contentType string
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{blobs: make(map[string]memBlob)}
}

func (s *MemStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.blobs[key] = memBlob{data: buf, contentType: contentType}
	return nil
}

func (s *MemStore) ReadAll(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	buf := make([]byte, len(blob.data))
	copy(buf, blob.data)
	return buf, nil
}

func (s *MemStore) ReadRange(_ context.Context, key string, off, n int64) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	if off >= int64(len(blob.data)) {
		return nil, nil
	}
	end := off + n
	if end > int64(len(blob.data)) {
		end = int64(len(blob.data))
	}
	buf := make([]byte, end-off)
	copy(buf, blob.data[off:end])
	return buf, nil
}

func (s *MemStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

func (s *MemStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[key]
	return ok, nil
}

func (s *MemStore) PresignedGet(_ context.Context, key string, reqParams url.Values, expires time.Duration) (*url.URL, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.blobs[key]; !ok {
		return nil, ErrNotFound
	}

	u := &url.URL{
		Scheme:   "http",
		Host:     "blobstore.local",
		Path:     "/" + key,
		RawQuery: reqParams.Encode(),
	}
	q := u.Query()
	q.Set("expires", fmt.Sprintf("%d", int64(expires.Seconds())))
	u.RawQuery = q.Encode()
	return u, nil
}

// Len reports how many blobs are stored. Test helper.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
