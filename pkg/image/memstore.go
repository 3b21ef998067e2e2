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

package image

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory Store used by tests.
type MemStore struct {
	mu     sync.RWMutex
	images map[string]*Image
	order  []string
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{images: make(map[string]*Image)}
}

func (s *MemStore) NewID() string {
	return uuid.New().String()
}

func (s *MemStore) Put(_ context.Context, img *Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if _, ok := s.images[img.ID]; !ok {
		if img.Created.IsZero() {
			img.Created = now
		}
		s.order = append(s.order, img.ID)
	}
	img.Modified = now

	stored := *img
	s.images[img.ID] = &stored
	return nil
}

func (s *MemStore) Get(_ context.Context, id string) (*Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	img, ok := s.images[id]
	if !ok {
		return nil, ErrImageNotFound
	}
	copied := *img
	return &copied, nil
}

func (s *MemStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.images[id]; !ok {
		return ErrImageNotFound
	}
	delete(s.images, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemStore) List(_ context.Context, cursor string, limit int) ([]*Image, string, error) {
	if limit < 1 {
		return nil, "", nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if cursor != "" {
		found := false
		for i, id := range s.order {
			if id == cursor {
				start = i + 1
				found = true
				break
			}
		}
		if !found {
			return nil, "", ErrBadCursor
		}
	}

	var out []*Image
	for _, id := range s.order[start:] {
		if len(out) == limit {
			break
		}
		copied := *s.images[id]
		out = append(out, &copied)
	}

	next := ""
	if len(out) == limit && start+len(out) < len(s.order) {
		next = out[len(out)-1].ID
	}
	return out, next, nil
}

// Len reports how many records are stored. Test helper.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.images)
}
