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
	"bytes"
	"context"
	"errors"
	"net/url"
	"testing"
	"time"
)

func TestMemStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	data := []byte("some image bytes")

	if err := store.Put(ctx, "a/b.png", data, "image/png"); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	got, err := store.ReadAll(ctx, "a/b.png")
	if err != nil {
		t.Fatalf("ReadAll() failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("ReadAll() = %q, want %q", got, data)
	}

	exists, err := store.Exists(ctx, "a/b.png")
	if err != nil || !exists {
		t.Errorf("Exists() = %v, %v, want true, nil", exists, err)
	}

	if err := store.Delete(ctx, "a/b.png"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := store.ReadAll(ctx, "a/b.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadAll() after delete error = %v, want ErrNotFound", err)
	}
}

func TestMemStore_ReadRange(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	if err := store.Put(ctx, "key", []byte("0123456789"), "application/octet-stream"); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	testCases := []struct {
		name string
		off  int64
		n    int64
		want string
	}{
		{"prefix", 0, 4, "0123"},
		{"middle", 3, 3, "345"},
		{"past the end", 8, 10, "89"},
		{"offset beyond data", 20, 5, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := store.ReadRange(ctx, "key", tc.off, tc.n)
			if err != nil {
				t.Fatalf("ReadRange() failed: %v", err)
			}
			if string(got) != tc.want {
				t.Errorf("ReadRange(%d, %d) = %q, want %q", tc.off, tc.n, got, tc.want)
			}
		})
	}

	if _, err := store.ReadRange(ctx, "missing", 0, 4); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadRange() of missing key error = %v, want ErrNotFound", err)
	}
}

func TestMemStore_PresignedGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	if err := store.Put(ctx, "pics/cat.png", []byte("meow"), "image/png"); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	params := url.Values{}
	params.Set("size", "200")
	u, err := store.PresignedGet(ctx, "pics/cat.png", params, time.Hour)
	if err != nil {
		t.Fatalf("PresignedGet() failed: %v", err)
	}
	if u.Path != "/pics/cat.png" {
		t.Errorf("PresignedGet() path = %q, want /pics/cat.png", u.Path)
	}
	if u.Query().Get("size") != "200" {
		t.Errorf("PresignedGet() must carry request parameters, got %q", u.RawQuery)
	}

	if _, err := store.PresignedGet(ctx, "missing", nil, time.Hour); !errors.Is(err, ErrNotFound) {
		t.Errorf("PresignedGet() of missing key error = %v, want ErrNotFound", err)
	}
}
