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
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"slices"

	"github.com/picstash-io/picstash/pkg/blobstore"
	"github.com/picstash-io/picstash/pkg/config"
	"github.com/picstash-io/picstash/pkg/fetch"
	"github.com/picstash-io/picstash/pkg/imagemeta"
	"github.com/picstash-io/picstash/pkg/pslog"
	"github.com/picstash-io/picstash/pkg/urlcache"
)

// sniffWindowSize is how many leading bytes are read for the first,
// cheap introspection attempt before falling back to the full header
// window.
const sniffWindowSize = 512

// Service implements the image behavior shared by every entity store:
// metadata introspection, cached serving URLs, the create factory, and
// deletion without orphaned blobs.
type Service struct {
	store   Store
	blobs   blobstore.Store
	cache   urlcache.Cache
	urls    URLProvider
	fetcher fetch.Fetcher

	// settings is read on every create and serving-URL call so config
	// reloads take effect without restarting.
	settings func() config.ImageConfig
}

// Deps are the collaborators a Service needs.
type Deps struct {
	Store    Store
	Blobs    blobstore.Store
	Cache    urlcache.Cache
	URLs     URLProvider
	Fetcher  fetch.Fetcher
	Settings func() config.ImageConfig
}

func NewService(deps Deps) *Service {
	if deps.URLs == nil {
		deps.URLs = &PresignedProvider{Blobs: deps.Blobs}
	}
	if deps.Settings == nil {
		deps.Settings = func() config.ImageConfig { return config.Get().Image }
	}
	return &Service{
		store:    deps.Store,
		blobs:    deps.Blobs,
		cache:    deps.Cache,
		urls:     deps.URLs,
		fetcher:  deps.Fetcher,
		settings: deps.Settings,
	}
}

// Get returns the record with the given ID.
func (s *Service) Get(ctx context.Context, id string) (*Image, error) {
	return s.store.Get(ctx, id)
}

// List returns a page of records and the cursor for the next page.
func (s *Service) List(ctx context.Context, cursor string, limit int) ([]*Image, string, error) {
	return s.store.List(ctx, cursor, limit)
}

// Metadata probes the attached blob and returns its format and pixel
// dimensions. A quick sniff of the leading bytes is tried first; when
// the header is not recognized there, a bounded header window is
// fetched and probed instead. Returns nil with no error when the
// record has no blob.
func (s *Service) Metadata(ctx context.Context, img *Image) (*imagemeta.Info, error) {
	if !img.HasBlob() {
		return nil, nil
	}

	sniff, err := s.blobs.ReadRange(ctx, img.BlobKey, 0, sniffWindowSize)
	if err != nil {
		return nil, err
	}
	info, probeErr := imagemeta.Probe(sniff)
	if probeErr == nil {
		return &info, nil
	}

	window, err := s.blobs.ReadRange(ctx, img.BlobKey, 0, imagemeta.HeaderWindowSize)
	if err != nil {
		return nil, err
	}
	info, err = imagemeta.Probe(window)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// Data returns the full raw bytes of the attached blob, or nil when
// the record has no blob.
func (s *Service) Data(ctx context.Context, img *Image) ([]byte, error) {
	if !img.HasBlob() {
		return nil, nil
	}
	return s.blobs.ReadAll(ctx, img.BlobKey)
}

// ServingURL returns a URL that serves the requested rendition of the
// image directly. Results are cached under (entity, size, crop) for
// the configured TTL; on a miss the provider is asked up to the
// configured number of tries. Failures never surface as errors: the
// result is "" and the failure is logged.
func (s *Service) ServingURL(ctx context.Context, img *Image, opts ServingOpts) string {
	if !img.HasBlob() {
		return ""
	}
	settings := s.settings()

	cacheKey := fmt.Sprintf("%s-%d-%t", img.ID, opts.Size, opts.Crop)
	if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
		return cached
	} else if !errors.Is(err, urlcache.ErrCacheMiss) {
		pslog.Warnf("Serving URL cache lookup failed for %s: %v", cacheKey, err)
	}

	servingURL := ""
	for tries := 1; tries <= settings.ServingURLLookupTries; tries++ {
		u, err := s.urls.ServingURL(ctx, img.BlobKey, opts, settings.ServingURLTTL)
		if err == nil && u != "" {
			servingURL = u
			break
		}
		if tries >= settings.ServingURLLookupTries {
			pslog.Errorf("Unable to get image serving URL: %v", err)
		}
	}

	if servingURL != "" {
		if err := s.cache.Set(ctx, cacheKey, servingURL, settings.ServingURLTTL); err != nil {
			pslog.Warnf("Failed to cache serving URL for %s: %v", cacheKey, err)
		}
	}
	return servingURL
}

// CreateOptions name the single image source for Create: an existing
// blob key, raw data, or a URL to fetch. Filename and MIMEType are
// optional hints; both are inferred when absent.
type CreateOptions struct {
	BlobKey  string
	Data     []byte
	URL      string
	Filename string
	MIMEType string
}

// Create makes a new image record. Use it instead of constructing
// records directly; it is the only path that attaches blobs.
//
// With a BlobKey the record is persisted as-is and no data handling
// happens. Otherwise data comes from Data or from fetching URL. The
// record is persisted first so its key can serve as a fallback
// filename; the resolved MIME type is then checked against the
// allow-list, deleting the placeholder on rejection. When the MIME
// type pins a canonical format (JPEG or PNG) that differs from the
// detected one, the bytes are re-encoded at full quality before being
// written to the blob store.
func (s *Service) Create(ctx context.Context, opts CreateOptions) (*Image, error) {
	if opts.BlobKey != "" {
		img := &Image{ID: s.store.NewID(), BlobKey: opts.BlobKey}
		if err := s.store.Put(ctx, img); err != nil {
			return nil, err
		}
		return img, nil
	}

	data := opts.Data
	filename := opts.Filename
	mimeType := opts.MIMEType
	if data == nil && opts.URL != "" {
		res, err := s.fetcher.Fetch(ctx, opts.URL)
		if err != nil {
			return nil, fmt.Errorf("fetching image from %s: %w", opts.URL, err)
		}
		data = res.Data
		if mimeType == "" {
			mimeType = res.MIMEType
		}
		if filename == "" {
			filename = res.Filename
		}
	}
	if data == nil {
		return nil, ErrNoImageData
	}

	// Persist a placeholder first so the entity key can serve as the
	// fallback filename.
	img := &Image{ID: s.store.NewID(), SourceURL: opts.URL}
	if err := s.store.Put(ctx, img); err != nil {
		return nil, err
	}

	if filename == "" {
		filename = img.ID
	}
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(filename))
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	settings := s.settings()
	if !slices.Contains(settings.ValidMIMETypes, mimeType) {
		pslog.Warnf("The image mime type (%s) isn't valid", mimeType)
		if err := s.store.Delete(ctx, img.ID); err != nil {
			pslog.Errorf("Failed to delete placeholder image %s: %v", img.ID, err)
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidMIMEType, mimeType)
	}

	info, err := imagemeta.Probe(data)
	if err != nil {
		if delErr := s.store.Delete(ctx, img.ID); delErr != nil {
			pslog.Errorf("Failed to delete placeholder image %s: %v", img.ID, delErr)
		}
		return nil, err
	}
	if want := imagemeta.FormatForMIME(mimeType); want != "" && info.Format != want {
		if data, err = imagemeta.EncodeAs(data, want); err != nil {
			if delErr := s.store.Delete(ctx, img.ID); delErr != nil {
				pslog.Errorf("Failed to delete placeholder image %s: %v", img.ID, delErr)
			}
			return nil, err
		}
	}

	blobKey := img.ID + "/" + filename
	if err := s.blobs.Put(ctx, blobKey, data, mimeType); err != nil {
		if delErr := s.store.Delete(ctx, img.ID); delErr != nil {
			pslog.Errorf("Failed to delete placeholder image %s: %v", img.ID, delErr)
		}
		return nil, err
	}

	img.BlobKey = blobKey
	if err := s.store.Put(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}

// Delete removes the record and its attached blob. The blob goes
// first so a failed delete never leaves an orphaned blob behind a
// missing record.
func (s *Service) Delete(ctx context.Context, id string) error {
	img, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if img.HasBlob() {
		if err := s.blobs.Delete(ctx, img.BlobKey); err != nil {
			return err
		}
	}
	return s.store.Delete(ctx, id)
}
