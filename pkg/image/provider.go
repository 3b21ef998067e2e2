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
	"net/url"
	"strconv"
	"time"

	"github.com/picstash-io/picstash/pkg/blobstore"
)

// ServingOpts selects the rendition a serving URL should deliver.
type ServingOpts struct {
	// Size is the bounding-box edge in pixels; 0 serves the original.
	Size int
	// Crop selects a center crop instead of a resize.
	Crop bool
	// Secure forces an https URL.
	Secure bool
}

// URLProvider derives a direct-serving URL for a stored blob.
type URLProvider interface {
	ServingURL(ctx context.Context, blobKey string, opts ServingOpts, expires time.Duration) (string, error)
}

// PresignedProvider implements URLProvider with presigned blob store
// URLs. Rendition parameters ride along as query parameters for the
// image frontend to honor.
type PresignedProvider struct {
	Blobs blobstore.Store
}

var _ URLProvider = (*PresignedProvider)(nil)

func (p *PresignedProvider) ServingURL(ctx context.Context, blobKey string, opts ServingOpts, expires time.Duration) (string, error) {
	params := url.Values{}
	if opts.Size > 0 {
		params.Set("size", strconv.Itoa(opts.Size))
	}
	if opts.Crop {
		params.Set("crop", "1")
	}

	u, err := p.Blobs.PresignedGet(ctx, blobKey, params, expires)
	if err != nil {
		return "", err
	}
	if opts.Secure {
		u.Scheme = "https"
	}
	return u.String(), nil
}
