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
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picstash-io/picstash/pkg/blobstore"
	"github.com/picstash-io/picstash/pkg/config"
	imagelib "github.com/picstash-io/picstash/pkg/image"
	"github.com/picstash-io/picstash/pkg/urlcache"
)

type fakeCache struct {
	m map[string]string
}

func (c *fakeCache) Get(_ context.Context, key string) (string, error) {
	if v, ok := c.m[key]; ok {
		return v, nil
	}
	return "", urlcache.ErrCacheMiss
}

func (c *fakeCache) Set(_ context.Context, key, url string, _ time.Duration) error {
	c.m[key] = url
	return nil
}

type countingProvider struct {
	calls int
}

func (p *countingProvider) ServingURL(context.Context, string, imagelib.ServingOpts, time.Duration) (string, error) {
	p.calls++
	return "https://cdn.example.com/blob", nil
}

func newTestServer(t *testing.T) (*httptest.Server, *countingProvider) {
	t.Helper()

	provider := &countingProvider{}
	svc := imagelib.NewService(imagelib.Deps{
		Store: imagelib.NewMemStore(),
		Blobs: blobstore.NewMemStore(),
		Cache: &fakeCache{m: make(map[string]string)},
		URLs:  provider,
		Settings: func() config.ImageConfig {
			return config.ImageConfig{
				ServingURLTTL:         time.Hour,
				ServingURLLookupTries: 3,
				ValidMIMETypes:        []string{"image/jpeg", "image/png", "image/gif"},
			}
		},
	})

	mux := http.NewServeMux()
	NewHandler(svc).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, provider
}

type response struct {
	StatusCode int               `json:"status_code"`
	StatusText string            `json:"status_text"`
	Timestamp  time.Time         `json:"timestamp"`
	Data       json.RawMessage   `json:"data"`
	Errors     map[string]string `json:"errors"`
}

func decode(t *testing.T, resp *http.Response) response {
	t.Helper()
	defer resp.Body.Close()
	var out response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func pngBody(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func createImage(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(srv.URL+"/v1/images", "image/png", bytes.NewReader(pngBody(t)))
	require.NoError(t, err)
	env := decode(t, resp)
	require.Equal(t, http.StatusCreated, env.StatusCode)

	var view struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	require.NotEmpty(t, view.ID)
	return view.ID
}

func TestCreate_Envelope(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/images", "image/png", bytes.NewReader(pngBody(t)))
	require.NoError(t, err)
	env := decode(t, resp)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, http.StatusCreated, env.StatusCode)
	assert.Equal(t, "Created", env.StatusText)
	assert.False(t, env.Timestamp.IsZero())
	assert.Empty(t, env.Errors)

	var view struct {
		ID     string `json:"id"`
		Format string `json:"format"`
		Width  int    `json:"width"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.NotEmpty(t, view.ID)
	assert.Equal(t, "png", view.Format)
	assert.Equal(t, 4, view.Width)
}

func TestCreate_InvalidMIMEType(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/images", "image/tiff", bytes.NewReader(pngBody(t)))
	require.NoError(t, err)
	env := decode(t, resp)

	assert.Equal(t, http.StatusBadRequest, env.StatusCode)
	assert.Contains(t, env.Errors, "mime_type")
	assert.JSONEq(t, "{}", string(env.Data), "data must stay non-null on error responses")
}

func TestCreate_FromJSONBody(t *testing.T) {
	srv, _ := newTestServer(t)

	body, err := json.Marshal(map[string]any{
		"data":      pngBody(t),
		"filename":  "upload.png",
		"mime_type": "image/png",
	})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/v1/images", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	env := decode(t, resp)
	assert.Equal(t, http.StatusCreated, env.StatusCode)
}

func TestGet_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/images/no-such-id")
	require.NoError(t, err)
	env := decode(t, resp)

	assert.Equal(t, http.StatusNotFound, env.StatusCode)
	assert.Equal(t, "Not Found", env.StatusText)
	assert.Contains(t, env.Errors, "id")
	assert.JSONEq(t, "{}", string(env.Data))
}

func TestDelete(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createImage(t, srv)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/v1/images/"+id, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	env := decode(t, resp)
	assert.Equal(t, http.StatusOK, env.StatusCode)

	getResp, err := http.Get(srv.URL + "/v1/images/" + id)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, decode(t, getResp).StatusCode)
}

func TestServingURL_CachedAcrossRequests(t *testing.T) {
	srv, provider := newTestServer(t)
	id := createImage(t, srv)

	for i := 0; i < 2; i++ {
		resp, err := http.Get(srv.URL + "/v1/images/" + id + "/serving-url?size=200&crop=true")
		require.NoError(t, err)
		env := decode(t, resp)
		require.Equal(t, http.StatusOK, env.StatusCode)

		var data struct {
			ServingURL string `json:"serving_url"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, "https://cdn.example.com/blob", data.ServingURL)
	}

	assert.Equal(t, 1, provider.calls, "second request must be served from cache")
}

func TestServingURL_BadParams(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createImage(t, srv)

	resp, err := http.Get(srv.URL + "/v1/images/" + id + "/serving-url?size=huge")
	require.NoError(t, err)
	env := decode(t, resp)
	assert.Equal(t, http.StatusBadRequest, env.StatusCode)
	assert.Contains(t, env.Errors, "size")

	resp, err = http.Get(srv.URL + "/v1/images/" + id + "/serving-url?rotate=90")
	require.NoError(t, err)
	env = decode(t, resp)
	assert.Equal(t, http.StatusBadRequest, env.StatusCode)
	assert.Contains(t, env.Errors, "rotate")
}

func TestList_Pagination(t *testing.T) {
	srv, _ := newTestServer(t)
	for i := 0; i < 6; i++ {
		createImage(t, srv)
	}

	resp, err := http.Get(srv.URL + "/v1/images?page_size=5")
	require.NoError(t, err)
	env := decode(t, resp)
	require.Equal(t, http.StatusOK, env.StatusCode)

	var data []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data, 2, "data must be the [items, cursor] pair")

	var items []json.RawMessage
	require.NoError(t, json.Unmarshal(data[0], &items))
	assert.Len(t, items, 5)

	var cursor string
	require.NoError(t, json.Unmarshal(data[1], &cursor))
	require.NotEmpty(t, cursor, "cursor must be non-null when more pages exist")

	// The next page holds the remaining record and a null cursor.
	resp, err = http.Get(srv.URL + "/v1/images?page_size=5&cursor=" + cursor)
	require.NoError(t, err)
	env = decode(t, resp)
	require.Equal(t, http.StatusOK, env.StatusCode)

	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NoError(t, json.Unmarshal(data[0], &items))
	assert.Len(t, items, 1)
	assert.Equal(t, "null", string(data[1]))
}

func TestList_UnrecognizedParam(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/images?page_size=5&order=desc")
	require.NoError(t, err)
	env := decode(t, resp)

	assert.Equal(t, http.StatusBadRequest, env.StatusCode)
	assert.Equal(t, "Bad Request", env.StatusText)
	assert.Contains(t, env.Errors, "order")
}

func TestList_BadPageSize(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/images?page_size=0")
	require.NoError(t, err)
	env := decode(t, resp)
	assert.Equal(t, http.StatusBadRequest, env.StatusCode)
	assert.Contains(t, env.Errors, "page_size")
}
