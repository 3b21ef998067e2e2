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

// Package image exposes the image library as a JSON HTTP API.
//
// Every response is an envelope with status_code, status_text,
// timestamp and data; error responses additionally carry errors keyed
// by the offending field or parameter.
package image

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/picstash-io/picstash/pkg/image"
	"github.com/picstash-io/picstash/pkg/pslog"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// maxUploadSize bounds how much image data one request may carry.
	maxUploadSize = 32 << 20
)

type envelope struct {
	StatusCode int               `json:"status_code"`
	StatusText string            `json:"status_text"`
	Timestamp  time.Time         `json:"timestamp"`
	Data       any               `json:"data"`
	Errors     map[string]string `json:"errors,omitempty"`
}

// imageView is the wire shape of one image record, with probed
// metadata when available.
type imageView struct {
	ID        string    `json:"id"`
	BlobKey   string    `json:"blob_key,omitempty"`
	SourceURL string    `json:"source_url,omitempty"`
	Created   time.Time `json:"created"`
	Modified  time.Time `json:"modified"`
	Format    string    `json:"format,omitempty"`
	Width     int       `json:"width,omitempty"`
	Height    int       `json:"height,omitempty"`
}

type createRequest struct {
	URL      string `json:"url"`
	Data     []byte `json:"data"`
	BlobKey  string `json:"blob_key"`
	Filename string `json:"filename"`
	MIMEType string `json:"mime_type"`
}

// Handler serves the image JSON API.
type Handler struct {
	svc *image.Service
}

func NewHandler(svc *image.Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/images", h.create)
	mux.HandleFunc("GET /v1/images", h.list)
	mux.HandleFunc("GET /v1/images/{id}", h.get)
	mux.HandleFunc("GET /v1/images/{id}/serving-url", h.servingURL)
	mux.HandleFunc("DELETE /v1/images/{id}", h.delete)
}

func writeEnvelope(w http.ResponseWriter, status int, data any, errs map[string]string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	env := envelope{
		StatusCode: status,
		StatusText: http.StatusText(status),
		Timestamp:  time.Now().UTC(),
		Data:       data,
		Errors:     errs,
	}
	if err := json.NewEncoder(w).Encode(env); err != nil {
		pslog.Errorf("Failed to encode response envelope: %v", err)
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, data, nil)
}

func writeErrors(w http.ResponseWriter, status int, errs map[string]string) {
	// data stays present as an empty object on error responses.
	writeEnvelope(w, status, struct{}{}, errs)
}

// checkQueryParams rejects any query parameter outside the allowed
// set, naming the first offender.
func checkQueryParams(w http.ResponseWriter, r *http.Request, allowed ...string) bool {
	for param := range r.URL.Query() {
		found := false
		for _, a := range allowed {
			if param == a {
				found = true
				break
			}
		}
		if !found {
			writeErrors(w, http.StatusBadRequest, map[string]string{
				param: "unrecognized query parameter",
			})
			return false
		}
	}
	return true
}

func (h *Handler) view(r *http.Request, img *image.Image) imageView {
	v := imageView{
		ID:        img.ID,
		BlobKey:   img.BlobKey,
		SourceURL: img.SourceURL,
		Created:   img.Created,
		Modified:  img.Modified,
	}
	info, err := h.svc.Metadata(r.Context(), img)
	if err != nil {
		pslog.Debugf("Metadata probe failed for image %s: %v", img.ID, err)
		return v
	}
	if info != nil {
		v.Format = info.Format
		v.Width = info.Width
		v.Height = info.Height
	}
	return v
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var opts image.CreateOptions

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		var req createRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadSize)).Decode(&req); err != nil {
			writeErrors(w, http.StatusBadRequest, map[string]string{"body": "invalid JSON body"})
			return
		}
		opts = image.CreateOptions{
			URL:      req.URL,
			Data:     req.Data,
			BlobKey:  req.BlobKey,
			Filename: req.Filename,
			MIMEType: req.MIMEType,
		}
	} else {
		// A raw upload: the body is the image data and the request
		// content type is the declared MIME type.
		data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadSize))
		if err != nil {
			writeErrors(w, http.StatusBadRequest, map[string]string{"body": "failed to read request body"})
			return
		}
		opts = image.CreateOptions{Data: data, MIMEType: contentType}
	}

	img, err := h.svc.Create(r.Context(), opts)
	if err != nil {
		switch {
		case errors.Is(err, image.ErrNoImageData):
			writeErrors(w, http.StatusBadRequest, map[string]string{"data": err.Error()})
		case errors.Is(err, image.ErrInvalidMIMEType):
			writeErrors(w, http.StatusBadRequest, map[string]string{"mime_type": err.Error()})
		default:
			pslog.Errorf("Failed to create image: %v", err)
			writeErrors(w, http.StatusInternalServerError, map[string]string{"image": "failed to create image"})
		}
		return
	}

	writeData(w, http.StatusCreated, h.view(r, img))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	img, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, image.ErrImageNotFound) {
			writeErrors(w, http.StatusNotFound, map[string]string{"id": "image not found"})
			return
		}
		pslog.Errorf("Failed to load image: %v", err)
		writeErrors(w, http.StatusInternalServerError, map[string]string{"image": "failed to load image"})
		return
	}
	writeData(w, http.StatusOK, h.view(r, img))
}

func (h *Handler) servingURL(w http.ResponseWriter, r *http.Request) {
	if !checkQueryParams(w, r, "size", "crop", "secure") {
		return
	}

	var opts image.ServingOpts
	q := r.URL.Query()
	if raw := q.Get("size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 0 {
			writeErrors(w, http.StatusBadRequest, map[string]string{"size": "must be a non-negative integer"})
			return
		}
		opts.Size = size
	}
	if raw := q.Get("crop"); raw != "" {
		crop, err := strconv.ParseBool(raw)
		if err != nil {
			writeErrors(w, http.StatusBadRequest, map[string]string{"crop": "must be a boolean"})
			return
		}
		opts.Crop = crop
	}
	if raw := q.Get("secure"); raw != "" {
		secure, err := strconv.ParseBool(raw)
		if err != nil {
			writeErrors(w, http.StatusBadRequest, map[string]string{"secure": "must be a boolean"})
			return
		}
		opts.Secure = secure
	}

	img, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, image.ErrImageNotFound) {
			writeErrors(w, http.StatusNotFound, map[string]string{"id": "image not found"})
			return
		}
		pslog.Errorf("Failed to load image: %v", err)
		writeErrors(w, http.StatusInternalServerError, map[string]string{"image": "failed to load image"})
		return
	}

	// A failed lookup degrades to null rather than an error.
	var servingURL any
	if u := h.svc.ServingURL(r.Context(), img, opts); u != "" {
		servingURL = u
	}
	writeData(w, http.StatusOK, map[string]any{"serving_url": servingURL})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, image.ErrImageNotFound) {
			writeErrors(w, http.StatusNotFound, map[string]string{"id": "image not found"})
			return
		}
		pslog.Errorf("Failed to delete image: %v", err)
		writeErrors(w, http.StatusInternalServerError, map[string]string{"image": "failed to delete image"})
		return
	}
	writeData(w, http.StatusOK, nil)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	if !checkQueryParams(w, r, "page_size", "cursor") {
		return
	}

	q := r.URL.Query()
	pageSize := defaultPageSize
	if raw := q.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPageSize {
			writeErrors(w, http.StatusBadRequest, map[string]string{"page_size": "must be an integer between 1 and 100"})
			return
		}
		pageSize = n
	}

	images, next, err := h.svc.List(r.Context(), q.Get("cursor"), pageSize)
	if err != nil {
		if errors.Is(err, image.ErrBadCursor) {
			writeErrors(w, http.StatusBadRequest, map[string]string{"cursor": "invalid cursor"})
			return
		}
		pslog.Errorf("Failed to list images: %v", err)
		writeErrors(w, http.StatusInternalServerError, map[string]string{"images": "failed to list images"})
		return
	}

	views := make([]imageView, 0, len(images))
	for _, img := range images {
		views = append(views, h.view(r, img))
	}

	// data is the [items, cursor] pair; the cursor is null when there
	// are no more pages.
	var cursor any
	if next != "" {
		cursor = next
	}
	writeData(w, http.StatusOK, []any{views, cursor})
}
