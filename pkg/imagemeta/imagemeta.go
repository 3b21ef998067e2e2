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

// Package imagemeta inspects stored image bytes and re-encodes them to
// a canonical format when the declared MIME type asks for one.
package imagemeta

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
)

// HeaderWindowSize is how many leading bytes of a blob are fetched when
// a full probe fails and the caller retries on a bounded prefix.
const HeaderWindowSize = 50000

// ErrNotImage is returned when the data cannot be decoded as an image.
var ErrNotImage = errors.New("data is not a recognized image")

// Info describes a probed image.
type Info struct {
	// Format is the decoder name: "jpeg", "png" or "gif".
	Format string
	Width  int
	Height int
}

// Probe inspects data and returns its format and pixel dimensions.
// Only the header needs to be present; a truncated body still probes.
func Probe(data []byte) (Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, ErrNotImage
	}
	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// FormatForMIME returns the canonical format implied by a MIME type,
// or "" when the MIME type does not pin one down.
func FormatForMIME(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return "jpeg"
	case "image/png":
		return "png"
	}
	return ""
}

// EncodeAs re-encodes data to format at full quality. The whole image
// must decode, not just the header.
func EncodeAs(data []byte, format string) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrNotImage
	}

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100})
	case "png":
		err = png.Encode(&buf, img)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		return nil, fmt.Errorf("unsupported target format: %q", format)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
