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

package imagemeta

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func makePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test png: %v", err)
	}
	return buf.Bytes()
}

func makeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode test jpeg: %v", err)
	}
	return buf.Bytes()
}

func TestProbe(t *testing.T) {
	testCases := []struct {
		name       string
		data       []byte
		wantFormat string
		wantWidth  int
		wantHeight int
		wantErr    bool
	}{
		{name: "png", data: makePNG(t, 12, 34), wantFormat: "png", wantWidth: 12, wantHeight: 34},
		{name: "jpeg", data: makeJPEG(t, 8, 6), wantFormat: "jpeg", wantWidth: 8, wantHeight: 6},
		{name: "not an image", data: []byte("certainly not pixels"), wantErr: true},
		{name: "empty", data: nil, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			info, err := Probe(tc.data)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Probe() error = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr {
				return
			}
			if info.Format != tc.wantFormat {
				t.Errorf("Probe() format = %q, want %q", info.Format, tc.wantFormat)
			}
			if info.Width != tc.wantWidth || info.Height != tc.wantHeight {
				t.Errorf("Probe() size = %dx%d, want %dx%d", info.Width, info.Height, tc.wantWidth, tc.wantHeight)
			}
		})
	}
}

func TestProbe_HeaderPrefixOnly(t *testing.T) {
	// Dimensions live in the header, so probing a bounded prefix of a
	// large blob still works.
	data := makePNG(t, 300, 200)
	window := data
	if len(window) > HeaderWindowSize {
		window = window[:HeaderWindowSize]
	}

	info, err := Probe(window[:64])
	if err != nil {
		t.Fatalf("Probe() on header prefix failed: %v", err)
	}
	if info.Width != 300 || info.Height != 200 {
		t.Errorf("Probe() size = %dx%d, want 300x200", info.Width, info.Height)
	}
}

func TestEncodeAs(t *testing.T) {
	pngData := makePNG(t, 10, 10)

	jpegData, err := EncodeAs(pngData, "jpeg")
	if err != nil {
		t.Fatalf("EncodeAs(jpeg) failed: %v", err)
	}
	info, err := Probe(jpegData)
	if err != nil {
		t.Fatalf("Probe() of re-encoded data failed: %v", err)
	}
	if info.Format != "jpeg" {
		t.Errorf("re-encoded format = %q, want jpeg", info.Format)
	}
	if info.Width != 10 || info.Height != 10 {
		t.Errorf("re-encode changed dimensions: %dx%d", info.Width, info.Height)
	}

	if _, err := EncodeAs([]byte("junk"), "png"); err == nil {
		t.Error("EncodeAs() of junk data should fail")
	}
	if _, err := EncodeAs(pngData, "webp"); err == nil {
		t.Error("EncodeAs() to unsupported format should fail")
	}
}

func TestFormatForMIME(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"image/jpeg", "jpeg"},
		{"image/png", "png"},
		{"image/gif", ""},
		{"application/octet-stream", ""},
	}
	for _, tt := range tests {
		if got := FormatForMIME(tt.mime); got != tt.want {
			t.Errorf("FormatForMIME(%q) = %q, want %q", tt.mime, got, tt.want)
		}
	}
}
