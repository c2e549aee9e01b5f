package storage

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestValidateFile(t *testing.T) {
	data, mimeType, err := ValidateFile(bytes.NewReader(pngBytes(t)), CategoryListingImage)
	if err != nil {
		t.Fatalf("ValidateFile: %v", err)
	}
	if mimeType != "image/png" || len(data) == 0 {
		t.Fatalf("unexpected result mime=%q len=%d", mimeType, len(data))
	}
	if ext := GetExtensionForMime(mimeType); ext != ".png" {
		t.Fatalf("extension = %q", ext)
	}
}

func TestValidateFileRejects(t *testing.T) {
	tests := []struct {
		name     string
		body     []byte
		category string
		wantErr  error
	}{
		{name: "empty", body: nil, category: CategoryListingImage, wantErr: ErrEmptyFile},
		{name: "text", body: []byte("hello world"), category: CategoryListingImage, wantErr: ErrInvalidMimeType},
		{name: "pdf", body: []byte("%PDF-1.4\n"), category: CategoryListingImage, wantErr: ErrInvalidMimeType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ValidateFile(bytes.NewReader(tt.body), tt.category)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateFileTooLarge(t *testing.T) {
	old := MaxFileSizes[CategoryListingImage]
	MaxFileSizes[CategoryListingImage] = 8
	defer func() { MaxFileSizes[CategoryListingImage] = old }()

	_, _, err := ValidateFile(strings.NewReader(strings.Repeat("x", 9)), CategoryListingImage)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestS3KeyFromURL(t *testing.T) {
	s := &S3Storage{bucket: "b", endpoint: "http://minio:9000", publicURL: "https://cdn.example.com"}

	key := "listings/1/a.jpg"
	got, ok := s.KeyFromURL(s.GetURL(key))
	if !ok || got != key {
		t.Fatalf("KeyFromURL = %q, %v", got, ok)
	}
	if _, ok := s.KeyFromURL("https://elsewhere.example.com/x.jpg"); ok {
		t.Fatal("foreign url resolved to a key")
	}
}
