package storage

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds maximum size")
	ErrInvalidMimeType = errors.New("file type not allowed")
	ErrEmptyFile       = errors.New("file is empty")
)

const CategoryListingImage = "listing_image"

// AllowedMimeTypes lists accepted content types per upload category
var AllowedMimeTypes = map[string][]string{
	CategoryListingImage: {"image/jpeg", "image/png", "image/webp", "image/gif"},
}

// MaxFileSizes caps upload size per category in bytes
var MaxFileSizes = map[string]int64{
	CategoryListingImage: 10 * 1024 * 1024,
}

// ValidateFile reads the upload, checks its size and sniffs the MIME type
// from magic bytes.
func ValidateFile(reader io.Reader, category string) ([]byte, string, error) {
	allowedTypes, ok := AllowedMimeTypes[category]
	if !ok {
		return nil, "", fmt.Errorf("unknown category: %s", category)
	}
	maxSize, ok := MaxFileSizes[category]
	if !ok {
		maxSize = 10 * 1024 * 1024
	}

	data, err := io.ReadAll(io.LimitReader(reader, maxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) == 0 {
		return nil, "", ErrEmptyFile
	}
	if int64(len(data)) > maxSize {
		return nil, "", ErrFileTooLarge
	}

	mimeType := http.DetectContentType(data)
	if idx := strings.Index(mimeType, ";"); idx != -1 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	if !slices.Contains(allowedTypes, mimeType) {
		return nil, "", ErrInvalidMimeType
	}

	return data, mimeType, nil
}

// GetExtensionForMime returns the file extension for a MIME type
func GetExtensionForMime(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ""
	}
}
