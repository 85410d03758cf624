// Package storage keeps uploaded recipe images on the local filesystem or in S3.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrInvalidKey is returned for object keys that would escape the storage root.
var ErrInvalidKey = errors.New("invalid storage key")

// Store is the image storage collaborator. Keys are slash-separated relative
// paths such as uploads/recipe/<uuid>.png.
type Store interface {
	// Save writes r under key. On error nothing is left stored under key.
	Save(ctx context.Context, key string, r io.Reader, contentType string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// URL returns the public address of key.
	URL(key string) string
}

// cleanKey normalizes key and rejects absolute or parent-relative paths.
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

func joinURL(base, key string) string {
	if base == "" {
		return key
	}
	return strings.TrimRight(base, "/") + "/" + key
}
