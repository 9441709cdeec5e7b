// Package storage keeps uploaded image blobs.
package storage

import (
	"context"
	"errors"
	"io"
	"regexp"
	"time"
)

var (
	// ErrNotFound is returned when no object has the requested key.
	ErrNotFound = errors.New("object not found")
	// ErrInvalidKey is returned for keys outside the allowed alphabet.
	ErrInvalidKey = errors.New("invalid object key")
)

var keyRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidKey reports whether key is a flat, safe object name.
func ValidKey(key string) bool {
	return keyRegex.MatchString(key)
}

// ObjectInfo describes a stored blob
type ObjectInfo struct {
	Key         string
	ContentType string
	Size        int64
	ModTime     time.Time
}

// ImageStore accepts blobs with a content type and serves them back by key.
// Open and Delete return ErrNotFound for keys with nothing stored.
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) (*ObjectInfo, error)
	Open(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}
