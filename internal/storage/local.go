package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const typeSuffix = ".content-type"

// LocalStore keeps images as files under a base directory. The content
// type of each object is kept in a sidecar file next to it.
type LocalStore struct {
	basePath string
}

// NewLocalStore creates the base directory if needed
func NewLocalStore(basePath string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory %s: %w", basePath, err)
	}
	return &LocalStore{basePath: basePath}, nil
}

func (s *LocalStore) path(key string) string {
	return filepath.Join(s.basePath, key)
}

// Put writes r under key. A failed copy leaves nothing behind.
func (s *LocalStore) Put(ctx context.Context, key, contentType string, r io.Reader) (*ObjectInfo, error) {
	if !ValidKey(key) || strings.HasSuffix(key, typeSuffix) {
		return nil, ErrInvalidKey
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filePath := s.path(key)
	dst, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	size, err := io.Copy(dst, r)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	if err := os.WriteFile(filePath+typeSuffix, []byte(contentType), 0o644); err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to write content type: %w", err)
	}

	return &ObjectInfo{Key: key, ContentType: contentType, Size: size}, nil
}

// Open returns a reader for key. The caller closes it.
func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error) {
	if !ValidKey(key) || strings.HasSuffix(key, typeSuffix) {
		return nil, nil, ErrNotFound
	}

	f, err := os.Open(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	contentType := "application/octet-stream"
	if b, err := os.ReadFile(s.path(key) + typeSuffix); err == nil && len(b) > 0 {
		contentType = string(b)
	}

	return f, &ObjectInfo{Key: key, ContentType: contentType, Size: stat.Size(), ModTime: stat.ModTime()}, nil
}

// Delete removes key. A missing object is ErrNotFound.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if !ValidKey(key) || strings.HasSuffix(key, typeSuffix) {
		return ErrInvalidKey
	}
	if err := os.Remove(s.path(key)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	os.Remove(s.path(key) + typeSuffix)
	return nil
}
