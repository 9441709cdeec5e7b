package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/multilingual-news-api/internal/auth"
	"github.com/multilingual-news-api/internal/config"
	"github.com/multilingual-news-api/internal/storage"
	"github.com/rs/zerolog"
)

// ImageURLPrefix is the public path images are served under
const ImageURLPrefix = "/v1/images/"

var (
	// ErrUnsupportedImage is returned for content types outside the allow list.
	ErrUnsupportedImage = errors.New("unsupported image type")
	// ErrImageTooLarge is returned when an upload exceeds the size limit.
	ErrImageTooLarge = errors.New("image too large")
)

// imageTypes maps accepted content types to the extension used in keys.
var imageTypes = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

// ImageUpload is one uploaded file as received from the client
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

type imageService struct {
	store   storage.ImageStore
	maxSize int64
	log     zerolog.Logger
	now     func() time.Time
}

func newImageService(store storage.ImageStore, cfg config.StorageConfig, log zerolog.Logger) *imageService {
	return &imageService{
		store:   store,
		maxSize: cfg.MaxImageSize,
		log:     log.With().Str("service", "image").Logger(),
		now:     time.Now,
	}
}

// Upload stores an image and returns the URL it is served from.
func (s *imageService) Upload(ctx context.Context, upload ImageUpload, p auth.Principal) (string, error) {
	if !p.Admin {
		return "", ErrForbidden
	}

	contentType := strings.ToLower(strings.TrimSpace(upload.ContentType))
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	ext, ok := imageTypes[contentType]
	if !ok {
		return "", ErrUnsupportedImage
	}
	if s.maxSize > 0 && upload.Size > s.maxSize {
		return "", ErrImageTooLarge
	}

	// Size may be unknown or wrong; cap the stream at the limit plus one
	// byte so an oversized body is detected while copying.
	body := upload.Reader
	var limited *io.LimitedReader
	if s.maxSize > 0 {
		limited = &io.LimitedReader{R: upload.Reader, N: s.maxSize + 1}
		body = limited
	}

	key := s.newKey(upload.Filename, ext)
	info, err := s.store.Put(ctx, key, contentType, body)
	if err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	if limited != nil && info.Size > s.maxSize {
		if err := s.store.Delete(ctx, key); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("Failed to remove oversized image")
		}
		return "", ErrImageTooLarge
	}

	s.log.Info().
		Str("key", key).
		Str("content_type", contentType).
		Int64("size", info.Size).
		Str("actor", p.Actor).
		Msg("Image uploaded")

	return ImageURLPrefix + key, nil
}

// newKey builds "<unix-ms>-<8 hex chars><ext>". A recognised extension on
// the original filename wins over the default for the content type.
func (s *imageService) newKey(filename, ext string) string {
	if orig := strings.ToLower(filepath.Ext(filename)); orig != "" {
		for _, known := range imageTypes {
			if orig == known || (orig == ".jpeg" && known == ".jpg") {
				ext = orig
				break
			}
		}
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), id, ext)
}

// Open returns the stored image for key. Anyone may read images.
func (s *imageService) Open(ctx context.Context, key string) (io.ReadCloser, *storage.ObjectInfo, error) {
	rc, info, err := s.store.Open(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open image %s: %w", key, err)
	}
	return rc, info, nil
}

// Delete removes an image.
func (s *imageService) Delete(ctx context.Context, key string, p auth.Principal) error {
	if !p.Admin {
		return ErrForbidden
	}
	if err := s.store.Delete(ctx, key); err != nil {
		if errors.Is(err, storage.ErrInvalidKey) || errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete image %s: %w", key, err)
	}
	s.log.Info().Str("key", key).Str("actor", p.Actor).Msg("Image deleted")
	return nil
}
