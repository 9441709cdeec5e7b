package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/multilingual-news-api/internal/service"
	"github.com/rs/zerolog"
)

// Error codes carried in the "code" field of error bodies
const (
	codeNotFound      = "not_found"
	codeETagMismatch  = "etag_mismatch"
	codeSlugConflict  = "slug_conflict"
	codeUnauthorized  = "unauthorized"
	codeBadRequest    = "bad_request"
	codeInternal      = "internal"
	codeUnsupported   = "unsupported_media_type"
	codeTooLarge      = "payload_too_large"
	codeInvalidFormat = "invalid_format"
)

// respondError maps service errors onto HTTP responses. Anything not
// recognised is logged and reported without detail.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	if ve, ok := service.AsValidationError(err); ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": ve.Fields})
		return
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		abortWith(c, http.StatusNotFound, "not found", codeNotFound)
	case errors.Is(err, service.ErrETagMismatch):
		abortWith(c, http.StatusConflict, "etag mismatch", codeETagMismatch)
	case errors.Is(err, service.ErrSlugExists):
		abortWith(c, http.StatusConflict, "slug already exists", codeSlugConflict)
	case errors.Is(err, service.ErrForbidden):
		abortWith(c, http.StatusForbidden, "unauthorized", codeUnauthorized)
	case errors.Is(err, service.ErrUnsupportedImage):
		abortWith(c, http.StatusUnsupportedMediaType, "unsupported image type", codeUnsupported)
	case errors.Is(err, service.ErrImageTooLarge):
		abortWith(c, http.StatusRequestEntityTooLarge, "image too large", codeTooLarge)
	case errors.Is(err, service.ErrUnsupportedFormat):
		abortWith(c, http.StatusBadRequest, "format must be ndjson or json", codeInvalidFormat)
	default:
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Request failed")
		abortWith(c, http.StatusInternalServerError, "internal server error", codeInternal)
	}
}

func abortWith(c *gin.Context, status int, message, code string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message, "code": code})
}

// requireAdmin rejects non-administrators before any body is read
func requireAdmin(c *gin.Context) bool {
	if principal(c).Admin {
		return true
	}
	abortWith(c, http.StatusForbidden, "unauthorized", codeUnauthorized)
	return false
}
