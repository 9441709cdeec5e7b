package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/multilingual-news-api/internal/config"
	"github.com/multilingual-news-api/internal/service"
	"github.com/rs/zerolog"
)

const immutableCacheControl = "public, max-age=31536000, immutable"

// svgPolicy keeps scripts in an SVG from running when it is opened directly.
const svgPolicy = "default-src 'none'; style-src 'unsafe-inline'; script-src 'none'; sandbox"

// multipartOverhead is allowed on top of the image size for form framing.
const multipartOverhead = 64 * 1024

// ImageHandler handles image upload and serving
type ImageHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewImageHandler creates a new ImageHandler
func NewImageHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *ImageHandler {
	return &ImageHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "image").Logger(),
	}
}

// Upload handles POST /v1/images (multipart, field "file")
func (h *ImageHandler) Upload(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}

	if limit := h.cfg.Storage.MaxImageSize; limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortWith(c, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("image too large, max size is %d MB", h.cfg.Storage.MaxImageSize/(1024*1024)), codeTooLarge)
			return
		}
		abortWith(c, http.StatusBadRequest, "multipart field \"file\" is required", codeBadRequest)
		return
	}
	defer file.Close()

	url, err := h.services.Image.Upload(c.Request.Context(), service.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Reader:      file,
	}, principal(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"url": url})
}

// Serve handles GET /v1/images/:key
func (h *ImageHandler) Serve(c *gin.Context) {
	rc, info, err := h.services.Image.Open(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	defer rc.Close()

	headers := map[string]string{
		"Cache-Control":          immutableCacheControl,
		"X-Content-Type-Options": "nosniff",
	}
	if strings.HasPrefix(info.ContentType, "image/svg+xml") {
		headers["Content-Security-Policy"] = svgPolicy
		headers["Content-Disposition"] = fmt.Sprintf("attachment; filename=%q", info.Key)
	}
	c.DataFromReader(http.StatusOK, info.Size, info.ContentType, rc, headers)
}

// Delete handles DELETE /v1/images/:key
func (h *ImageHandler) Delete(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	if err := h.services.Image.Delete(c.Request.Context(), c.Param("key"), principal(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
