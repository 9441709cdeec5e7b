package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/multilingual-news-api/internal/service"
	"github.com/rs/zerolog"
)

// ExportHandler handles export endpoints
type ExportHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(services *service.Services, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		services: services,
		log:      log.With().Str("handler", "export").Logger(),
	}
}

// StreamArticles handles GET /v1/exports/articles?format=ndjson|json
// Streams every article directly to the response
func (h *ExportHandler) StreamArticles(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}

	format := c.Query("format")
	if format == "" {
		format = "ndjson" // Default to NDJSON for streaming
	}
	if !service.ExportFormatSupported(format) {
		abortWith(c, http.StatusBadRequest, "format must be one of: ndjson, json", codeInvalidFormat)
		return
	}

	c.Header("Cache-Control", "no-store")
	if err := h.services.Export.StreamArticles(c.Request.Context(), c.Writer, format, principal(c)); err != nil {
		if c.Writer.Written() {
			// Can't return error JSON after streaming has started
			h.log.Error().Err(err).Str("format", format).Msg("Export failed mid-stream")
			return
		}
		respondError(c, h.log, err)
	}
}
