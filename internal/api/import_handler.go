package api

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/multilingual-news-api/internal/config"
	"github.com/multilingual-news-api/internal/models"
	"github.com/multilingual-news-api/internal/service"
	"github.com/rs/zerolog"
)

// ImportHandler handles import endpoints
type ImportHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *ImportHandler {
	return &ImportHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "import").Logger(),
	}
}

// ImportArticles handles POST /v1/imports/articles
// Accepts an NDJSON file upload (multipart, field "file") and imports it
// synchronously. With ?format=csv the per-line errors come back as CSV.
func (h *ImportHandler) ImportArticles(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}

	if limit := h.cfg.Import.MaxUploadSize; limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortWith(c, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("file too large, max size is %d MB", h.cfg.Import.MaxUploadSize/(1024*1024)), codeTooLarge)
			return
		}
		abortWith(c, http.StatusBadRequest, "multipart field \"file\" is required", codeBadRequest)
		return
	}
	defer file.Close()

	// Determine file format from extension
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".ndjson" && ext != ".jsonl" && ext != ".json" {
		abortWith(c, http.StatusBadRequest, "articles import requires an NDJSON file", codeInvalidFormat)
		return
	}

	h.log.Info().
		Str("file", header.Filename).
		Int64("size_bytes", header.Size).
		Msg("Import started")

	result, err := h.services.Import.ImportArticles(c.Request.Context(), file, principal(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if c.Query("format") == "csv" {
		writeErrorsCSV(c, result.Errors)
		return
	}

	c.JSON(http.StatusOK, result)
}

func writeErrorsCSV(c *gin.Context, errs []models.ValidationError) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=import_errors.csv")
	c.Status(http.StatusOK)

	writer := csv.NewWriter(c.Writer)
	writer.Write([]string{"line", "field", "message", "value"})
	for _, e := range errs {
		value := ""
		if e.Value != nil {
			value = fmt.Sprintf("%v", e.Value)
		}
		writer.Write([]string{strconv.Itoa(e.Line), e.Field, e.Message, value})
	}
	writer.Flush()
}
