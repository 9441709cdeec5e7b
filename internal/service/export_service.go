package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/multilingual-news-api/internal/auth"
	"github.com/multilingual-news-api/internal/models"
	"github.com/multilingual-news-api/internal/repository"
	"github.com/rs/zerolog"
)

// ErrUnsupportedFormat is returned for export formats other than ndjson and json.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// flushEvery is how many records are written between flushes.
const flushEvery = 100

// exportService is the concrete implementation of ExportService
type exportService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(repos *repository.Repositories, log zerolog.Logger) *exportService {
	return &exportService{
		repos: repos,
		log:   log.With().Str("service", "export").Logger(),
	}
}

// ExportFormatSupported reports whether StreamArticles accepts format.
func ExportFormatSupported(format string) bool {
	return format == "ndjson" || format == "json"
}

// StreamArticles writes every article, in any status, to w. Each record
// is the administrative view, so an NDJSON export can be imported again.
func (s *exportService) StreamArticles(ctx context.Context, w http.ResponseWriter, format string, p auth.Principal) error {
	if !p.Admin {
		return ErrForbidden
	}
	if !ExportFormatSupported(format) {
		return ErrUnsupportedFormat
	}

	s.log.Info().Str("format", format).Str("actor", p.Actor).Msg("Starting articles export")

	var (
		count int
		err   error
	)
	if format == "ndjson" {
		count, err = s.streamNDJSON(ctx, w)
	} else {
		count, err = s.streamJSON(ctx, w)
	}
	if err != nil {
		s.log.Error().Err(err).Int("count", count).Msg("Articles export aborted")
		return err
	}

	s.log.Info().Int("count", count).Msg("Articles export completed")
	return nil
}

func (s *exportService) streamNDJSON(ctx context.Context, w http.ResponseWriter) (int, error) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", "attachment; filename=articles.ndjson")

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	count := 0

	err := s.repos.Article.StreamAll(ctx, func(article *models.Article) error {
		// Encode terminates each record with a newline
		if err := enc.Encode(AdminView(article)); err != nil {
			return err
		}
		count++

		if count%flushEvery == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	return count, err
}

func (s *exportService) streamJSON(ctx context.Context, w http.ResponseWriter) (int, error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=articles.json")

	flusher, _ := w.(http.Flusher)
	count := 0

	if _, err := w.Write([]byte("[")); err != nil {
		return 0, err
	}
	err := s.repos.Article.StreamAll(ctx, func(article *models.Article) error {
		if count > 0 {
			if _, err := w.Write([]byte(",")); err != nil {
				return err
			}
		}

		data, err := json.Marshal(AdminView(article))
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		count++

		if count%flushEvery == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	if err != nil {
		return count, err
	}

	_, err = w.Write([]byte("]"))
	return count, err
}
