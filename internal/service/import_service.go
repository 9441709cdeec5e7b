package service

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/multilingual-news-api/internal/auth"
	"github.com/multilingual-news-api/internal/models"
	"github.com/multilingual-news-api/internal/validation"
	"github.com/rs/zerolog"
)

const (
	// maxImportLine bounds a single NDJSON record.
	maxImportLine = 4 * 1024 * 1024
	// maxReportedErrors caps the error list returned to the caller.
	maxReportedErrors = 1000
)

// importService is the concrete implementation of ImportService
type importService struct {
	articles *articleService
	log      zerolog.Logger
}

// newImportService creates a new ImportService
func newImportService(articles *articleService, log zerolog.Logger) *importService {
	return &importService{
		articles: articles,
		log:      log.With().Str("service", "import").Logger(),
	}
}

// ImportArticles reads one article per line and creates each valid one.
// A bad line is reported and skipped; it never aborts the run.
func (s *importService) ImportArticles(ctx context.Context, r io.Reader, p auth.Principal) (*models.ImportResult, error) {
	if !p.Admin {
		return nil, ErrForbidden
	}

	startTime := time.Now()
	result := &models.ImportResult{}
	validator := validation.NewValidator(validation.RequireEnglish)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLine)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		result.Total++

		if lineNum%1000 == 0 {
			select {
			case <-ctx.Done():
				s.finish(result, startTime)
				return result, ctx.Err()
			default:
			}
		}

		var in models.ArticleInput
		if err := json.Unmarshal([]byte(line), &in); err != nil {
			s.fail(result, models.ValidationError{
				Line:    lineNum,
				Field:   "json",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}
		if in.Status == "" {
			in.Status = models.StatusDraft
		}

		if errs := validator.ValidateArticle(&in, lineNum); len(errs) > 0 {
			s.fail(result, errs...)
			continue
		}

		ref, err := s.articles.insert(ctx, &in, p)
		switch {
		case err == nil:
			validator.AddArticleSlug(in.Slug)
			result.Created++
			result.Articles = append(result.Articles, *ref)
		case errors.Is(err, ErrSlugExists):
			validator.AddArticleSlug(in.Slug)
			s.fail(result, models.ValidationError{
				Line:    lineNum,
				Field:   "slug",
				Message: "slug already exists",
				Value:   in.Slug,
			})
		default:
			if ve, ok := AsValidationError(err); ok {
				errs := make([]models.ValidationError, 0, len(ve.Fields))
				for _, field := range ve.Fields.Fields() {
					errs = append(errs, models.ValidationError{Line: lineNum, Field: field, Message: ve.Fields[field]})
				}
				s.fail(result, errs...)
				continue
			}
			s.log.Error().Err(err).Int("line", lineNum).Msg("Import insert failed")
			s.fail(result, models.ValidationError{
				Line:    lineNum,
				Field:   "record",
				Message: "failed to store article",
			})
		}
	}

	if result.Created > 0 {
		s.articles.invalidate(ctx)
	}
	s.finish(result, startTime)

	if err := scanner.Err(); err != nil {
		s.log.Error().Err(err).Int("line", lineNum+1).Msg("Import stream failed")
		return result, fmt.Errorf("failed to read import line %d: %w", lineNum+1, err)
	}

	// Calculate error rate for observability
	var errorRate float64
	if result.Total > 0 {
		errorRate = float64(result.Failed) / float64(result.Total) * 100
	}
	s.log.Info().
		Int("total", result.Total).
		Int("created", result.Created).
		Int("failed", result.Failed).
		Float64("error_rate_pct", errorRate).
		Int64("duration_ms", result.DurationMs).
		Float64("rows_per_sec", result.RowsPerSec).
		Str("actor", p.Actor).
		Msg("Import completed")

	return result, nil
}

// fail counts one failed line and keeps its errors up to the report cap.
func (s *importService) fail(result *models.ImportResult, errs ...models.ValidationError) {
	result.Failed++
	room := maxReportedErrors - len(result.Errors)
	if room <= 0 {
		return
	}
	if len(errs) > room {
		errs = errs[:room]
	}
	result.Errors = append(result.Errors, errs...)
}

func (s *importService) finish(result *models.ImportResult, startTime time.Time) {
	duration := time.Since(startTime)
	result.DurationMs = duration.Milliseconds()
	if result.Total > 0 && duration.Seconds() > 0 {
		result.RowsPerSec = float64(result.Total) / duration.Seconds()
	}
}
