package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/multilingual-news-api/internal/auth"
	"github.com/multilingual-news-api/internal/cache"
	"github.com/multilingual-news-api/internal/i18n"
	"github.com/multilingual-news-api/internal/models"
	"github.com/multilingual-news-api/internal/repository"
	"github.com/multilingual-news-api/internal/sanitize"
	"github.com/multilingual-news-api/internal/validation"
	"github.com/rs/zerolog"
)

const (
	DefaultPublicLimit = 6
	DefaultAdminLimit  = 20
	MaxLimit           = 100

	// PublicCachePrefix namespaces cached public responses.
	PublicCachePrefix = "public:"
)

var (
	digitsRegex = regexp.MustCompile(`^[0-9]+$`)
	yearRegex   = regexp.MustCompile(`^[0-9]{4}$`)
)

// ListParams are the raw list query parameters. Offset and Limit of zero
// or less select the defaults.
type ListParams struct {
	Status   string
	Category string
	Year     string
	Search   string
	Tag      string
	Offset   int
	Limit    int
}

// ListResult is one page of articles, the total before pagination and
// the effective paging window.
type ListResult struct {
	Items  []*models.Article
	Total  int
	Offset int
	Limit  int
}

// articleService is the concrete implementation of ArticleService
type articleService struct {
	repo    repository.ArticleRepository
	cache   cache.Cache
	log     zerolog.Logger
	now     func() time.Time
	newETag func() string
}

// newArticleService creates a new ArticleService
func newArticleService(repo repository.ArticleRepository, c cache.Cache, log zerolog.Logger) *articleService {
	if c == nil {
		c = cache.Noop{}
	}
	return &articleService{
		repo:    repo,
		cache:   c,
		log:     log.With().Str("service", "article").Logger(),
		now:     time.Now,
		newETag: uuid.NewString,
	}
}

// NewArticleService builds an ArticleService on an arbitrary repository.
func NewArticleService(repo repository.ArticleRepository, c cache.Cache, log zerolog.Logger) ArticleService {
	return newArticleService(repo, c, log)
}

// Get looks an article up by numeric id, then by slug. Non-administrators
// only see published articles.
func (s *articleService) Get(ctx context.Context, idOrSlug string, p auth.Principal) (*models.Article, error) {
	idOrSlug = strings.TrimSpace(idOrSlug)
	if idOrSlug == "" {
		return nil, ErrNotFound
	}
	publishedOnly := !p.Admin

	if digitsRegex.MatchString(idOrSlug) {
		if id, err := strconv.ParseInt(idOrSlug, 10, 64); err == nil {
			article, err := s.repo.GetByID(ctx, id, publishedOnly)
			if err != nil {
				return nil, fmt.Errorf("failed to get article %d: %w", id, err)
			}
			if article != nil {
				return article, nil
			}
		}
	}

	article, err := s.repo.GetBySlug(ctx, idOrSlug, publishedOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to get article %q: %w", idOrSlug, err)
	}
	if article == nil {
		return nil, ErrNotFound
	}
	return article, nil
}

// List returns one page of articles. The status filter only applies to
// administrators; everyone else is restricted to published articles.
func (s *articleService) List(ctx context.Context, params ListParams, p auth.Principal) (*ListResult, error) {
	filter := s.buildFilter(params, p)

	articles, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	return &ListResult{
		Items:  articles,
		Total:  total,
		Offset: filter.Offset,
		Limit:  filter.Limit,
	}, nil
}

func (s *articleService) buildFilter(params ListParams, p auth.Principal) models.ArticleFilter {
	filter := models.ArticleFilter{
		Category: strings.TrimSpace(params.Category),
		Search:   strings.TrimSpace(params.Search),
		Tag:      strings.TrimSpace(params.Tag),
		Offset:   params.Offset,
		Limit:    params.Limit,
	}

	if p.Admin {
		if status := models.Status(strings.ToLower(strings.TrimSpace(params.Status))); models.ValidStatuses[status] {
			filter.Status = status
		}
	} else {
		filter.Status = models.StatusPublished
	}

	if year := strings.TrimSpace(params.Year); yearRegex.MatchString(year) {
		filter.Year = year
	}

	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultPublicLimit
		if p.Admin {
			filter.Limit = DefaultAdminLimit
		}
	}
	if filter.Limit > MaxLimit {
		filter.Limit = MaxLimit
	}
	return filter
}

// Create validates and stores a new article. Status defaults to draft.
func (s *articleService) Create(ctx context.Context, in *models.ArticleInput, p auth.Principal) (*models.ArticleRef, error) {
	if !p.Admin {
		return nil, ErrForbidden
	}
	ref, err := s.insert(ctx, in, p)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return ref, nil
}

// insert stores one article without touching the response cache.
func (s *articleService) insert(ctx context.Context, in *models.ArticleInput, p auth.Principal) (*models.ArticleRef, error) {
	if in != nil && in.Status == "" {
		in.Status = models.StatusDraft
	}
	if errs := validation.Validate(in, validation.RequireEnglish); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	article := buildArticle(in)
	if errs := validation.ValidateContent(article.Title, article.Body, validation.RequireEnglish); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	now := s.now().UTC()
	article.ETag = s.newETag()
	article.CreatedAt = now
	article.UpdatedAt = now
	article.CreatedBy = p.Actor
	article.UpdatedBy = p.Actor

	id, err := s.repo.Create(ctx, article)
	if err != nil {
		if errors.Is(err, ErrSlugExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create article: %w", err)
	}

	s.log.Info().
		Int64("article_id", id).
		Str("slug", article.Slug).
		Str("actor", p.Actor).
		Msg("Article created")

	return &models.ArticleRef{ID: id, ETag: article.ETag}, nil
}

// Update replaces an article's mutable fields when expectedETag matches
// the stored etag.
func (s *articleService) Update(ctx context.Context, id int64, expectedETag string, in *models.ArticleInput, p auth.Principal) (*models.ArticleRef, error) {
	if !p.Admin {
		return nil, ErrForbidden
	}
	if errs := validation.Validate(in, validation.AnyLanguage); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	article := buildArticle(in)
	if errs := validation.ValidateContent(article.Title, article.Body, validation.AnyLanguage); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	article.ID = id
	article.ETag = s.newETag()
	article.UpdatedAt = s.now().UTC()
	article.UpdatedBy = p.Actor

	if err := s.repo.Update(ctx, id, expectedETag, article); err != nil {
		if isExpected(err) {
			s.log.Debug().Err(err).Int64("article_id", id).Msg("Article update rejected")
			return nil, err
		}
		return nil, fmt.Errorf("failed to update article %d: %w", id, err)
	}

	s.invalidate(ctx)
	s.log.Info().
		Int64("article_id", id).
		Str("status", string(article.Status)).
		Str("actor", p.Actor).
		Msg("Article updated")

	return &models.ArticleRef{ID: id, ETag: article.ETag}, nil
}

// Delete removes an article when expectedETag matches the stored etag.
func (s *articleService) Delete(ctx context.Context, id int64, expectedETag string, p auth.Principal) error {
	if !p.Admin {
		return ErrForbidden
	}
	if err := s.repo.Delete(ctx, id, expectedETag); err != nil {
		if isExpected(err) {
			return err
		}
		return fmt.Errorf("failed to delete article %d: %w", id, err)
	}

	s.invalidate(ctx)
	s.log.Info().Int64("article_id", id).Str("actor", p.Actor).Msg("Article deleted")
	return nil
}

// CountByStatus reports article counts for metrics
func (s *articleService) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	return s.repo.CountByStatus(ctx)
}

func (s *articleService) invalidate(ctx context.Context) {
	if err := s.cache.DeletePrefix(ctx, PublicCachePrefix); err != nil {
		s.log.Warn().Err(err).Msg("Failed to invalidate public cache")
	}
}

func isExpected(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrETagMismatch) || errors.Is(err, ErrSlugExists)
}

// buildArticle turns a validated payload into its stored form: body
// sanitized, other text trimmed and sanitized, and language entries that
// end up empty dropped.
func buildArticle(in *models.ArticleInput) *models.Article {
	tags, _ := in.ParsedTags()
	return &models.Article{
		Slug:          in.Slug,
		Title:         cleanText(in.Title, sanitize.Text),
		Summary:       cleanText(in.Summary, sanitize.Text),
		Body:          cleanText(in.Body, sanitize.HTML),
		Category:      strings.TrimSpace(in.Category),
		Author:        strings.TrimSpace(in.Author),
		PublishDate:   in.PublishDate,
		Status:        in.Status,
		FeaturedImage: strings.TrimSpace(in.FeaturedImage),
		Tags:          tags,
	}
}

func cleanText(t i18n.Text, clean func(string) string) i18n.Text {
	out := make(map[string]string)
	for lang, v := range t.Values() {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if cleaned := clean(v); strings.TrimSpace(cleaned) != "" {
			out[lang] = cleaned
		}
	}
	return i18n.Localize(out)
}
