package service

import (
	"context"
	"io"
	"net/http"

	"github.com/multilingual-news-api/internal/auth"
	"github.com/multilingual-news-api/internal/cache"
	"github.com/multilingual-news-api/internal/config"
	"github.com/multilingual-news-api/internal/models"
	"github.com/multilingual-news-api/internal/repository"
	"github.com/multilingual-news-api/internal/storage"
	"github.com/rs/zerolog"
)

// ArticleService defines the article read and write operations
type ArticleService interface {
	Get(ctx context.Context, idOrSlug string, p auth.Principal) (*models.Article, error)
	List(ctx context.Context, params ListParams, p auth.Principal) (*ListResult, error)
	Create(ctx context.Context, in *models.ArticleInput, p auth.Principal) (*models.ArticleRef, error)
	Update(ctx context.Context, id int64, expectedETag string, in *models.ArticleInput, p auth.Principal) (*models.ArticleRef, error)
	Delete(ctx context.Context, id int64, expectedETag string, p auth.Principal) error
	CountByStatus(ctx context.Context) (map[models.Status]int, error)
}

// ImageService defines image upload and retrieval
type ImageService interface {
	Upload(ctx context.Context, upload ImageUpload, p auth.Principal) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, *storage.ObjectInfo, error)
	Delete(ctx context.Context, key string, p auth.Principal) error
}

// ImportService defines bulk article import
type ImportService interface {
	ImportArticles(ctx context.Context, r io.Reader, p auth.Principal) (*models.ImportResult, error)
}

// ExportService defines article export
type ExportService interface {
	StreamArticles(ctx context.Context, w http.ResponseWriter, format string, p auth.Principal) error
}

// Services holds all service interfaces
type Services struct {
	Article ArticleService
	Image   ImageService
	Import  ImportService
	Export  ExportService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, images storage.ImageStore, responses cache.Cache, cfg *config.Config, log zerolog.Logger) *Services {
	articleSvc := newArticleService(repos.Article, responses, log)

	return &Services{
		Article: articleSvc,
		Image:   newImageService(images, cfg.Storage, log),
		Import:  newImportService(articleSvc, log),
		Export:  newExportService(repos, log),
	}
}
