package repository

import (
	"context"

	"github.com/multilingual-news-api/internal/database"
	"github.com/multilingual-news-api/internal/models"
)

// ArticleRepository defines the interface for article data operations.
// Lookups return nil, nil when nothing matches.
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) (int64, error)
	GetByID(ctx context.Context, id int64, publishedOnly bool) (*models.Article, error)
	GetBySlug(ctx context.Context, slug string, publishedOnly bool) (*models.Article, error)
	Update(ctx context.Context, id int64, expectedETag string, article *models.Article) error
	Delete(ctx context.Context, id int64, expectedETag string) error
	List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, int, error)
	CountByStatus(ctx context.Context) (map[models.Status]int, error)
	StreamAll(ctx context.Context, callback func(*models.Article) error) error
}

// Repositories holds all repository interfaces
type Repositories struct {
	Article ArticleRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Article: NewArticleRepo(db),
	}
}
