package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/multilingual-news-api/internal/database"
	"github.com/multilingual-news-api/internal/i18n"
	"github.com/multilingual-news-api/internal/models"
)

const articleColumns = `id, slug, title, summary, body, category, author, publish_date, status,
	featured_image, tags, etag, created_at, updated_at, created_by, updated_by`

// articleRow mirrors the articles table
type articleRow struct {
	ID            int64          `db:"id"`
	Slug          string         `db:"slug"`
	Title         string         `db:"title"`
	Summary       sql.NullString `db:"summary"`
	Body          string         `db:"body"`
	Category      sql.NullString `db:"category"`
	Author        string         `db:"author"`
	PublishDate   string         `db:"publish_date"`
	Status        string         `db:"status"`
	FeaturedImage sql.NullString `db:"featured_image"`
	Tags          sql.NullString `db:"tags"`
	SearchText    string         `db:"search_text"`
	ETag          string         `db:"etag"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
	CreatedBy     sql.NullString `db:"created_by"`
	UpdatedBy     sql.NullString `db:"updated_by"`
}

// updateParams carries the row plus the caller's precondition
type updateParams struct {
	articleRow
	ExpectedETag string `db:"expected_etag"`
}

func toRow(a *models.Article) articleRow {
	return articleRow{
		ID:            a.ID,
		Slug:          a.Slug,
		Title:         a.Title.Encode(),
		Summary:       nullString(a.Summary.Encode()),
		Body:          a.Body.Encode(),
		Category:      nullString(a.Category),
		Author:        a.Author,
		PublishDate:   a.PublishDate,
		Status:        string(a.Status),
		FeaturedImage: nullString(a.FeaturedImage),
		Tags:          nullString(EncodeTags(a.Tags)),
		SearchText:    SearchText(a),
		ETag:          a.ETag,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
		CreatedBy:     nullString(a.CreatedBy),
		UpdatedBy:     nullString(a.UpdatedBy),
	}
}

func (r *articleRow) toModel() *models.Article {
	return &models.Article{
		ID:            r.ID,
		Slug:          r.Slug,
		Title:         i18n.ParseStored(r.Title),
		Summary:       i18n.ParseStored(r.Summary.String),
		Body:          i18n.ParseStored(r.Body),
		Category:      r.Category.String,
		Author:        r.Author,
		PublishDate:   r.PublishDate,
		Status:        models.Status(r.Status),
		FeaturedImage: r.FeaturedImage.String,
		Tags:          DecodeTags(r.Tags.String),
		ETag:          r.ETag,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		CreatedBy:     r.CreatedBy.String,
		UpdatedBy:     r.UpdatedBy.String,
	}
}

// articleRepo is the concrete implementation of ArticleRepository
type articleRepo struct {
	db *database.DB
}

// NewArticleRepo creates a new article repository
func NewArticleRepo(db *database.DB) ArticleRepository {
	return &articleRepo{db: db}
}

// Create inserts a new article and returns its id
func (r *articleRepo) Create(ctx context.Context, article *models.Article) (int64, error) {
	query, args, err := sqlx.Named(`
		INSERT INTO articles (slug, title, summary, body, category, author, publish_date, status,
			featured_image, tags, search_text, etag, created_at, updated_at, created_by, updated_by)
		VALUES (:slug, :title, :summary, :body, :category, :author, :publish_date, :status,
			:featured_image, :tags, :search_text, :etag, :created_at, :updated_at, :created_by, :updated_by)
		RETURNING id
	`, toRow(article))
	if err != nil {
		return 0, fmt.Errorf("failed to bind insert: %w", err)
	}

	var id int64
	if err := r.db.QueryRowxContext(ctx, r.db.Rebind(query), args...).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, ErrSlugExists
		}
		return 0, fmt.Errorf("failed to insert article: %w", err)
	}
	return id, nil
}

// GetByID retrieves an article by ID
func (r *articleRepo) GetByID(ctx context.Context, id int64, publishedOnly bool) (*models.Article, error) {
	return r.getOne(ctx, "id = $1", id, publishedOnly)
}

// GetBySlug retrieves an article by slug
func (r *articleRepo) GetBySlug(ctx context.Context, slug string, publishedOnly bool) (*models.Article, error) {
	return r.getOne(ctx, "slug = $1", slug, publishedOnly)
}

func (r *articleRepo) getOne(ctx context.Context, where string, arg interface{}, publishedOnly bool) (*models.Article, error) {
	query := "SELECT " + articleColumns + " FROM articles WHERE " + where
	args := []interface{}{arg}
	if publishedOnly {
		query += " AND status = $2"
		args = append(args, string(models.StatusPublished))
	}

	var row articleRow
	err := r.db.GetContext(ctx, &row, query+" LIMIT 1", args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// Update replaces the mutable columns of an article in a single
// conditional statement; it only lands when the stored etag still equals
// expectedETag.
func (r *articleRepo) Update(ctx context.Context, id int64, expectedETag string, article *models.Article) error {
	params := updateParams{articleRow: toRow(article), ExpectedETag: expectedETag}
	params.ID = id

	query, args, err := sqlx.Named(`
		UPDATE articles SET
			slug = :slug, title = :title, summary = :summary, body = :body, category = :category,
			author = :author, publish_date = :publish_date, status = :status,
			featured_image = :featured_image, tags = :tags, search_text = :search_text,
			etag = :etag, updated_at = :updated_at, updated_by = :updated_by
		WHERE id = :id AND etag = :expected_etag
	`, params)
	if err != nil {
		return fmt.Errorf("failed to bind update: %w", err)
	}

	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlugExists
		}
		return fmt.Errorf("failed to update article: %w", err)
	}
	return r.checkAffected(ctx, result, id)
}

// Delete hard-deletes an article when its etag still matches
func (r *articleRepo) Delete(ctx context.Context, id int64, expectedETag string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM articles WHERE id = $1 AND etag = $2", id, expectedETag)
	if err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}
	return r.checkAffected(ctx, result, id)
}

// checkAffected tells a missing row apart from a stale etag when a
// conditional write touched nothing.
func (r *articleRepo) checkAffected(ctx context.Context, result sql.Result, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM articles WHERE id = $1)", id); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrETagMismatch
}

// List returns one page of matching articles and the unpaginated count
func (r *articleRepo) List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, int, error) {
	where, args := buildWhere(filter)

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM articles"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count articles: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM articles%s ORDER BY publish_date DESC, id DESC LIMIT $%d OFFSET $%d",
		articleColumns, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	var rows []articleRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list articles: %w", err)
	}

	articles := make([]*models.Article, 0, len(rows))
	for i := range rows {
		articles = append(articles, rows[i].toModel())
	}
	return articles, total, nil
}

func buildWhere(filter models.ArticleFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.Category != "" {
		add("category = $%d", filter.Category)
	}
	if filter.Year != "" {
		add("substr(publish_date, 1, 4) = $%d", filter.Year)
	}
	if filter.Search != "" {
		add("search_text ILIKE '%%' || $%d || '%%'", escapeLike(filter.Search))
	}
	if filter.Tag != "" {
		add("COALESCE(tags, '') ILIKE '%%' || $%d || '%%'", escapeLike(filter.Tag))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// CountByStatus returns the number of articles per status
func (r *articleRepo) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, "SELECT status, COUNT(*) AS count FROM articles GROUP BY status"); err != nil {
		return nil, err
	}

	counts := make(map[models.Status]int, len(rows))
	for _, row := range rows {
		counts[models.Status(row.Status)] = row.Count
	}
	return counts, nil
}

// StreamAll streams all articles for export
func (r *articleRepo) StreamAll(ctx context.Context, callback func(*models.Article) error) error {
	rows, err := r.db.QueryxContext(ctx, "SELECT "+articleColumns+" FROM articles ORDER BY id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var row articleRow
		if err := rows.StructScan(&row); err != nil {
			return err
		}
		if err := callback(row.toModel()); err != nil {
			return err
		}
	}

	return rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
