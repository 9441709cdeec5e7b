package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/multilingual-news-api/internal/i18n"
	"github.com/multilingual-news-api/internal/mocks"
	"github.com/multilingual-news-api/internal/models"
	"github.com/multilingual-news-api/internal/repository"
)

func article(slug, date string, status models.Status) *models.Article {
	return &models.Article{
		Slug:        slug,
		Title:       i18n.Localize(map[string]string{"en": "Title " + slug}),
		Summary:     i18n.PlainText("summary"),
		Body:        i18n.PlainText("body"),
		Author:      "Desk",
		PublishDate: date,
		Status:      status,
		Tags:        []string{},
		ETag:        "etag-" + slug,
	}
}

func TestMockArticleRepository_CreateRejectsDuplicateSlug(t *testing.T) {
	repo := mocks.NewMockArticleRepository()
	ctx := context.Background()

	id, err := repo.Create(ctx, article("first", "2024-01-01", models.StatusDraft))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if id != 1 {
		t.Errorf("Expected id 1, got %d", id)
	}

	_, err = repo.Create(ctx, article("first", "2024-01-02", models.StatusDraft))
	if !errors.Is(err, repository.ErrSlugExists) {
		t.Errorf("Expected ErrSlugExists, got %v", err)
	}
	if len(repo.Articles) != 1 {
		t.Errorf("Expected 1 stored article, got %d", len(repo.Articles))
	}
}

func TestMockArticleRepository_UpdatePreconditions(t *testing.T) {
	repo := mocks.NewMockArticleRepository()
	ctx := context.Background()
	repo.Seed(article("one", "2024-01-01", models.StatusDraft), article("two", "2024-01-02", models.StatusDraft))

	next := article("one", "2024-02-01", models.StatusPublished)
	next.ETag = "etag-new"

	if err := repo.Update(ctx, 99, "etag-one", next); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("missing id: expected ErrNotFound, got %v", err)
	}
	if err := repo.Update(ctx, 1, "stale", next); !errors.Is(err, repository.ErrETagMismatch) {
		t.Errorf("stale etag: expected ErrETagMismatch, got %v", err)
	}
	if err := repo.Update(ctx, 1, "", next); !errors.Is(err, repository.ErrETagMismatch) {
		t.Errorf("empty etag: expected ErrETagMismatch, got %v", err)
	}

	clash := article("two", "2024-02-01", models.StatusDraft)
	if err := repo.Update(ctx, 1, "etag-one", clash); !errors.Is(err, repository.ErrSlugExists) {
		t.Errorf("slug clash: expected ErrSlugExists, got %v", err)
	}

	if err := repo.Update(ctx, 1, "etag-one", next); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	stored, _ := repo.GetByID(ctx, 1, false)
	if stored.ETag != "etag-new" || stored.Status != models.StatusPublished {
		t.Errorf("update not applied: %+v", stored)
	}

	// The old etag no longer matches.
	if err := repo.Update(ctx, 1, "etag-one", next); !errors.Is(err, repository.ErrETagMismatch) {
		t.Errorf("reused etag: expected ErrETagMismatch, got %v", err)
	}
}

func TestMockArticleRepository_Delete(t *testing.T) {
	repo := mocks.NewMockArticleRepository()
	ctx := context.Background()
	repo.Seed(article("gone", "2024-01-01", models.StatusPublished))

	if err := repo.Delete(ctx, 1, "wrong"); !errors.Is(err, repository.ErrETagMismatch) {
		t.Errorf("Expected ErrETagMismatch, got %v", err)
	}
	if err := repo.Delete(ctx, 1, "etag-gone"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := repo.Delete(ctx, 1, "etag-gone"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestMockArticleRepository_Visibility(t *testing.T) {
	repo := mocks.NewMockArticleRepository()
	ctx := context.Background()
	repo.Seed(article("draft", "2024-01-01", models.StatusDraft))

	got, err := repo.GetByID(ctx, 1, true)
	if err != nil || got != nil {
		t.Errorf("published-only lookup should miss a draft, got %v, %v", got, err)
	}
	got, _ = repo.GetBySlug(ctx, "draft", false)
	if got == nil {
		t.Error("unrestricted lookup should find the draft")
	}
}

func TestMockArticleRepository_ListFiltersAndOrder(t *testing.T) {
	repo := mocks.NewMockArticleRepository()
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		a := article(fmt.Sprintf("a-%d", i), fmt.Sprintf("2024-01-0%d", i), models.StatusPublished)
		a.Category = "sport"
		repo.Seed(a)
	}
	tagged := article("tagged", "2023-12-31", models.StatusPublished)
	tagged.Tags = []string{"Cricket"}
	repo.Seed(tagged)
	repo.Seed(article("hidden", "2025-01-01", models.StatusDraft))

	page, total, err := repo.List(ctx, models.ArticleFilter{Status: models.StatusPublished, Offset: 1, Limit: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 6 {
		t.Errorf("Expected total 6, got %d", total)
	}
	if len(page) != 2 || page[0].Slug != "a-4" || page[1].Slug != "a-3" {
		t.Errorf("unexpected page order: %v", slugs(page))
	}

	tests := []struct {
		name   string
		filter models.ArticleFilter
		want   int
	}{
		{"category", models.ArticleFilter{Category: "sport"}, 5},
		{"year", models.ArticleFilter{Year: "2023"}, 1},
		{"tag is case-insensitive", models.ArticleFilter{Tag: "cricket"}, 1},
		{"search matches title", models.ArticleFilter{Search: "title a-2"}, 1},
		{"drafts", models.ArticleFilter{Status: models.StatusDraft}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.filter.Limit = 100
			_, total, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if total != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, total)
			}
		})
	}

	page, total, _ = repo.List(ctx, models.ArticleFilter{Offset: 50, Limit: 10})
	if len(page) != 0 || total != 7 {
		t.Errorf("offset past end: got %d items, total %d", len(page), total)
	}
}

func TestMockArticleRepository_StreamAllInIDOrder(t *testing.T) {
	repo := mocks.NewMockArticleRepository()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		repo.Seed(article(fmt.Sprintf("s-%d", i), "2024-01-01", models.StatusDraft))
	}

	var ids []int64
	err := repo.StreamAll(ctx, func(a *models.Article) error {
		ids = append(ids, a.ID)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamAll failed: %v", err)
	}
	if len(ids) != 3 || ids[0] != 1 || ids[2] != 3 {
		t.Errorf("unexpected stream order: %v", ids)
	}

	stop := errors.New("stop")
	calls := 0
	err = repo.StreamAll(ctx, func(*models.Article) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("callback error should end the stream, got %v after %d calls", err, calls)
	}
}

func slugs(articles []*models.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.Slug
	}
	return out
}
