package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/multilingual-news-api/internal/models"
	"github.com/multilingual-news-api/internal/repository"
)

// MockArticleRepository is an in-memory ArticleRepository with the same
// precondition, filter and ordering rules as the SQL implementation.
type MockArticleRepository struct {
	mu       sync.Mutex
	Articles map[int64]*models.Article
	nextID   int64

	// Err, when set, is returned by every operation.
	Err          error
	UpdateCalls  int
	StreamCalled int
}

var _ repository.ArticleRepository = (*MockArticleRepository)(nil)

func NewMockArticleRepository() *MockArticleRepository {
	return &MockArticleRepository{
		Articles: make(map[int64]*models.Article),
	}
}

func (m *MockArticleRepository) Create(ctx context.Context, article *models.Article) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	if m.slugTaken(article.Slug, 0) {
		return 0, repository.ErrSlugExists
	}
	m.nextID++
	stored := article.Clone()
	stored.ID = m.nextID
	m.Articles[stored.ID] = stored
	return stored.ID, nil
}

func (m *MockArticleRepository) GetByID(ctx context.Context, id int64, publishedOnly bool) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	a, ok := m.Articles[id]
	if !ok || (publishedOnly && a.Status != models.StatusPublished) {
		return nil, nil
	}
	return a.Clone(), nil
}

func (m *MockArticleRepository) GetBySlug(ctx context.Context, slug string, publishedOnly bool) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, a := range m.Articles {
		if a.Slug == slug && (!publishedOnly || a.Status == models.StatusPublished) {
			return a.Clone(), nil
		}
	}
	return nil, nil
}

func (m *MockArticleRepository) Update(ctx context.Context, id int64, expectedETag string, article *models.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	if m.Err != nil {
		return m.Err
	}
	current, ok := m.Articles[id]
	if !ok {
		return repository.ErrNotFound
	}
	if current.ETag != expectedETag {
		return repository.ErrETagMismatch
	}
	if m.slugTaken(article.Slug, id) {
		return repository.ErrSlugExists
	}

	updated := article.Clone()
	updated.ID = id
	updated.CreatedAt = current.CreatedAt
	updated.CreatedBy = current.CreatedBy
	m.Articles[id] = updated
	return nil
}

func (m *MockArticleRepository) Delete(ctx context.Context, id int64, expectedETag string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	current, ok := m.Articles[id]
	if !ok {
		return repository.ErrNotFound
	}
	if current.ETag != expectedETag {
		return repository.ErrETagMismatch
	}
	delete(m.Articles, id)
	return nil
}

func (m *MockArticleRepository) List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, 0, m.Err
	}

	var matched []*models.Article
	for _, a := range m.Articles {
		if matches(a, filter) {
			matched = append(matched, a)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].PublishDate != matched[j].PublishDate {
			return matched[i].PublishDate > matched[j].PublishDate
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	start := filter.Offset
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}

	page := make([]*models.Article, 0, end-start)
	for _, a := range matched[start:end] {
		page = append(page, a.Clone())
	}
	return page, total, nil
}

func matches(a *models.Article, f models.ArticleFilter) bool {
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.Category != "" && a.Category != f.Category {
		return false
	}
	if f.Year != "" && !strings.HasPrefix(a.PublishDate, f.Year) {
		return false
	}
	if f.Search != "" && !containsFold(repository.SearchText(a), f.Search) {
		return false
	}
	if f.Tag != "" && !containsFold(repository.EncodeTags(a.Tags), f.Tag) {
		return false
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (m *MockArticleRepository) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	counts := make(map[models.Status]int)
	for _, a := range m.Articles {
		counts[a.Status]++
	}
	return counts, nil
}

func (m *MockArticleRepository) StreamAll(ctx context.Context, callback func(*models.Article) error) error {
	m.mu.Lock()
	m.StreamCalled++
	if m.Err != nil {
		m.mu.Unlock()
		return m.Err
	}
	ids := make([]int64, 0, len(m.Articles))
	for id := range m.Articles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	snapshot := make([]*models.Article, 0, len(ids))
	for _, id := range ids {
		snapshot = append(snapshot, m.Articles[id].Clone())
	}
	m.mu.Unlock()

	for _, a := range snapshot {
		if err := callback(a); err != nil {
			return err
		}
	}
	return nil
}

// Seed stores articles directly, bypassing validation. IDs are assigned
// when zero.
func (m *MockArticleRepository) Seed(articles ...*models.Article) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range articles {
		if a.ID == 0 {
			m.nextID++
			a.ID = m.nextID
		} else if a.ID > m.nextID {
			m.nextID = a.ID
		}
		m.Articles[a.ID] = a.Clone()
	}
}

func (m *MockArticleRepository) slugTaken(slug string, exceptID int64) bool {
	for id, a := range m.Articles {
		if id != exceptID && a.Slug == slug {
			return true
		}
	}
	return false
}
