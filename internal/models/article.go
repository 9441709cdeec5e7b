package models

import (
	"encoding/json"
	"time"

	"github.com/multilingual-news-api/internal/i18n"
)

// Status controls public visibility of an article
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// ValidStatuses defines allowed article statuses
var ValidStatuses = map[Status]bool{
	StatusDraft:     true,
	StatusPublished: true,
	StatusArchived:  true,
}

// Article represents a news item as stored
type Article struct {
	ID            int64     `json:"id"`
	Slug          string    `json:"slug"`
	Title         i18n.Text `json:"title"`
	Summary       i18n.Text `json:"summary"`
	Body          i18n.Text `json:"body"`
	Category      string    `json:"category,omitempty"`
	Author        string    `json:"author"`
	PublishDate   string    `json:"publish_date"`
	Status        Status    `json:"status"`
	FeaturedImage string    `json:"featured_image,omitempty"`
	Tags          []string  `json:"tags"`
	ETag          string    `json:"etag"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	CreatedBy     string    `json:"created_by,omitempty"`
	UpdatedBy     string    `json:"updated_by,omitempty"`
}

// Clone returns a deep copy of the article.
func (a *Article) Clone() *Article {
	c := *a
	c.Title = a.Title.Map(same)
	c.Summary = a.Summary.Map(same)
	c.Body = a.Body.Map(same)
	if a.Tags != nil {
		c.Tags = append([]string(nil), a.Tags...)
	}
	return &c
}

func same(s string) string { return s }

// AdminArticle is the administrative view: every column plus the
// "date" alias the public view uses.
type AdminArticle struct {
	*Article
	Date string `json:"date"`
}

// PublicArticle is the unauthenticated view of a published article.
// Multilingual fields hold either mappings or, when a language was
// requested, resolved strings.
type PublicArticle struct {
	ID       int64     `json:"id"`
	Slug     string    `json:"slug"`
	Date     string    `json:"date"`
	Category string    `json:"category,omitempty"`
	Image    string    `json:"image,omitempty"`
	Title    i18n.Text `json:"title"`
	Summary  i18n.Text `json:"summary"`
	Body     i18n.Text `json:"body"`
	Tags     []string  `json:"tags"`
}

// ArticleInput is the create/update payload
type ArticleInput struct {
	Slug          string          `json:"slug"`
	Title         i18n.Text       `json:"title"`
	Summary       i18n.Text       `json:"summary"`
	Body          i18n.Text       `json:"body"`
	Category      string          `json:"category"`
	Author        string          `json:"author"`
	PublishDate   string          `json:"publish_date"`
	Status        Status          `json:"status"`
	FeaturedImage string          `json:"featured_image"`
	Tags          json.RawMessage `json:"tags,omitempty"`
}

// ParsedTags decodes Tags. The second result is false when Tags is set
// but is not a list of strings; a null element does not count as a string.
func (in *ArticleInput) ParsedTags() ([]string, bool) {
	if len(in.Tags) == 0 || string(in.Tags) == "null" {
		return []string{}, true
	}
	var raw []*string
	if err := json.Unmarshal(in.Tags, &raw); err != nil {
		return nil, false
	}
	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		if t == nil {
			return nil, false
		}
		tags = append(tags, *t)
	}
	return tags, true
}

// ArticleFilter narrows list queries. Zero values mean "no filter".
type ArticleFilter struct {
	Status   Status
	Category string
	Year     string
	Search   string
	Tag      string
	Offset   int
	Limit    int
}

// ArticleRef is returned by successful writes
type ArticleRef struct {
	ID   int64  `json:"id"`
	ETag string `json:"etag"`
}
