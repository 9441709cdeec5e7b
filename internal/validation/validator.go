package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/multilingual-news-api/internal/i18n"
	"github.com/multilingual-news-api/internal/models"
)

const (
	MaxTitleLength = 200
	MaxBodyLength  = 200000
)

var (
	slugRegex = regexp.MustCompile(`^[-a-z0-9]+$`)
	dateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Mode selects how strictly multilingual fields are checked
type Mode int

const (
	// RequireEnglish demands a non-empty English title and body.
	RequireEnglish Mode = iota
	// AnyLanguage accepts any one non-empty language.
	AnyLanguage
)

// Errors maps a field name to a human readable message.
// An empty Errors means the payload is valid.
type Errors map[string]string

// Fields returns the failing field names in sorted order
func (e Errors) Fields() []string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, f := range e.Fields() {
		parts = append(parts, f+": "+e[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate checks an article payload. It never fails outright; every
// problem is reported as a field message.
func Validate(in *models.ArticleInput, mode Mode) Errors {
	errs := Errors{}
	if in == nil {
		errs["payload"] = "Payload required"
		return errs
	}

	// Validate title
	if msg := checkText(in.Title, mode, "Title", MaxTitleLength); msg != "" {
		errs["title"] = msg
	}

	// Validate slug
	if in.Slug == "" || !slugRegex.MatchString(in.Slug) {
		errs["slug"] = "Slug required, lowercase letters/numbers/hyphens only"
	}

	// Validate author
	if strings.TrimSpace(in.Author) == "" {
		errs["author"] = "Author required"
	}

	// Validate publish_date
	if !isoDateValid(in.PublishDate) {
		errs["publish_date"] = "Publish date must be ISO (YYYY-MM-DD)"
	}

	// Validate status
	if !models.ValidStatuses[in.Status] {
		errs["status"] = "Invalid status, must be one of: draft, published, archived"
	}

	// Validate body
	if msg := checkText(in.Body, mode, "Content", MaxBodyLength); msg != "" {
		errs["body"] = msg
	}

	// Validate tags
	if _, ok := in.ParsedTags(); !ok {
		errs["tags"] = "Tags must be an array of strings"
	}

	return errs
}

// ValidateContent re-checks title and body once they are in stored form.
// Sanitizing can empty a value that Validate accepted, e.g. a title made
// only of a script block.
func ValidateContent(title, body i18n.Text, mode Mode) Errors {
	errs := Errors{}
	if msg := checkText(title, mode, "Title", MaxTitleLength); msg != "" {
		errs["title"] = msg
	}
	if msg := checkText(body, mode, "Content", MaxBodyLength); msg != "" {
		errs["body"] = msg
	}
	return errs
}

func checkText(t i18n.Text, mode Mode, label string, maxLen int) string {
	values := t.Values()

	switch mode {
	case RequireEnglish:
		if strings.TrimSpace(values[string(i18n.English)]) == "" {
			return fmt.Sprintf("%s required in English", label)
		}
	default:
		found := false
		for _, v := range values {
			if strings.TrimSpace(v) != "" {
				found = true
				break
			}
		}
		if !found {
			return fmt.Sprintf("%s required in at least one language", label)
		}
	}

	for _, v := range values {
		if utf8.RuneCountInString(v) > maxLen {
			return fmt.Sprintf("%s must be at most %d characters", label, maxLen)
		}
	}
	return ""
}

func isoDateValid(v string) bool {
	if !dateRegex.MatchString(v) {
		return false
	}
	_, err := time.Parse("2006-01-02", v)
	return err == nil
}

// Validator checks payloads of a bulk import, remembering slugs already
// seen in the batch so duplicates are caught before they reach the store.
type Validator struct {
	mode             Mode
	articleSlugCache map[string]bool
}

// NewValidator creates a new validator instance
func NewValidator(mode Mode) *Validator {
	return &Validator{
		mode:             mode,
		articleSlugCache: make(map[string]bool),
	}
}

// AddArticleSlug adds a slug to the uniqueness cache
func (v *Validator) AddArticleSlug(slug string) {
	v.articleSlugCache[slug] = true
}

// ValidateArticle validates one import line
func (v *Validator) ValidateArticle(in *models.ArticleInput, lineNum int) []models.ValidationError {
	errs := Validate(in, v.mode)
	if _, bad := errs["slug"]; !bad && in != nil && v.articleSlugCache[in.Slug] {
		errs["slug"] = "duplicate slug in import"
	}

	var out []models.ValidationError
	for _, field := range errs.Fields() {
		ve := models.ValidationError{Line: lineNum, Field: field, Message: errs[field]}
		if in != nil {
			ve.Value = fieldValue(in, field)
		}
		out = append(out, ve)
	}
	return out
}

func fieldValue(in *models.ArticleInput, field string) interface{} {
	switch field {
	case "slug":
		return in.Slug
	case "publish_date":
		return in.PublishDate
	case "status":
		return in.Status
	default:
		return nil
	}
}
