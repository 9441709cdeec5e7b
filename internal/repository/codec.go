package repository

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/multilingual-news-api/internal/models"
)

// EncodeTags serializes tags to the stored JSON list.
func EncodeTags(tags []string) string {
	if len(tags) == 0 {
		return "[]"
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tags); err != nil {
		return "[]"
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// DecodeTags parses a stored tag list. Anything unreadable is an empty list.
func DecodeTags(raw string) []string {
	tags := []string{}
	if strings.TrimSpace(raw) == "" {
		return tags
	}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil || tags == nil {
		return []string{}
	}
	return tags
}

// SearchText builds the corpus the free-text search filter matches
// against: every language variant of title, summary and body, then the
// author, one per line.
func SearchText(a *models.Article) string {
	var parts []string
	for _, t := range []map[string]string{a.Title.Values(), a.Summary.Values(), a.Body.Values()} {
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if t[k] != "" {
				parts = append(parts, t[k])
			}
		}
	}
	if a.Author != "" {
		parts = append(parts, a.Author)
	}
	return strings.Join(parts, "\n")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
