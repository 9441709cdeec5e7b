// Package i18n models multilingual content fields and resolves them to a
// single display string for a requested language.
package i18n

import (
	"bytes"
	"encoding/json"
	"regexp"
	"sort"
	"strings"
)

// Lang is a supported content language code.
type Lang string

const (
	English Lang = "en"
	Mara    Lang = "mrh"
	Burmese Lang = "my"

	// LegacyMara is the deprecated key older rows use for Mara.
	LegacyMara = "mara"
)

// Supported lists the languages a caller may request, in preference order.
var Supported = []Lang{English, Mara, Burmese}

var localeKey = regexp.MustCompile(`(?i)^([a-z]{2,3})([-_].+)?$`)

// ParseLang returns the supported language named by s. Anything outside
// the supported set reports false, which callers treat as "no language".
func ParseLang(s string) (Lang, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, l := range Supported {
		if string(l) == s {
			return l, true
		}
	}
	return "", false
}

// Text is a multilingual field. It holds either a legacy plain string or a
// mapping from language code to string; Localized != nil selects the
// mapping form.
type Text struct {
	Plain     string
	Localized map[string]string
}

// PlainText wraps a legacy single-language string.
func PlainText(s string) Text { return Text{Plain: s} }

// Localize wraps a language mapping. A nil map becomes an empty mapping.
func Localize(m map[string]string) Text {
	if m == nil {
		m = map[string]string{}
	}
	return Text{Localized: m}
}

// IsLocalized reports whether t is in mapping form.
func (t Text) IsLocalized() bool { return t.Localized != nil }

// IsZero reports whether t carries no content at all.
func (t Text) IsZero() bool {
	if t.Localized == nil {
		return t.Plain == ""
	}
	for _, v := range t.Localized {
		if v != "" {
			return false
		}
	}
	return true
}

// Values returns the field as a language mapping. A plain string holding a
// JSON object is decoded; any other plain string is filed under English.
func (t Text) Values() map[string]string {
	if t.Localized != nil {
		out := make(map[string]string, len(t.Localized))
		for k, v := range t.Localized {
			out[k] = v
		}
		return out
	}
	if t.Plain == "" {
		return map[string]string{}
	}
	return ParseStored(t.Plain).Localized
}

// Normalized returns t with NormalizeKeys applied to its mapping.
func (t Text) Normalized() Text {
	if t.Localized == nil {
		return t
	}
	return Text{Localized: NormalizeKeys(t.Localized)}
}

// Resolve returns the display string for lang, see Resolve.
func (t Text) Resolve(lang Lang) string { return Resolve(t, lang) }

// Map applies fn to every value, keeping the form of t.
func (t Text) Map(fn func(string) string) Text {
	if t.Localized == nil {
		return Text{Plain: fn(t.Plain)}
	}
	out := make(map[string]string, len(t.Localized))
	for k, v := range t.Localized {
		out[k] = fn(v)
	}
	return Text{Localized: out}
}

// MarshalJSON writes a plain string or an object.
func (t Text) MarshalJSON() ([]byte, error) {
	if t.Localized == nil {
		return json.Marshal(t.Plain)
	}
	return json.Marshal(t.Localized)
}

// UnmarshalJSON accepts a string or an object of strings. Non-string object
// members are dropped and any other JSON value yields an empty Text; it
// never fails so malformed input surfaces as a validation message.
func (t *Text) UnmarshalJSON(data []byte) error {
	*t = decode(data)
	return nil
}

func decode(data []byte) Text {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Text{}
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return Text{}
		}
		return Text{Plain: s}
	case '{':
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return Text{}
		}
		out := make(map[string]string, len(raw))
		for k, v := range raw {
			var s string
			if json.Unmarshal(v, &s) == nil {
				out[k] = s
			}
		}
		return Text{Localized: out}
	default:
		return Text{}
	}
}

// ParseStored decodes a persisted blob. Empty input is an empty mapping;
// anything that is not a JSON object of strings becomes {en: raw}.
func ParseStored(raw string) Text {
	if strings.TrimSpace(raw) == "" {
		return Text{Localized: map[string]string{}}
	}
	t := decode([]byte(raw))
	if t.Localized == nil {
		return Text{Localized: map[string]string{string(English): raw}}
	}
	return t
}

// Encode serializes t to its persisted form, always a JSON object.
func (t Text) Encode() string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(t.Values()); err != nil {
		return "{}"
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// NormalizeKeys returns a copy of m where the legacy "mara" key is exposed
// as "mrh" and every regional key (en-US, my_MM) also registers its base
// code. Existing non-empty entries are never overwritten. Keys are visited
// in sorted order so the first match is deterministic.
func NormalizeKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m)+1)
	for k, v := range m {
		out[k] = v
	}

	if v, ok := m[LegacyMara]; ok && out[string(Mara)] == "" {
		out[string(Mara)] = v
	}

	for _, k := range sortedKeys(m) {
		sub := localeKey.FindStringSubmatch(k)
		if sub == nil {
			continue
		}
		base := strings.ToLower(sub[1])
		if out[base] == "" {
			out[base] = m[k]
		}
	}
	return out
}

// Resolve picks the display string for lang. A plain Text is returned
// unchanged. Otherwise the order is lang, mrh, en, then the first
// non-empty value (en, mrh, my, then remaining keys sorted), then "".
func Resolve(t Text, lang Lang) string {
	if t.Localized == nil {
		return t.Plain
	}
	m := NormalizeKeys(t.Localized)

	if lang != "" {
		if v := m[string(lang)]; v != "" {
			return v
		}
	}
	if v := m[string(Mara)]; v != "" {
		return v
	}
	if v := m[string(English)]; v != "" {
		return v
	}
	for _, k := range enumerationOrder(m) {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}

func enumerationOrder(m map[string]string) []string {
	order := make([]string, 0, len(m))
	seen := make(map[string]bool, len(Supported))
	for _, l := range Supported {
		if _, ok := m[string(l)]; ok {
			order = append(order, string(l))
		}
		seen[string(l)] = true
	}
	for _, k := range sortedKeys(m) {
		if !seen[k] {
			order = append(order, k)
		}
	}
	return order
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
