package i18n

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLang(t *testing.T) {
	for _, in := range []string{"en", "MRH", " my "} {
		_, ok := ParseLang(in)
		assert.True(t, ok, in)
	}
	for _, in := range []string{"", "fr", "mara", "en-US"} {
		_, ok := ParseLang(in)
		assert.False(t, ok, in)
	}
}

func TestNormalizeKeys(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]string
		want map[string]string
	}{
		{
			name: "legacy mara exposed as mrh",
			in:   map[string]string{"mara": "Hello"},
			want: map[string]string{"mara": "Hello", "mrh": "Hello"},
		},
		{
			name: "existing mrh wins over mara",
			in:   map[string]string{"mara": "old", "mrh": "new"},
			want: map[string]string{"mara": "old", "mrh": "new"},
		},
		{
			name: "regional key registers base",
			in:   map[string]string{"en-US": "Color"},
			want: map[string]string{"en-US": "Color", "en": "Color"},
		},
		{
			name: "underscore separator and uppercase",
			in:   map[string]string{"MY_MM": "x"},
			want: map[string]string{"MY_MM": "x", "my": "x"},
		},
		{
			name: "base not overwritten",
			in:   map[string]string{"en": "base", "en-GB": "colour"},
			want: map[string]string{"en": "base", "en-GB": "colour"},
		},
		{
			name: "first sorted regional key wins",
			in:   map[string]string{"en-US": "us", "en-GB": "gb"},
			want: map[string]string{"en-US": "us", "en-GB": "gb", "en": "gb"},
		},
		{
			name: "non-language keys ignored",
			in:   map[string]string{"english": "x", "1a": "y"},
			want: map[string]string{"english": "x", "1a": "y"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeKeys(tt.in))
		})
	}
}

func TestNormalizeKeys_DoesNotMutateInput(t *testing.T) {
	in := map[string]string{"mara": "Hello"}
	NormalizeKeys(in)
	assert.Len(t, in, 1)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		text Text
		lang Lang
		want string
	}{
		{"plain string unchanged", PlainText("legacy"), Burmese, "legacy"},
		{"requested language", Localize(map[string]string{"en": "Hi", "my": "Mingalaba"}), Burmese, "Mingalaba"},
		{"falls back to mrh", Localize(map[string]string{"mrh": "x"}), Burmese, "x"},
		{"mrh preferred over en", Localize(map[string]string{"en": "Hi", "mrh": "Mara"}), Burmese, "Mara"},
		{"falls back to en", Localize(map[string]string{"en": "Hi", "my": ""}), Burmese, "Hi"},
		{"legacy mara resolves under mrh", Localize(map[string]string{"mara": "Hello"}), Mara, "Hello"},
		{"first non-empty", Localize(map[string]string{"fr": "Bonjour", "de": ""}), English, "Bonjour"},
		{"regional variant", Localize(map[string]string{"en-US": "Color"}), English, "Color"},
		{"empty mapping", Localize(nil), English, ""},
		{"no language requested", Localize(map[string]string{"en": "Hi"}), "", "Hi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.text, tt.lang))
		})
	}
}

func TestText_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Text
	}{
		{"string", `"Hello"`, PlainText("Hello")},
		{"object", `{"en":"Hello","my":"Hi"}`, Localize(map[string]string{"en": "Hello", "my": "Hi"})},
		{"non-string members dropped", `{"en":"Hello","n":5}`, Localize(map[string]string{"en": "Hello"})},
		{"number", `42`, Text{}},
		{"null", `null`, Text{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Text
			require.NoError(t, json.Unmarshal([]byte(tt.input), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestText_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A Text `json:"a"`
		B Text `json:"b"`
	}{PlainText("x"), Localize(map[string]string{"en": "<p>y</p>"})})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"x","b":{"en":"<p>y</p>"}}`, string(data))
}

func TestParseStored(t *testing.T) {
	assert.Equal(t, map[string]string{"en": "Hi"}, ParseStored(`{"en":"Hi"}`).Localized)
	assert.Equal(t, map[string]string{"en": "not json"}, ParseStored("not json").Localized)
	assert.Equal(t, map[string]string{"en": `"quoted"`}, ParseStored(`"quoted"`).Localized)
	assert.Equal(t, map[string]string{"en": "[1,2]"}, ParseStored("[1,2]").Localized)
	assert.Empty(t, ParseStored("").Localized)
	assert.True(t, ParseStored("").IsLocalized())
}

func TestText_Encode(t *testing.T) {
	text := Localize(map[string]string{"en": "<b>A & B</b>"})
	assert.Equal(t, `{"en":"<b>A & B</b>"}`, text.Encode())
	assert.Equal(t, text.Localized, ParseStored(text.Encode()).Localized)

	assert.Equal(t, `{"en":"legacy"}`, PlainText("legacy").Encode())
	assert.Equal(t, `{}`, Text{}.Encode())
}

func TestText_Values(t *testing.T) {
	assert.Equal(t, map[string]string{"en": "x", "my": "y"}, PlainText(`{"en":"x","my":"y"}`).Values())
	assert.Equal(t, map[string]string{"en": "plain"}, PlainText("plain").Values())

	src := map[string]string{"en": "x"}
	vals := Localize(src).Values()
	vals["en"] = "changed"
	assert.Equal(t, "x", src["en"])
}

func TestText_IsZero(t *testing.T) {
	assert.True(t, Text{}.IsZero())
	assert.True(t, Localize(map[string]string{"en": ""}).IsZero())
	assert.False(t, Localize(map[string]string{"my": "x"}).IsZero())
	assert.False(t, PlainText("x").IsZero())
}
