package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type colour string

func (c colour) EnumValue() string { return string(c) }

const (
	red   colour = "red"
	green colour = "green"
	blue  colour = "blue"
)

var testSignature = Signature{
	{Name: "q", Kind: KindString},
	{Name: "colours", Kind: KindList, Optional: true},
	{Name: "language", Kind: KindString, Optional: true},
	{Name: "pageno", Kind: KindInteger, Optional: true},
	{Name: "proxy", Kind: KindBoolean, Optional: true},
	{Name: "tags", Kind: KindList, Optional: true},
}

func TestClean_RequiredEmpty(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{name: "empty string", value: ""},
		{name: "nil", value: nil},
		{name: "nil string pointer", value: (*string)(nil)},
		{name: "empty list", value: []any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Clean(testSignature, map[string]any{
				"q":        tt.value,
				"language": "en",
				"pageno":   2,
			})
			require.Error(t, err)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, "q", vErr.Param)
			assert.Contains(t, err.Error(), "'q' is required")
		})
	}
}

func TestClean_OptionalEmptyIsOmitted(t *testing.T) {
	var proxy *bool
	values, err := Clean(testSignature, map[string]any{
		"q":        "golang",
		"colours":  []Enum{},
		"language": "",
		"pageno":   (*int)(nil),
		"proxy":    proxy,
		"tags":     nil,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"q"}, values.Names())
	assert.False(t, values.Has("colours"))
	assert.False(t, values.Has("language"))
	assert.False(t, values.Has("proxy"))
}

func TestClean_AbsentRequiredIsNotChecked(t *testing.T) {
	// Only supplied keys are inspected; absence of the key itself is left to the caller.
	values, err := Clean(testSignature, map[string]any{"language": "de"})
	require.NoError(t, err)
	assert.Equal(t, []string{"language"}, values.Names())
}

func TestClean_EnumListsAreJoined(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{name: "single member", value: EnumList([]colour{red}), expected: "red"},
		{name: "keeps order", value: EnumList([]colour{blue, red, green}), expected: "blue, red, green"},
		{name: "untyped list of members", value: []any{green, blue}, expected: "green, blue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := Clean(testSignature, map[string]any{"q": "x", "colours": tt.value})
			require.NoError(t, err)

			got, ok := values.Get("colours")
			require.True(t, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestClean_NonEnumListsPassThrough(t *testing.T) {
	mixed := []any{red, "plain"}
	values, err := Clean(testSignature, map[string]any{
		"q":       "x",
		"colours": mixed,
		"tags":    []string{"a", "b"},
	})
	require.NoError(t, err)

	colours, _ := values.Get("colours")
	assert.Equal(t, mixed, colours)
	tags, _ := values.Get("tags")
	assert.Equal(t, []string{"a", "b"}, tags)
}

func TestClean_ScalarsPassThrough(t *testing.T) {
	page := 3
	proxy := false
	values, err := Clean(testSignature, map[string]any{
		"q":      "x",
		"pageno": &page,
		"proxy":  &proxy,
	})
	require.NoError(t, err)

	got, _ := values.Get("pageno")
	assert.Equal(t, 3, got)
	got, _ = values.Get("proxy")
	assert.Equal(t, false, got)
}

func TestClean_UndeclaredKeysIgnored(t *testing.T) {
	values, err := Clean(testSignature, map[string]any{"q": "x", "self": "ignored", "format": "json"})
	require.NoError(t, err)
	assert.Equal(t, []string{"q"}, values.Names())
}

func TestClean_OrderFollowsSignature(t *testing.T) {
	values, err := Clean(testSignature, map[string]any{
		"pageno":   1,
		"language": "fr",
		"q":        "x",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"q", "language", "pageno"}, values.Names())
}

func TestClean_Deterministic(t *testing.T) {
	raw := map[string]any{
		"q":        "hello world",
		"colours":  EnumList([]colour{green, red}),
		"language": "en",
		"pageno":   1,
		"proxy":    true,
	}

	first, err := Clean(testSignature, raw)
	require.NoError(t, err)
	second, err := Clean(testSignature, raw)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first.Encode(), second.Encode())
}

func TestValues_Encode(t *testing.T) {
	values := Values{
		{Name: "q", Value: "site:github.com searxng"},
		{Name: "categories", Value: "general, news"},
		{Name: "pageno", Value: 2},
		{Name: "image_proxy", Value: true},
		{Name: "tags", Value: []string{"a", "b"}},
	}

	assert.Equal(t,
		"q=site%3Agithub.com+searxng&categories=general%2C+news&pageno=2&image_proxy=true&tags=a&tags=b",
		values.Encode())
}

func TestSignature_Required(t *testing.T) {
	assert.Equal(t, []string{"q"}, testSignature.Required())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "list", KindList.String())
	assert.Equal(t, "kind(42)", Kind(42).String())
}
