package extension

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardbridge/internal/diagnostic"
)

func TestEncode_Array(t *testing.T) {
	t.Parallel()

	path := MustParsePath("a/b/ext")

	b, err := Encode(path, []any{1, 2})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(b.Text, Envelope))

	parsed, err := ParsePath(b.Path.String())
	require.NoError(t, err)
	assert.True(t, path.Equals(parsed))

	v, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, []any{json.Number("1"), json.Number("2")}, v)

	raw, err := DecodeJSON(b)
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2]`, string(raw))
}

func TestEncode_Scalars(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
		text  string
		back  any
	}{
		{"string", "text", `"text"`, "text"},
		{"string looking like number", "42", `"42"`, "42"},
		{"string with quotes", `say "hi"`, `"say \"hi\""`, `say "hi"`},
		{"true", true, "true", true},
		{"false", false, "false", false},
		{"int", 42, "42", json.Number("42")},
		{"negative int64", int64(-7), "-7", json.Number("-7")},
		{"float", 1.5, "1.5", json.Number("1.5")},
		{"json number", json.Number("3"), "3", json.Number("3")},
		{"integer beyond int64", json.Number("123456789012345678901234567890"), "123456789012345678901234567890", json.Number("123456789012345678901234567890")},
		{"float with trailing zero", json.Number("1.0"), "1.0", json.Number("1.0")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, err := Encode(NewPath("x"), tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.text, b.Text)
			assert.False(t, strings.HasPrefix(b.Text, Envelope))

			v, err := Decode(b)
			require.NoError(t, err)
			assert.Equal(t, tt.back, v)
		})
	}
}

func TestEncode_Errors(t *testing.T) {
	t.Parallel()

	for _, v := range []any{math.NaN(), math.Inf(1), map[string]any{"c": make(chan int)}} {
		_, err := Encode(NewPath("x"), v)
		assert.ErrorIs(t, err, diagnostic.ErrExtensionEncoding)
	}

	_, err := EncodeJSON(NewPath("x"), json.RawMessage(`{bad`))
	assert.ErrorIs(t, err, diagnostic.ErrExtensionEncoding)
}

func TestEncodeJSON(t *testing.T) {
	t.Parallel()

	b, err := EncodeJSON(NewPath("x"), json.RawMessage(`"café"`))
	require.NoError(t, err)
	assert.Equal(t, `"café"`, b.Text)

	b, err = EncodeJSON(NewPath("x"), json.RawMessage(`{"k":[true,null]}`))
	require.NoError(t, err)

	raw, err := DecodeJSON(b)
	require.NoError(t, err)
	assert.JSONEq(t, `{"k":[true,null]}`, string(raw))
}

func TestDecode_Fallbacks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want any
	}{
		{"plain words", "plain words"},
		{"NaN", "NaN"},
		{"True", "True"},
		{`"unterminated`, `"unterminated`},
		{"1e3", json.Number("1e3")},
		{"+5", "+5"},
		{" 7", " 7"},
	}

	for _, tt := range tests {
		v, err := Decode(Binding{Path: NewPath("x"), Text: tt.text})
		require.NoError(t, err)
		assert.Equal(t, tt.want, v, tt.text)
	}

	_, err := Decode(Binding{Path: NewPath("x"), Text: Envelope + "!!"})
	require.ErrorIs(t, err, diagnostic.ErrExtensionEncoding)
}

func TestParsePath(t *testing.T) {
	t.Parallel()

	p, err := ParsePath("addresses/ADR-1/a~1b~0c")
	require.NoError(t, err)
	assert.Equal(t, []string{"addresses", "ADR-1", "a/b~c"}, p.Segments)
	assert.Equal(t, "addresses/ADR-1/a~1b~0c", p.String())
	assert.Equal(t, "addresses", p.Root())
	assert.Equal(t, "a/b~c", p.Leaf())
	assert.True(t, p.Parent().Equals(NewPath("addresses", "ADR-1")))

	for _, bad := range []string{"", "a//b", "/a", "a/", "a~2", "a~"} {
		_, err := ParsePath(bad)
		assert.Error(t, err, bad)
	}
}
