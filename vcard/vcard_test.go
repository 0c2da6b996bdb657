package vcard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "BEGIN:VCARD\r\n" +
	"VERSION:4.0\r\n" +
	"FN:Mario Rossi\r\n" +
	"N:Rossi;Mario;;;\r\n" +
	"item1.ADR;TYPE=work,postal;PREF=1;LABEL=\"Via Roma 1, Milano\";ALTID=1:;;Via Roma 1;Milano;;20100;Italy\r\n" +
	"item1.ADR;ALTID=1;LANGUAGE=it:;;Via Roma 1;Milano;;20100;Italia\r\n" +
	"NOTE:first line\\nsecond\\, with comma and a long long long long long l\r\n" +
	" ong tail\r\n" +
	"TEL;TYPE=\"voice,cell\";VALUE=uri:tel:+39-02-1234\r\n" +
	"END:VCARD\r\n"

func TestParse(t *testing.T) {
	t.Parallel()

	cards, err := ParseString(sample)
	require.NoError(t, err)
	require.Len(t, cards, 1)

	c := cards[0]
	assert.Equal(t, V40, c.Version)
	require.Len(t, c.Properties, 6)

	adr := c.Get("adr")
	require.Len(t, adr, 2)
	assert.Equal(t, "item1", adr[0].Group)
	assert.Equal(t, []string{"work", "postal"}, adr[0].Types())
	assert.Equal(t, "Via Roma 1, Milano", adr[0].Params.Get("LABEL"))
	assert.Equal(t, "1", adr[0].AltID())
	assert.Equal(t, "it", adr[1].Language())

	pref, ok := adr[0].Pref()
	assert.True(t, ok)
	assert.Equal(t, 1, pref)

	note := c.First("NOTE")
	require.NotNil(t, note)
	assert.Equal(t, "first line\nsecond, with comma and a long long long long long long tail", UnescapeText(note.Value))

	tel := c.First("TEL")
	require.NotNil(t, tel)
	assert.Equal(t, []string{"voice", "cell"}, tel.Types())
	assert.Equal(t, "tel:+39-02-1234", tel.Value)
}

func TestParse_Legacy21(t *testing.T) {
	t.Parallel()

	in := "BEGIN:VCARD\r\n" +
		"VERSION:2.1\r\n" +
		"TEL;HOME;VOICE;PREF:555-1234\r\n" +
		"NOTE;ENCODING=QUOTED-PRINTABLE;CHARSET=UTF-8:caf=C3=A9 =\r\n" +
		"line two\r\n" +
		"END:VCARD\r\n"

	cards, err := ParseString(in)
	require.NoError(t, err)
	require.Len(t, cards, 1)

	tel := cards[0].First("TEL")
	require.NotNil(t, tel)
	assert.Equal(t, []string{"home", "voice", "pref"}, tel.Types())

	pref, ok := tel.Pref()
	assert.True(t, ok)
	assert.Equal(t, 1, pref)

	note := cards[0].First("NOTE")
	require.NotNil(t, note)
	assert.Equal(t, "café line two", note.Value)
	assert.False(t, note.Params.Has(ParamEncoding))
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	for _, in := range []string{
		"FN:outside\r\n",
		"BEGIN:VCARD\r\nFN:x\r\n",
		"BEGIN:VCARD\r\nVERSION:5.0\r\nEND:VCARD\r\n",
		"BEGIN:VCARD\r\nno colon here\r\nEND:VCARD\r\n",
		"END:VCARD\r\n",
	} {
		_, err := ParseString(in)
		assert.ErrorIs(t, err, ErrSyntax, in)
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	t.Parallel()

	cards, err := ParseString(sample)
	require.NoError(t, err)

	out, err := Marshal(cards...)
	require.NoError(t, err)

	for _, l := range strings.Split(strings.TrimSuffix(string(out), "\r\n"), "\r\n") {
		assert.LessOrEqual(t, len(l), maxLineOctets, l)
	}

	again, err := Parse(strings.NewReader(string(out)))
	require.NoError(t, err)
	assert.Equal(t, cards, again)
}

func TestWrite_Folding_UTF8(t *testing.T) {
	t.Parallel()

	c := NewCard(V40)
	c.Add(NewProperty("note", strings.Repeat("é", 80)))

	out, err := Marshal(c)
	require.NoError(t, err)

	again, err := ParseString(string(out))
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, strings.Repeat("é", 80), again[0].First("NOTE").Value)
}

func TestWrite_ParamQuotingAndCaret(t *testing.T) {
	t.Parallel()

	p := NewProperty("ADR", ";;Main St;;;;")
	p.Params.Set(ParamLabel, "Main St\nSpringfield, \"USA\"")
	p.Params.Set(ParamType, "home", "pref")

	assert.Equal(t, `ADR;LABEL="Main St^nSpringfield, ^'USA^'";TYPE=home,pref:;;Main St;;;;`, formatProperty(p, V40))

	legacy := NewProperty("TEL", "555-1234")
	legacy.Params.Set(ParamType, "home", "voice")
	assert.Equal(t, "TEL;HOME;VOICE:555-1234", formatProperty(legacy, V21))
}

func TestParams(t *testing.T) {
	t.Parallel()

	var ps Params
	ps.Add("TYPE", "home")
	ps.Add("type", "voice")
	ps.Set("PREF", "1")
	ps.Add("X-A", "1")

	assert.Equal(t, []string{"home", "voice"}, ps.Values("Type"))
	assert.Equal(t, "1", ps.Get("pref"))

	ps.Set("type", "work")
	assert.Equal(t, []string{"work"}, ps.Values("type"))

	clone := ps.Clone()
	ps.Del("pref")
	assert.False(t, ps.Has("pref"))
	assert.True(t, clone.Has("pref"))
}

func TestEscaping(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `a\,b\;c\\d\ne`, EscapeText("a,b;c\\d\ne", V40))
	assert.Equal(t, `a,b\;c`, EscapeText("a,b;c", V21))
	assert.Equal(t, "a,b;c\\d\ne", UnescapeText(`a\,b\;c\\d\ne`))

	assert.Equal(t, []string{`a\;b`, "c", ""}, SplitUnescaped(`a\;b;c;`, ';'))
	assert.Equal(t, [][]string{nil, {"x,y"}, {"1", "2"}}, SplitStructured(`;x\,y;1,2`))
	assert.Equal(t, `;x\,y;1,2`, JoinStructured([][]string{nil, {"x,y"}, {"1", "2"}}, V40))
	assert.Equal(t, []string{"a", "b,c"}, SplitTextList(`a,b\,c`))
	assert.Equal(t, `a,b\,c`, JoinTextList([]string{"a", "b,c"}, V40))
	assert.Equal(t, "x^\n\"", decodeParamValue("x^^^n^'"))
}
