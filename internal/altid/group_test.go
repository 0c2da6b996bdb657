package altid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardbridge/internal/diagnostic"
	"cardbridge/vcard"
)

func prop(name, value, altid, lang string) *vcard.Property {
	p := vcard.NewProperty(name, value)
	if altid != "" {
		p.Params.Set(vcard.ParamAltID, altid)
	}

	if lang != "" {
		p.Params.Set(vcard.ParamLanguage, lang)
	}

	return p
}

func TestGroupProperties(t *testing.T) {
	t.Parallel()

	a := prop("TITLE", "Boss", "1", "")
	b := prop("TITLE", "Capo", "1", "it")
	c := prop("TITLE", "Lone", "", "")
	d := prop("ROLE", "Leader", "1", "")

	groups := GroupProperties([]*vcard.Property{a, c, b, d}, false)
	require.Len(t, groups, 3)
	assert.Equal(t, []*vcard.Property{a, b}, groups[0].Members)
	assert.Equal(t, "1", groups[0].Key)
	assert.Equal(t, []*vcard.Property{c}, groups[1].Members)
	assert.Empty(t, groups[1].Key)
	assert.Equal(t, []*vcard.Property{d}, groups[2].Members)

	spanning := GroupProperties([]*vcard.Property{a, c, b, d}, true)
	require.Len(t, spanning, 2)
	assert.Equal(t, []*vcard.Property{a, b, d}, spanning[0].Members)
}

func TestResolve_DefaultLanguage(t *testing.T) {
	t.Parallel()

	en := prop("ADR", "en", "1", "en")
	it := prop("ADR", "it", "1", "it")
	none := prop("ADR", "none", "1", "")
	g := Group{Key: "1", Members: []*vcard.Property{en, it, none}}

	// the language-less member cannot become a localization
	_, err := Resolve(g, "it")
	require.Error(t, err)
	assert.ErrorIs(t, err, diagnostic.ErrAmbiguousLocalization)

	// without it, "it" is primary and "en" is its localization
	res, err := Resolve(Group{Key: "1", Members: []*vcard.Property{en, it}}, "IT")
	require.NoError(t, err)
	assert.Same(t, it, res.Primary)
	assert.Equal(t, map[string]*vcard.Property{"en": en}, res.Localizations)
}

func TestResolve_Rules(t *testing.T) {
	t.Parallel()

	en := prop("NOTE", "en", "1", "en")
	it := prop("NOTE", "it", "1", "it")
	none := prop("NOTE", "none", "1", "")
	de := prop("NOTE", "de", "1", "de")
	de2 := prop("NOTE", "de", "1", "DE")

	tests := []struct {
		name     string
		members  []*vcard.Property
		lang     string
		primary  *vcard.Property
		langs    []string
		wantFail bool
	}{
		{name: "no language wins", members: []*vcard.Property{en, none, it}, primary: none, langs: []string{"en", "it"}},
		{name: "first member fallback", members: []*vcard.Property{it, en}, primary: it, langs: []string{"en"}},
		{name: "default without match", members: []*vcard.Property{en, none}, lang: "fr", primary: none, langs: []string{"en"}},
		{name: "ambiguous default ignored", members: []*vcard.Property{de, it, de2}, lang: "de", wantFail: true},
		{name: "singleton", members: []*vcard.Property{en}, primary: en},
		{name: "two without language", members: []*vcard.Property{none, prop("NOTE", "x", "1", "")}, wantFail: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := Resolve(Group{Key: "1", Members: tt.members}, tt.lang)
			if tt.wantFail {
				assert.ErrorIs(t, err, diagnostic.ErrAmbiguousLocalization)

				return
			}

			require.NoError(t, err)
			assert.Same(t, tt.primary, res.Primary)
			assert.Equal(t, tt.langs, res.Languages)
		})
	}
}

func TestAllocator(t *testing.T) {
	t.Parallel()

	var a Allocator
	assert.Equal(t, "1", a.Next())
	assert.Equal(t, "2", a.Next())
}

func TestResolve_EmptyGroup(t *testing.T) {
	t.Parallel()

	_, err := Resolve(Group{Key: "1"}, "")
	require.ErrorIs(t, err, diagnostic.ErrMissingRequiredField)
	assert.Equal(t, diagnostic.CodeMissingRequiredField, diagnostic.CodeOf(err))
}
