package convert

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"cardbridge/internal/diagnostic"
	"cardbridge/jscontact"
	"cardbridge/vcard"
)

func crlf(lines ...string) string {
	return strings.Join(lines, "\r\n") + "\r\n"
}

func parseOne(t *testing.T, text string) *vcard.Card {
	t.Helper()

	cards, err := vcard.ParseString(text)
	require.NoError(t, err)
	require.Len(t, cards, 1)

	return cards[0]
}

func toJS(t *testing.T, cfg ToJSContactConfig, text string) Result {
	t.Helper()

	return NewToJSContact(cfg).Convert(parseOne(t, text))
}

func TestToJSContact_AltIDPrimaryWithoutLanguage(t *testing.T) {
	t.Parallel()

	res := toJS(t, DefaultToJSContactConfig(), crlf(
		"BEGIN:VCARD",
		"VERSION:4.0",
		"UID:urn:uuid:1",
		"FN:Mario Rossi",
		"ADR;ALTID=1:;;Via Roma 1;Milano;;20100;Italy",
		"ADR;ALTID=1;LANGUAGE=it:;;Via Roma 1;Milano;;20100;Italia",
		"END:VCARD",
	))
	require.False(t, res.Failed(), spew.Sdump(res.Diagnostics))
	assert.Equal(t, StageDone, res.Stage)

	require.Len(t, res.Card.Addresses, 1)
	addr := res.Card.Addresses["ADR-1"]
	require.NotNil(t, addr, spew.Sdump(res.Card.Addresses))

	assert.Empty(t, addr.Language)
	assert.Equal(t, []string{"Italy"}, countries(addr.Components))
	require.Contains(t, addr.Localizations, "it")
	require.Len(t, addr.Localizations, 1)

	var it jscontact.Address
	require.NoError(t, json.Unmarshal(addr.Localizations["it"], &it))
	assert.Equal(t, []string{"Italia"}, countries(it.Components))
	assert.Empty(t, it.Language)
	assert.Nil(t, it.VCardParams)
}

func countries(cs []jscontact.Component) []string {
	var out []string

	for _, c := range cs {
		if c.Kind == "country" {
			out = append(out, c.Value)
		}
	}

	return out
}

func TestToJSContact_AmbiguousLocalization(t *testing.T) {
	t.Parallel()

	res := toJS(t, DefaultToJSContactConfig(), crlf(
		"BEGIN:VCARD",
		"VERSION:4.0",
		"UID:urn:uuid:2",
		"FN:Ann",
		"EMAIL:ann@example.com",
		"ADR;ALTID=1:;;One St;;;;",
		"ADR;ALTID=1:;;Two St;;;;",
		"END:VCARD",
	))

	require.True(t, res.Failed())
	assert.Equal(t, StageFailed, res.Stage)
	assert.Nil(t, res.Card)
	require.NotNil(t, res.Partial)
	require.ErrorIs(t, res.Err(), ErrAmbiguousLocalization)
	assert.Equal(t, []string{"addresses"}, res.Diagnostics.Families())

	// other families still convert
	assert.Equal(t, "Ann", res.Partial.Name.Full)
	assert.Len(t, res.Partial.Emails, 1)
	assert.Empty(t, res.Partial.Addresses)
}

func TestToJSContact_DefaultLanguage(t *testing.T) {
	t.Parallel()

	cfg := DefaultToJSContactConfig()
	cfg.DefaultLanguage = "it"

	res := toJS(t, cfg, crlf(
		"BEGIN:VCARD",
		"VERSION:4.0",
		"UID:urn:uuid:3",
		"FN:Ann",
		"TITLE;ALTID=1;LANGUAGE=en:Engineer",
		"TITLE;ALTID=1;LANGUAGE=it:Ingegnere",
		"END:VCARD",
	))
	require.False(t, res.Failed(), spew.Sdump(res.Diagnostics))

	title := res.Card.Titles["TITLE-1"]
	require.NotNil(t, title, spew.Sdump(res.Card.Titles))
	assert.Equal(t, "Ingegnere", title.Name)
	assert.Equal(t, "it", title.Language)
	assert.Equal(t, jscontact.TitleKindTitle, title.Kind)
	assert.JSONEq(t, `{"name":"Engineer","kind":"title"}`, string(title.Localizations["en"]))
}

func TestToJSContact_Identifiers(t *testing.T) {
	t.Parallel()

	in := crlf(
		"BEGIN:VCARD",
		"VERSION:4.0",
		"UID:urn:uuid:4",
		"FN:Ann",
		"EMAIL:second@example.com",
		"EMAIL;PREF=1:first@example.com",
		"EMAIL;PROP-ID=mine:third@example.com",
		"ADR:;;One St;;;;",
		"ADR:;;Two St;;;;",
		"END:VCARD",
	)

	profiled := DefaultToJSContactConfig()
	profiled.IDProfile = IDProfile{{Family: "ADR", ID: "home"}}

	ignoring := DefaultToJSContactConfig()
	ignoring.IgnorePropID = true

	tests := []struct {
		name   string
		cfg    ToJSContactConfig
		emails map[string]string
		adrs   []string
	}{
		{
			name: "defaults",
			cfg:  DefaultToJSContactConfig(),
			emails: map[string]string{
				"EMAIL-1": "first@example.com",
				"EMAIL-2": "second@example.com",
				"mine":    "third@example.com",
			},
			adrs: []string{"ADR-1", "ADR-2"},
		},
		{
			name: "profile",
			cfg:  profiled,
			emails: map[string]string{
				"EMAIL-1": "first@example.com",
				"EMAIL-2": "second@example.com",
				"mine":    "third@example.com",
			},
			adrs: []string{"home", "ADR-2"},
		},
		{
			name: "prop-id ignored",
			cfg:  ignoring,
			emails: map[string]string{
				"EMAIL-1": "first@example.com",
				"EMAIL-2": "second@example.com",
				"EMAIL-3": "third@example.com",
			},
			adrs: []string{"ADR-1", "ADR-2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := toJS(t, tt.cfg, in)
			require.False(t, res.Failed(), spew.Sdump(res.Diagnostics))

			got := make(map[string]string)
			for id, e := range res.Card.Emails {
				got[id] = e.Address
			}

			assert.Equal(t, tt.emails, got)

			for i, id := range tt.adrs {
				require.Contains(t, res.Card.Addresses, id, spew.Sdump(res.Card.Addresses))
				assert.Equal(t, []string{[]string{"One St", "Two St"}[i]}, streets(res.Card.Addresses[id].Components))
			}

			if tt.name == "prop-id ignored" {
				assert.Equal(t, jscontact.ParamValue{"mine"}, res.Card.Emails["EMAIL-3"].VCardParams["prop-id"])
			}
		})
	}
}

func streets(cs []jscontact.Component) []string {
	var out []string

	for _, c := range cs {
		if c.Kind == "street" {
			out = append(out, c.Value)
		}
	}

	return out
}

func TestRoundTrip_VCard(t *testing.T) {
	t.Parallel()

	in := crlf(
		"BEGIN:VCARD",
		"VERSION:4.0",
		"UID:urn:uuid:5",
		"KIND:individual",
		"REV:20240101T120000Z",
		"FN:Mario Rossi",
		"N:Rossi;Mario;;;",
		"EMAIL;TYPE=work;PREF=1:mario@example.com",
		"EMAIL:m@home.example",
		"TEL;TYPE=cell;VALUE=uri:tel:+39-02-1234",
		`ADR;LABEL="Via Roma 1, Milano";TYPE=work:;;Via Roma 1;Milano;;20100;Italy`,
		"BDAY:19800101",
		"BIRTHPLACE:Milano",
		`NOTE:hello\, world`,
		"CATEGORIES:a,b",
		"X-FOO;X-P=1:bar",
		"END:VCARD",
	)

	res := toJS(t, DefaultToJSContactConfig(), in)
	require.False(t, res.Failed(), spew.Sdump(res.Diagnostics))
	assert.Empty(t, res.Diagnostics.Warnings)

	c := res.Card
	assert.Equal(t, "2024-01-01T12:00:00Z", c.Updated)
	assert.Equal(t, "Mario Rossi", c.Name.Full)
	assert.True(t, c.Emails["EMAIL-1"].Contexts["work"])
	assert.True(t, c.Phones["PHONE-1"].Features["mobile"])
	assert.Equal(t, "Via Roma 1, Milano", c.Addresses["ADR-1"].Full)
	assert.Equal(t, "Milano", c.Anniversaries["ANNIVERSARY-1"].Place.Full)
	assert.Equal(t, "hello, world", c.Notes["NOTE-1"].Note)
	assert.Equal(t, map[string]bool{"a": true, "b": true}, c.Keywords)
	require.Len(t, c.VCardProps, 1)
	assert.Equal(t, "x-foo", c.VCardProps[0].Name)

	back := NewToVCard(DefaultToVCardConfig()).Convert(c)
	require.False(t, back.Failed(), spew.Sdump(back.Diagnostics))

	out, err := vcard.Marshal(back.VCard)
	require.NoError(t, err)
	assert.Equal(t, in, string(out))
}

func TestRoundTrip_JSContact(t *testing.T) {
	t.Parallel()

	in := `{
		"@type": "Card", "version": "1.0", "uid": "urn:uuid:6",
		"name": {"full": "Ann Lee"},
		"emails": {"e1": {"address": "ann@example.com", "contexts": {"private": true}}},
		"phones": {"PHONE-1": {"number": "tel:+1-555", "features": {"mobile": true}}},
		"anniversaries": {"ANNIVERSARY-1": {
			"kind": "wedding",
			"date": {"@type": "PartialDate", "year": 2010, "month": 6, "day": 12},
			"place": {"full": "Rome"}
		}},
		"example.com:foo": {"bar": [1, 2]}
	}`

	card, err := jscontact.Unmarshal([]byte(in))
	require.NoError(t, err)

	res := NewToVCard(DefaultToVCardConfig()).Convert(card)
	require.False(t, res.Failed(), spew.Sdump(res.Diagnostics))

	email := res.VCard.First("EMAIL")
	require.NotNil(t, email)
	assert.Equal(t, "e1", email.Params.Get("prop-id"))
	assert.Equal(t, []string{"home"}, email.Types())
	assert.Empty(t, res.VCard.First("TEL").Params.Get("prop-id"))
	require.Len(t, res.Diagnostics.Infos, 1, spew.Sdump(res.Diagnostics))
	assert.Equal(t, diagnostic.CodePropID, res.Diagnostics.Infos[0].Code)
	assert.Equal(t, "e1", res.Diagnostics.Infos[0].FieldPath)
	assert.Len(t, res.VCard.Get("JSPROP"), 2)

	text, err := vcard.Marshal(res.VCard)
	require.NoError(t, err)

	again := toJS(t, DefaultToJSContactConfig(), string(text))
	require.False(t, again.Failed(), spew.Sdump(again.Diagnostics))

	want, err := jscontact.Marshal(card)
	require.NoError(t, err)

	got, err := jscontact.Marshal(again.Card)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got), string(text))
}

func TestToVCard_Versions(t *testing.T) {
	t.Parallel()

	res := toJS(t, DefaultToJSContactConfig(), crlf(
		"BEGIN:VCARD",
		"VERSION:3.0",
		"UID:urn:uuid:7",
		"FN:Ann Lee",
		"N:Lee;Ann;;;",
		"TEL;TYPE=HOME,VOICE,PREF:555-1234",
		"BDAY:1980-01-02",
		"GEO:40.7;-74.0",
		"END:VCARD",
	))
	require.False(t, res.Failed(), spew.Sdump(res.Diagnostics))

	phone := res.Card.Phones["PHONE-1"]
	require.NotNil(t, phone)
	assert.Equal(t, 1, phone.Pref)
	assert.True(t, phone.Contexts["private"])
	assert.True(t, phone.Features["voice"])
	assert.Equal(t, "geo:40.7,-74.0", res.Card.Addresses["ADR-1"].Coordinates)

	tests := []struct {
		version vcard.Version
		tel     string
		bday    string
		geo     string
	}{
		{vcard.V40, "TEL;TYPE=home,voice;PREF=1:555-1234", "BDAY:19800102", ""},
		{vcard.V30, "TEL;TYPE=home,voice,pref:555-1234", "BDAY:1980-01-02", "GEO:40.7;-74.0"},
		{vcard.V21, "TEL;HOME;VOICE;PREF:555-1234", "BDAY:1980-01-02", "GEO:40.7;-74.0"},
	}

	for _, tt := range tests {
		t.Run(string(tt.version), func(t *testing.T) {
			t.Parallel()

			cfg := DefaultToVCardConfig()
			cfg.Version = tt.version

			out := NewToVCard(cfg).Convert(res.Card)
			require.False(t, out.Failed(), spew.Sdump(out.Diagnostics))

			text, err := vcard.Marshal(out.VCard)
			require.NoError(t, err)

			lines := strings.Split(string(text), "\r\n")
			assert.Contains(t, lines, tt.tel)
			assert.Contains(t, lines, tt.bday)
			assert.Contains(t, lines, "N:Lee;Ann;;;")

			if tt.geo != "" {
				assert.Contains(t, lines, tt.geo)
			} else {
				assert.Equal(t, "geo:40.7,-74.0", out.VCard.First("ADR").Params.Get("geo"))
			}
		})
	}
}

func TestToJSContact_GeoAndTimeZone(t *testing.T) {
	t.Parallel()

	res := toJS(t, DefaultToJSContactConfig(), crlf(
		"BEGIN:VCARD",
		"VERSION:4.0",
		"UID:urn:uuid:8",
		"FN:Ann",
		"ADR;TYPE=home:;;Main St;Springfield;;;",
		"ADR;TYPE=work;PREF=1:;;Office Rd;Capital;;;",
		"TZ;VALUE=utc-offset:-0500",
		"GEO:geo:40.7,-74.0",
		"item2.TZ:Europe/Rome",
		"item2.ADR:;;Via Roma 1;Milano;;;",
		"END:VCARD",
	))
	require.False(t, res.Failed(), spew.Sdump(res.Diagnostics))

	addrs := res.Card.Addresses
	require.Len(t, addrs, 3, spew.Sdump(addrs))

	work := addrs["ADR-1"]
	assert.Equal(t, []string{"Office Rd"}, streets(work.Components))
	assert.Equal(t, "Etc/GMT+5", work.TimeZone)
	assert.Equal(t, "geo:40.7,-74.0", work.Coordinates)

	assert.Empty(t, addrs["ADR-2"].TimeZone)
	assert.Equal(t, "Europe/Rome", addrs["ADR-3"].TimeZone)

	out := NewToVCard(DefaultToVCardConfig()).Convert(res.Card)
	require.False(t, out.Failed(), spew.Sdump(out.Diagnostics))

	first := out.VCard.First("ADR")
	assert.Equal(t, "-0500", first.Params.Get("tz"))
	assert.Equal(t, "geo:40.7,-74.0", first.Params.Get("geo"))
	assert.Nil(t, out.VCard.First("TZ"))

	cfg := DefaultToVCardConfig()
	cfg.TimezoneAsParam = false
	cfg.CoordinatesAsParam = false

	out = NewToVCard(cfg).Convert(res.Card)
	require.False(t, out.Failed(), spew.Sdump(out.Diagnostics))

	tz := out.VCard.Get("TZ")
	require.Len(t, tz, 2)
	assert.Equal(t, "-0500", tz[0].Value)
	assert.Equal(t, "utc-offset", tz[0].Params.Get("value"))
	assert.Equal(t, out.VCard.First("ADR").Group, tz[0].Group)
	assert.NotEmpty(t, tz[0].Group)
}

func TestToJSContact_KeptVerbatim(t *testing.T) {
	t.Parallel()

	res := toJS(t, DefaultToJSContactConfig(), crlf(
		"BEGIN:VCARD",
		"VERSION:4.0",
		"UID:urn:uuid:9",
		"FN:Ann",
		"BDAY;VALUE=text:circa 1800",
		"CATEGORIES;PREF=1:x",
		"DEATHPLACE:Nowhere",
		"END:VCARD",
	))
	require.False(t, res.Failed(), spew.Sdump(res.Diagnostics))
	assert.Empty(t, res.Card.Anniversaries)
	assert.Empty(t, res.Card.Keywords)

	var names []string
	for _, p := range res.Card.VCardProps {
		names = append(names, p.Name)
	}

	assert.Equal(t, []string{"bday", "categories", "deathplace"}, names)
	assert.Equal(t, "text", res.Card.VCardProps[0].ValueType)

	back := NewToVCard(DefaultToVCardConfig()).Convert(res.Card)
	require.False(t, back.Failed(), spew.Sdump(back.Diagnostics))
	assert.Equal(t, "circa 1800", back.VCard.First("BDAY").Value)
	assert.Equal(t, "text", back.VCard.First("BDAY").Params.Get("value"))
}

func TestToJSContact_FloatingDateTime(t *testing.T) {
	t.Parallel()

	res := toJS(t, DefaultToJSContactConfig(), crlf(
		"BEGIN:VCARD",
		"VERSION:4.0",
		"UID:urn:uuid:f",
		"FN:Ann",
		"BDAY:19900101T103000",
		"ANNIVERSARY:20100612T100000Z",
		"REV:20200101T000000",
		"END:VCARD",
	))
	require.False(t, res.Failed(), spew.Sdump(res.Diagnostics))

	require.Len(t, res.Card.Anniversaries, 1, spew.Sdump(res.Card.Anniversaries))
	for _, a := range res.Card.Anniversaries {
		assert.Equal(t, "wedding", a.Kind)
		assert.Equal(t, "2010-06-12T10:00:00Z", a.Date.UTC)
	}

	require.Len(t, res.Card.VCardProps, 1)
	assert.Equal(t, "bday", res.Card.VCardProps[0].Name)

	assert.Equal(t, "2020-01-01T00:00:00Z", res.Card.Updated)
	require.Len(t, res.Diagnostics.Warnings, 1, spew.Sdump(res.Diagnostics))
	assert.Equal(t, diagnostic.CodeNormalized, res.Diagnostics.Warnings[0].Code)
	assert.Equal(t, "updated", res.Diagnostics.Warnings[0].FieldPath)

	back := NewToVCard(DefaultToVCardConfig()).Convert(res.Card)
	require.False(t, back.Failed(), spew.Sdump(back.Diagnostics))
	assert.Equal(t, "19900101T103000", back.VCard.First("BDAY").Value)
	assert.Equal(t, "20100612T100000Z", back.VCard.First("ANNIVERSARY").Value)
}

func TestToJSContact_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		lines  []string
		kind   error
		family string
	}{
		{"bad date", []string{"BDAY:circa 1800"}, ErrTemporalParse, "anniversaries"},
		{"bad timestamp", []string{"REV:yesterday"}, ErrTemporalParse, "card"},
		{"too many name slots", []string{"N:a;b;c;d;e;f;g;h"}, ErrStructuredValueArity, "name"},
		{"legacy address slots", []string{"ADR:;;;;;;;;x"}, ErrStructuredValueArity, "addresses"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			version := "4.0"
			if tt.family == "addresses" {
				version = "3.0"
			}

			lines := append([]string{"BEGIN:VCARD", "VERSION:" + version, "UID:urn:uuid:f", "FN:Ann"}, tt.lines...)
			res := toJS(t, DefaultToJSContactConfig(), crlf(append(lines, "END:VCARD")...))

			require.True(t, res.Failed())
			require.ErrorIs(t, res.Err(), tt.kind, spew.Sdump(res.Diagnostics))
			assert.Equal(t, []string{tt.family}, res.Diagnostics.Families())
			require.NotNil(t, res.Partial)
			assert.Equal(t, "Ann", res.Partial.Name.Full)
		})
	}
}

func TestToJSContact_GeneratedUID(t *testing.T) {
	t.Parallel()

	in := crlf("BEGIN:VCARD", "VERSION:4.0", "FN:Ann", "END:VCARD")

	a := toJS(t, DefaultToJSContactConfig(), in)
	b := toJS(t, DefaultToJSContactConfig(), in)

	require.False(t, a.Failed())
	assert.True(t, strings.HasPrefix(a.Card.UID, "urn:uuid:"))
	assert.Equal(t, a.Card.UID, b.Card.UID)
	require.Len(t, a.Diagnostics.Warnings, 1)
	assert.Equal(t, diagnostic.CodeGenerated, a.Diagnostics.Warnings[0].Code)
}

func TestConvert_Deterministic(t *testing.T) {
	t.Parallel()

	in := crlf(
		"BEGIN:VCARD",
		"VERSION:4.0",
		"FN:Ann",
		"EMAIL:a@example.com",
		"EMAIL;PREF=3:b@example.com",
		"EMAIL;PREF=2:c@example.com",
		"NOTE;LANGUAGE=en;ALTID=n:note",
		"NOTE;LANGUAGE=de;ALTID=n:Notiz",
		"X-A:1",
		"JSPROP;JSPTR=a/b:7",
		"END:VCARD",
	)

	var outs []string

	for range 3 {
		res := toJS(t, DefaultToJSContactConfig(), in)
		require.False(t, res.Failed(), spew.Sdump(res.Diagnostics))

		js, err := jscontact.Marshal(res.Card)
		require.NoError(t, err)

		vc := NewToVCard(DefaultToVCardConfig()).Convert(res.Card)
		require.False(t, vc.Failed(), spew.Sdump(vc.Diagnostics))

		text, err := vcard.Marshal(vc.VCard)
		require.NoError(t, err)

		outs = append(outs, string(js)+string(text))
	}

	assert.Equal(t, outs[0], outs[1])
	assert.Equal(t, outs[0], outs[2])
}

func TestToVCard_Localizations(t *testing.T) {
	t.Parallel()

	card, err := jscontact.Unmarshal([]byte(`{
		"@type": "Card", "version": "1.0", "uid": "urn:uuid:l",
		"name": {
			"components": [{"kind": "surname", "value": "Lee"}, {"kind": "given", "value": "Ann"}],
			"localizations": {"ja": {"components": [{"kind": "surname", "value": "李"}], "full": "李 安"}}
		},
		"titles": {"TITLE-1": {"name": "Engineer", "localizations": {"it": {"name": "Ingegnere"}}}}
	}`))
	require.NoError(t, err)

	res := NewToVCard(DefaultToVCardConfig()).Convert(card)
	require.False(t, res.Failed(), spew.Sdump(res.Diagnostics))
	require.Len(t, res.Diagnostics.Warnings, 1)
	assert.Equal(t, diagnostic.CodeGenerated, res.Diagnostics.Warnings[0].Code)

	fn := res.VCard.Get("FN")
	require.Len(t, fn, 2)
	assert.Equal(t, "Ann Lee", fn[0].Value)
	assert.Equal(t, "李 安", fn[1].Value)
	assert.Equal(t, "ja", fn[1].Language())
	assert.Equal(t, fn[0].AltID(), fn[1].AltID())

	n := res.VCard.Get("N")
	require.Len(t, n, 2)
	assert.Equal(t, fn[0].AltID(), n[1].AltID())

	titles := res.VCard.Get("TITLE")
	require.Len(t, titles, 2)
	assert.Equal(t, "it", titles[1].Language())
	assert.NotEqual(t, fn[0].AltID(), titles[0].AltID())
	assert.Equal(t, titles[0].AltID(), titles[1].AltID())

	back := toJS(t, DefaultToJSContactConfig(), string(mustMarshal(t, res.VCard)))
	require.False(t, back.Failed(), spew.Sdump(back.Diagnostics))
	assert.Equal(t, "Ann Lee", back.Card.Name.Full)
	assert.JSONEq(t, `{"components":[{"kind":"surname","value":"李"}],"full":"李 安"}`,
		string(back.Card.Name.Localizations["ja"]))
	assert.JSONEq(t, `{"name":"Ingegnere","kind":"title"}`, string(back.Card.Titles["TITLE-1"].Localizations["it"]))
}

func TestToVCard_LocalizedCompanions(t *testing.T) {
	t.Parallel()

	card, err := jscontact.Unmarshal([]byte(`{
		"@type": "Card", "version": "1.0", "uid": "urn:uuid:lc",
		"name": {"full": "Mario Rossi"},
		"addresses": {"ADR-1": {
			"components": [{"kind": "locality", "value": "Rome"}],
			"localizations": {"it": {
				"components": [{"kind": "locality", "value": "Roma"}],
				"timeZone": "Europe/Berlin", "coordinates": "geo:1,2"
			}}
		}},
		"anniversaries": {"ANNIVERSARY-1": {
			"kind": "birth",
			"date": {"@type": "PartialDate", "year": 1980, "month": 1, "day": 2},
			"place": {"full": "Rome"},
			"localizations": {"it": {
				"kind": "birth",
				"date": {"@type": "PartialDate", "year": 1980, "month": 1, "day": 2},
				"place": {"full": "Roma"}
			}}
		}}
	}`))
	require.NoError(t, err)

	v30 := DefaultToVCardConfig()
	v30.Version = vcard.V30

	v40 := DefaultToVCardConfig()
	v40.TimezoneAsParam = false
	v40.CoordinatesAsParam = false

	tests := []struct {
		name string
		cfg  ToVCardConfig
	}{
		{"3.0", v30},
		{"4.0 without address parameters", v40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := NewToVCard(tt.cfg).Convert(card)
			require.False(t, res.Failed(), spew.Sdump(res.Diagnostics))

			// companions of a localization never become standalone properties
			assert.Nil(t, res.VCard.First("TZ"))
			assert.Nil(t, res.VCard.First("GEO"))
			assert.Len(t, res.VCard.Get("BIRTHPLACE"), 1)
			assert.Len(t, res.VCard.Get("JSPROP"), 3)

			text := mustMarshal(t, res.VCard)

			back := toJS(t, DefaultToJSContactConfig(), string(text))
			require.False(t, back.Failed(), spew.Sdump(back.Diagnostics))
			assert.Empty(t, back.Card.Extensions)

			addr := back.Card.Addresses["ADR-1"]
			require.NotNil(t, addr, string(text))
			assert.Empty(t, addr.TimeZone)

			it := gjson.ParseBytes(addr.Localizations["it"])
			assert.Equal(t, "Europe/Berlin", it.Get("timeZone").String(), it.Raw)
			assert.Equal(t, "geo:1,2", it.Get("coordinates").String(), it.Raw)
			assert.Equal(t, "Roma", it.Get("components.0.value").String(), it.Raw)

			bday := back.Card.Anniversaries["ANNIVERSARY-1"]
			require.NotNil(t, bday, string(text))
			require.NotNil(t, bday.Place)
			assert.Equal(t, "Rome", bday.Place.Full)
			assert.Equal(t, "Roma", gjson.GetBytes(bday.Localizations["it"], "place.full").String())
		})
	}
}

func mustMarshal(t *testing.T, c *vcard.Card) []byte {
	t.Helper()

	b, err := vcard.Marshal(c)
	require.NoError(t, err)

	return b
}

func TestToVCard_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		json string
		kind error
	}{
		{"no name", `{"@type":"Card","version":"1.0","uid":"x"}`, ErrMissingRequiredField},
		{
			"unknown kind",
			`{"@type":"Card","version":"1.0","uid":"x","name":{"full":"A"},"media":{"m":{"kind":"avatar","uri":"u"}}}`,
			ErrValidation,
		},
		{
			"bad timestamp",
			`{"@type":"Card","version":"1.0","uid":"x","name":{"full":"A"},"updated":"soon"}`,
			ErrTemporalParse,
		},
		{
			"bad field localization",
			`{"@type":"Card","version":"1.0","uid":"x","name":{"full":"A"},"titles":{"t":{"name":"B","localizations":{"it":[1]}}}}`,
			ErrValidation,
		},
		{
			"bad name localization",
			`{"@type":"Card","version":"1.0","uid":"x","name":{"full":"A","localizations":{"it":"A"}}}`,
			ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			card, err := jscontact.Unmarshal([]byte(tt.json))
			require.NoError(t, err)

			res := NewToVCard(DefaultToVCardConfig()).Convert(card)
			require.True(t, res.Failed())
			assert.Equal(t, StageFailed, res.Stage)
			require.NotNil(t, res.Partial)
			assert.ErrorIs(t, res.Err(), tt.kind, spew.Sdump(res.Diagnostics))

			for _, e := range res.Diagnostics.Errors {
				assert.NotEqual(t, diagnostic.CodeUnknown, e.Code, e.String())
			}
		})
	}

	card, err := jscontact.Unmarshal([]byte(`{"@type":"Card","version":"1.0","uid":"x","name":{"full":"A"}}`))
	require.NoError(t, err)

	cfg := DefaultToVCardConfig()
	cfg.Version = vcard.V30
	cfg.ValidateBeforeEmit = true

	res := NewToVCard(cfg).Convert(card)
	require.False(t, res.Failed(), spew.Sdump(res.Diagnostics))
	assert.NotNil(t, res.VCard.First("N"))
}

func TestConvertBatch_Members(t *testing.T) {
	t.Parallel()

	cards, err := vcard.ParseString(crlf(
		"BEGIN:VCARD", "VERSION:4.0", "UID:urn:uuid:a", "FN:A", "END:VCARD",
		"BEGIN:VCARD", "VERSION:4.0", "UID:urn:uuid:g", "KIND:group", "FN:G",
		"MEMBER;PREF=2:urn:uuid:a",
		"MEMBER;PREF=1:urn:uuid:b",
		"MEMBER:urn:uuid:missing",
		"END:VCARD",
		"BEGIN:VCARD", "VERSION:4.0", "UID:urn:uuid:b", "FN:B", "END:VCARD",
		"BEGIN:VCARD", "VERSION:4.0", "UID:urn:uuid:bad", "FN:X", "BDAY:never", "END:VCARD",
	))
	require.NoError(t, err)

	batch := NewToJSContact(DefaultToJSContactConfig()).ConvertBatch(cards)
	require.Len(t, batch.Results, 4)
	assert.Equal(t, 1, batch.Failed())

	assert.Equal(t, []Edge{
		{Group: "urn:uuid:g", Member: "urn:uuid:b", Pref: 1, Index: 2},
		{Group: "urn:uuid:g", Member: "urn:uuid:a", Pref: 2, Index: 0},
		{Group: "urn:uuid:g", Member: "urn:uuid:missing", Pref: 3, Index: -1},
	}, batch.Edges, spew.Sdump(batch.Edges))
	assert.False(t, batch.Edges[2].Resolved())

	group := batch.Results[1].Card
	assert.Equal(t, "group", group.Kind)
	assert.Len(t, group.Members, 3)

	out := NewToVCard(DefaultToVCardConfig()).ConvertBatch([]*jscontact.Card{group, nil})
	require.Len(t, out, 2)
	assert.False(t, out[0].Failed())
	assert.Len(t, out[0].VCard.Get("MEMBER"), 3)
	assert.True(t, out[1].Failed())
}
