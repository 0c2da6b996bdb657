package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardbridge/convert"
	"cardbridge/vcard"
)

func TestParse(t *testing.T) {
	t.Parallel()

	in := `
toJSContact:
  defaultLanguage: it
  useGroupAsId: true
  idProfile:
    - family: adr
      id: home
    - {family: TEL, id: mobile}
toVCard:
  version: "3.0"
  emitIdParameter: false
  autoGenerateAddressLabel: true
`

	f, err := Parse([]byte(in))
	require.NoError(t, err)

	js := f.ToJSContact
	assert.Equal(t, "it", js.DefaultLanguage)
	assert.True(t, js.UseGroupAsID)
	assert.True(t, js.AutoAssignIdsFromProfile, "unset keys keep their defaults")
	assert.Equal(t, "/", js.CustomTimezonePrefix)
	assert.Equal(t, convert.IDProfile{{Family: "ADR", ID: "home"}, {Family: "TEL", ID: "mobile"}}, js.IDProfile, spew.Sdump(js.IDProfile))

	vc := f.ToVCard
	assert.Equal(t, vcard.V30, vc.Version)
	assert.False(t, vc.EmitIDParameter)
	assert.True(t, vc.AutoGenerateAddressLabel)
	assert.True(t, vc.TimezoneAsParam)
	assert.True(t, vc.CoordinatesAsParam)
	assert.True(t, vc.TimezoneAsOffset)
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()

	f, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), f)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		invalid bool
	}{
		{name: "syntax", in: "toVCard: [1, 2"},
		{name: "version", in: "toVCard:\n  version: \"5.0\"\n", invalid: true},
		{name: "profile without id", in: "toJSContact:\n  idProfile:\n    - family: ADR\n", invalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tt.in))
			require.Error(t, err)

			if tt.invalid {
				assert.ErrorIs(t, err, ErrInvalid)
			} else {
				assert.NotErrorIs(t, err, ErrInvalid)
			}
		})
	}
}

func TestWriteFile_LoadFile(t *testing.T) {
	t.Parallel()

	f := Default()
	f.ToJSContact.DefaultLanguage = "en"
	f.ToJSContact.IDProfile = convert.IDProfile{{Family: "EMAIL", ID: "work"}}
	f.ToVCard.Version = vcard.V21

	path := filepath.Join(t.TempDir(), "cardbridge.yaml")
	require.NoError(t, WriteFile(f, path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, f, loaded)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
