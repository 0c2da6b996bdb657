package convert

import (
	"cardbridge/internal/identity"
	"cardbridge/vcard"
)

// IDProfile fixes the ids of field occurrences; see identity.Profile.
type IDProfile = identity.Profile

// ProfileEntry is one IDProfile entry.
type ProfileEntry = identity.ProfileEntry

// ToJSContactConfig configures vCard to JSContact conversion.
type ToJSContactConfig struct {
	// ExtensionPropertyPrefix namespaces the reserved extension property,
	// e.g. "X-" reads X-JSPROP.
	ExtensionPropertyPrefix string `yaml:"extensionPropertyPrefix"`
	// CustomTimezonePrefix prefixes time zone ids built from offsets that
	// are not whole hours.
	CustomTimezonePrefix string `yaml:"customTimezonePrefix"`
	// ValidateBeforeEmit validates the card before returning it.
	ValidateBeforeEmit bool `yaml:"validateBeforeEmit"`
	// AutoAssignIdsFromProfile enables IDProfile.
	AutoAssignIdsFromProfile bool      `yaml:"autoAssignIdsFromProfile"`
	IDProfile                IDProfile `yaml:"idProfile" validate:"dive"`
	// DefaultLanguage selects the primary member of ALTID groups.
	DefaultLanguage string `yaml:"defaultLanguage"`
	// IgnorePropID disables PROP-ID parameters as id overrides.
	IgnorePropID bool `yaml:"ignorePropId"`
	// UseGroupAsID uses alphanumeric property groups as ids.
	UseGroupAsID bool `yaml:"useGroupAsId"`
}

// DefaultToJSContactConfig returns the default configuration.
func DefaultToJSContactConfig() ToJSContactConfig {
	return ToJSContactConfig{
		CustomTimezonePrefix:     "/",
		AutoAssignIdsFromProfile: true,
	}
}

// ToVCardConfig configures JSContact to vCard conversion.
type ToVCardConfig struct {
	ExtensionPropertyPrefix string `yaml:"extensionPropertyPrefix"`
	ValidateBeforeEmit      bool   `yaml:"validateBeforeEmit"`
	// AutoGenerateAddressLabel writes a LABEL built from the components of
	// addresses that have no full text.
	AutoGenerateAddressLabel bool `yaml:"autoGenerateAddressLabel"`
	// EmitIDParameter writes PROP-ID for map keys a reverse conversion
	// would not generate by itself.
	EmitIDParameter bool `yaml:"emitIdParameter"`
	// TimezoneAsParam writes address time zones as ADR;TZ= instead of a
	// TZ property. 4.0 only.
	TimezoneAsParam bool `yaml:"timezoneAsParam"`
	// CoordinatesAsParam writes coordinates as ADR;GEO= instead of a GEO
	// property. 4.0 only.
	CoordinatesAsParam bool `yaml:"coordinatesAsParam"`
	// TimezoneAsOffset writes Etc/GMT and custom time zones as UTC offsets.
	TimezoneAsOffset     bool          `yaml:"timezoneAsOffset"`
	Version              vcard.Version `yaml:"version" validate:"vcard_version"`
	CustomTimezonePrefix string        `yaml:"customTimezonePrefix"`
}

// DefaultToVCardConfig returns the default configuration.
func DefaultToVCardConfig() ToVCardConfig {
	return ToVCardConfig{
		EmitIDParameter:      true,
		TimezoneAsParam:      true,
		CoordinatesAsParam:   true,
		TimezoneAsOffset:     true,
		Version:              vcard.V40,
		CustomTimezonePrefix: "/",
	}
}
