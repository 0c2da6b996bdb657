package convert

import (
	"cardbridge/internal/diagnostic"
	"cardbridge/jscontact"
	"cardbridge/vcard"
)

// Failure kinds, re-exported for callers.
var (
	ErrTemporalParse         = diagnostic.ErrTemporalParse
	ErrAmbiguousLocalization = diagnostic.ErrAmbiguousLocalization
	ErrStructuredValueArity  = diagnostic.ErrStructuredValueArity
	ErrExtensionEncoding     = diagnostic.ErrExtensionEncoding
	ErrMissingRequiredField  = diagnostic.ErrMissingRequiredField
	ErrValidation            = diagnostic.ErrValidation
)

// Result is the outcome of converting one vCard. Card is set only on
// success; on failure Partial holds what did convert and Diagnostics lists
// the field-scoped errors.
type Result struct {
	Card        *jscontact.Card
	Partial     *jscontact.Card
	Diagnostics diagnostic.Diagnostics
	// Stage is the last stage reached.
	Stage Stage
	// Members lists the MEMBER values in preference order.
	Members []string
}

// Failed reports whether the record failed to convert.
func (r Result) Failed() bool {
	return r.Diagnostics.HasErrors()
}

// Err returns the joined field errors, or nil.
func (r Result) Err() error {
	return r.Diagnostics.Error()
}

// VCardResult is the outcome of converting one JSContact card.
type VCardResult struct {
	VCard       *vcard.Card
	Partial     *vcard.Card
	Diagnostics diagnostic.Diagnostics
	Stage       Stage
}

// Failed reports whether the record failed to convert.
func (r VCardResult) Failed() bool {
	return r.Diagnostics.HasErrors()
}

// Err returns the joined field errors, or nil.
func (r VCardResult) Err() error {
	return r.Diagnostics.Error()
}
