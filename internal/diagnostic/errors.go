package diagnostic

import "errors"

// Failure kinds. Errors reported by the conversion engine wrap one of these;
// any that do not are reported with CodeUnknown.
var (
	ErrTemporalParse         = errors.New("unparseable date/time")
	ErrAmbiguousLocalization = errors.New("ambiguous localization")
	ErrStructuredValueArity  = errors.New("structured value arity exceeded")
	ErrExtensionEncoding     = errors.New("extension value not encodable")
	ErrMissingRequiredField  = errors.New("missing required field")
	ErrValidation            = errors.New("validation failed")
)

// Codes used in Diagnostic.Code.
const (
	CodeTemporalParse         = "temporal-parse"
	CodeAmbiguousLocalization = "ambiguous-localization"
	CodeStructuredValueArity  = "structured-arity"
	CodeExtensionEncoding     = "extension-encoding"
	CodeMissingRequiredField  = "missing-field"
	CodeValidation            = "validation"
	CodeUnknown               = "error"

	CodeEscaped    = "escaped"
	CodeNormalized = "normalized"
	CodeGenerated  = "generated"
	CodePropID     = "prop-id"
)

var kindCodes = []struct {
	kind error
	code string
}{
	{ErrTemporalParse, CodeTemporalParse},
	{ErrAmbiguousLocalization, CodeAmbiguousLocalization},
	{ErrStructuredValueArity, CodeStructuredValueArity},
	{ErrExtensionEncoding, CodeExtensionEncoding},
	{ErrMissingRequiredField, CodeMissingRequiredField},
	{ErrValidation, CodeValidation},
}

// CodeOf returns the diagnostic code of the failure kind wrapped by err.
func CodeOf(err error) string {
	for _, kc := range kindCodes {
		if errors.Is(err, kc.kind) {
			return kc.code
		}
	}

	return CodeUnknown
}
