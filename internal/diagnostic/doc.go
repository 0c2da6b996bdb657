// Package diagnostic provides the error kinds and structured, field-scoped
// diagnostics produced while converting contact records.
//
// Key capabilities:
//   - Named, errors.Is-comparable failure kinds (temporal parse, ambiguous
//     localization, structured arity, extension encoding, missing field,
//     validation)
//   - Per-record collections of errors, warnings and informational notes,
//     each tagged with the field family it belongs to
//   - Normalization notices explaining why output differs from input
package diagnostic
