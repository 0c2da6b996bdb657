// Package vcard models vCard property lists and reads and writes their text
// form (RFC 6350, with 3.0 and 2.1 compatibility).
//
// A Card is an ordered list of Property values. Property names are kept in
// upper case, parameter names in lower case; the writer upper-cases both.
// Property values are kept raw, exactly as they appear on the wire after
// unfolding, so structured values can be split by the caller with the
// helpers in escape.go.
package vcard
