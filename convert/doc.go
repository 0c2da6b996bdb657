// Package convert converts contact records between vCard and JSContact.
//
// A conversion runs in stages. Properties are first grouped into logical
// fields by ALTID and each group is split into a primary property and its
// localizations. Each field then receives a stable id, is mapped into the
// destination model, and finally extension values are encoded or decoded.
// A failure is recorded against the field family it happened in; the other
// families still convert and the record is returned as a failed partial
// result.
//
// Converters are immutable after construction and safe for concurrent use.
package convert
