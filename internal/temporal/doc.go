// Package temporal converts between calendar values and their wire strings.
//
// A Value may be partial: any of year, month and day may be unknown (zero),
// the time of day may be absent, and the zone offset may be absent (floating
// time). Three encode modes control how the time of day and the offset are
// written:
//
//   - UTCTime converts to UTC and always ends in "Z".
//   - LocalTime writes the wall clock with no offset suffix.
//   - NonZeroTime drops the time of day when it is midnight, otherwise writes
//     the wall clock followed by a numeric offset when that offset is non-zero.
//
// Encode produces the extended ISO 8601 form ("1996-04-15T23:10:00Z"),
// EncodeBasic the vCard 4.0 basic form ("19960415T231000Z") and
// EncodePartial the fixed "YYYY-MM-DD" form with "0000"/"00" placeholders.
// Decode accepts all of them.
package temporal
