// Package jscontact models a JSContact Card and reads and writes it as JSON.
//
// Every repeatable field embeds Meta, which carries the members shared by all
// fields: language, localizations, preference, contexts and the vCard
// parameters that have no JSContact equivalent. Whole vCard properties that
// have no mapping are kept in Card.VCardProps, and values of members this
// package does not model are kept in Card.Extensions, keyed by their path.
package jscontact
