// Package identity assigns stable map keys to the repeatable fields of one
// record family.
package identity

import (
	"strconv"

	"cardbridge/internal/preference"
)

// Source tells which rule produced an id.
type Source int

const (
	SourceGenerated Source = iota
	SourcePropID
	SourceProfile
	SourceGroup
)

func (s Source) String() string {
	switch s {
	case SourceGenerated:
		return "generated"
	case SourcePropID:
		return "prop-id"
	case SourceProfile:
		return "profile"
	case SourceGroup:
		return "group"
	default:
		return "unknown"
	}
}

// Field is what the assigner needs to know about one logical field.
type Field struct {
	// PropID is the explicit override carried by the source property.
	PropID string
	// Group is the property group token.
	Group   string
	Pref    int
	HasPref bool
}

// Assignment is the id given to one field and the rule that produced it.
type Assignment struct {
	ID     string
	Source Source
}

// Options controls which rules apply.
type Options struct {
	// HonorPropID enables explicit overrides.
	HonorPropID bool
	// Profile holds fixed ids consumed by field ordinal in document order.
	Profile []string
	// UseGroup enables alphanumeric group tokens as ids.
	UseGroup bool
}

// Assign returns one id per field, in input order. Rules apply by
// precedence: explicit override, profile entry, group token, then a
// generated "<prefix>-N" where N is the field's 1-based rank in preference
// order, moved past numbers another rule already took. Ids are unique within
// the returned slice.
func Assign(prefix string, fields []Field, opts Options) []Assignment {
	out := make([]Assignment, len(fields))
	assigned := make([]bool, len(fields))
	used := make(map[string]bool, len(fields))

	take := func(i int, id string, src Source) {
		if assigned[i] || id == "" || used[id] {
			return
		}

		out[i] = Assignment{ID: id, Source: src}
		assigned[i] = true
		used[id] = true
	}

	if opts.HonorPropID {
		for i, f := range fields {
			take(i, f.PropID, SourcePropID)
		}
	}

	for i := range fields {
		if i < len(opts.Profile) {
			take(i, opts.Profile[i], SourceProfile)
		}
	}

	if opts.UseGroup {
		for i, f := range fields {
			if isAlphanumeric(f.Group) {
				take(i, f.Group, SourceGroup)
			}
		}
	}

	order := preference.Indexes(fields, func(f Field) (int, bool) { return f.Pref, f.HasPref })

	for rank, i := range order {
		if assigned[i] {
			continue
		}

		n := rank + 1
		for used[Generated(prefix, n)] {
			n++
		}

		take(i, Generated(prefix, n), SourceGenerated)
	}

	return out
}

// Generated returns the generated id "<prefix>-<n>".
func Generated(prefix string, n int) string {
	return prefix + "-" + strconv.Itoa(n)
}

func isAlphanumeric(s string) bool {
	if s == "" {
		return false
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}

	return true
}
