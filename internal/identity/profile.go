package identity

import "strings"

// ProfileEntry fixes the id of one field occurrence of a family.
type ProfileEntry struct {
	Family string `yaml:"family" validate:"required"`
	ID     string `yaml:"id" validate:"required"`
}

// Profile is an ordered list of fixed ids. Entries of one family are
// consumed positionally: the n-th entry tagged ADR names the n-th address.
type Profile []ProfileEntry

// For returns the fixed ids of family, in order. Family tags match
// case-insensitively.
func (p Profile) For(family string) []string {
	var ids []string

	for _, e := range p {
		if strings.EqualFold(e.Family, family) {
			ids = append(ids, e.ID)
		}
	}

	return ids
}
