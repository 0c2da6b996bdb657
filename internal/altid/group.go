// Package altid partitions vCard properties into logical fields by their
// ALTID parameter and resolves each group into a primary property plus
// per-language localizations.
package altid

import (
	"fmt"
	"strconv"
	"strings"

	"cardbridge/internal/diagnostic"
	"cardbridge/vcard"
)

// Group is one logical field: the properties sharing an ALTID, or a single
// property without one. Members keep document order.
type Group struct {
	// Key is the ALTID value, empty for singleton groups.
	Key     string
	Members []*vcard.Property
}

// Resolution is a group split into its primary member and localizations.
type Resolution struct {
	Primary *vcard.Property
	// Localizations maps each non-primary member's language tag to it.
	Localizations map[string]*vcard.Property
	// Languages lists the Localizations keys in document order.
	Languages []string
}

// GroupProperties groups props by ALTID, in order of first appearance. When
// spanNames is false a group never mixes property names, so TITLE and ROLE
// sharing ALTID=1 form two groups.
func GroupProperties(props []*vcard.Property, spanNames bool) []Group {
	var groups []Group

	index := make(map[string]int)

	for _, p := range props {
		id := p.AltID()
		if id == "" {
			groups = append(groups, Group{Members: []*vcard.Property{p}})

			continue
		}

		key := id
		if !spanNames {
			key = p.Name + "\x00" + id
		}

		if i, ok := index[key]; ok {
			groups[i].Members = append(groups[i].Members, p)

			continue
		}

		index[key] = len(groups)
		groups = append(groups, Group{Key: id, Members: []*vcard.Property{p}})
	}

	return groups
}

// Resolve selects the primary member of g and indexes the others by
// language. The primary is, in order: the only member whose language matches
// defaultLanguage; else the first member without a LANGUAGE parameter; else
// the first member. A non-primary member without a language, or two
// non-primary members with the same language, cannot be placed and yields an
// error wrapping diagnostic.ErrAmbiguousLocalization.
func Resolve(g Group, defaultLanguage string) (Resolution, error) {
	if len(g.Members) == 0 {
		return Resolution{}, fmt.Errorf("altid %q: empty group: %w", g.Key, diagnostic.ErrMissingRequiredField)
	}

	primary := selectPrimary(g.Members, defaultLanguage)
	res := Resolution{Primary: g.Members[primary]}

	seen := make(map[string]bool)

	for i, m := range g.Members {
		if i == primary {
			continue
		}

		lang := m.Language()
		if lang == "" {
			return Resolution{}, fmt.Errorf("altid %q: %s member %d has no language: %w",
				g.Key, m.Name, i+1, diagnostic.ErrAmbiguousLocalization)
		}

		folded := strings.ToLower(lang)
		if seen[folded] || strings.EqualFold(lang, res.Primary.Language()) {
			return Resolution{}, fmt.Errorf("altid %q: language %q appears twice: %w",
				g.Key, lang, diagnostic.ErrAmbiguousLocalization)
		}

		seen[folded] = true

		if res.Localizations == nil {
			res.Localizations = make(map[string]*vcard.Property)
		}

		res.Localizations[lang] = m
		res.Languages = append(res.Languages, lang)
	}

	return res, nil
}

func selectPrimary(members []*vcard.Property, defaultLanguage string) int {
	if defaultLanguage != "" {
		match := -1

		for i, m := range members {
			if strings.EqualFold(m.Language(), defaultLanguage) {
				if match >= 0 {
					match = -1

					break
				}

				match = i
			}
		}

		if match >= 0 {
			return match
		}
	}

	for i, m := range members {
		if m.Language() == "" {
			return i
		}
	}

	return 0
}

// Allocator hands out fresh ALTID tokens for one record.
type Allocator struct {
	next int
}

// Next returns the next unused token: "1", "2", ...
func (a *Allocator) Next() string {
	a.next++

	return strconv.Itoa(a.next)
}
