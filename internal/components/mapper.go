package components

import (
	"fmt"
	"strings"

	"cardbridge/internal/diagnostic"
	"cardbridge/vcard"
)

// SlotCount returns the number of slots a version supports.
func (l Layout) SlotCount(v vcard.Version) int {
	if v == vcard.V40 {
		return len(l.Slots)
	}

	return l.Base
}

// ToComponents splits a raw structured value into components, in slot
// order. Empty values are skipped. A value with more slots than v allows
// fails with diagnostic.ErrStructuredValueArity. In 2.1 commas are not list
// separators, so each slot yields at most one component.
func (l Layout) ToComponents(raw string, v vcard.Version) ([]Component, error) {
	var slots [][]string
	if v == vcard.V21 {
		for _, s := range vcard.SplitUnescaped(raw, ';') {
			if s == "" {
				slots = append(slots, nil)

				continue
			}

			slots = append(slots, []string{vcard.UnescapeText(s)})
		}
	} else {
		slots = vcard.SplitStructured(raw)
	}

	if n := l.SlotCount(v); len(slots) > n {
		if !allEmpty(slots[n:]) {
			return nil, fmt.Errorf("%s has %d slots, version %s allows %d: %w",
				l.Name, len(slots), v, n, diagnostic.ErrStructuredValueArity)
		}

		slots = slots[:n]
	}

	var out []Component

	for i, values := range slots {
		for _, val := range values {
			if val == "" {
				continue
			}

			out = append(out, Component{Kind: l.Slots[i], Value: val})
		}
	}

	return out, nil
}

// ToRawValue joins components into a raw structured value. Version 4.0 writes
// the base slots plus any extended slot in use; older versions write the base
// slots. Components of the same kind share their slot in input order. In
// 2.1 they are comma-joined without escaping the comma. Separators are
// dropped; unknown kinds and kinds beyond the version's slots fail with
// diagnostic.ErrStructuredValueArity.
func (l Layout) ToRawValue(cs []Component, v vcard.Version) (string, error) {
	n := l.SlotCount(v)
	slots := make([][]string, n)

	for _, c := range cs {
		if c.Kind == Separator {
			continue
		}

		i := l.slot(c.Kind)
		if i < 0 {
			return "", fmt.Errorf("%s: unknown component kind %q: %w", l.Name, c.Kind, diagnostic.ErrStructuredValueArity)
		}

		if i >= n {
			return "", fmt.Errorf("%s: component %q needs slot %d, version %s allows %d: %w",
				l.Name, c.Kind, i+1, v, n, diagnostic.ErrStructuredValueArity)
		}

		slots[i] = append(slots[i], c.Value)
	}

	for len(slots) > l.Base && len(slots[len(slots)-1]) == 0 {
		slots = slots[:len(slots)-1]
	}

	n = len(slots)

	if v != vcard.V21 {
		return vcard.JoinStructured(slots, v), nil
	}

	parts := make([]string, n)
	for i, values := range slots {
		escaped := make([]string, len(values))
		for j, s := range values {
			escaped[j] = vcard.EscapeText(s, v)
		}

		parts[i] = strings.Join(escaped, ",")
	}

	return strings.Join(parts, ";"), nil
}

// Values returns the values of kind k, in order.
func Values(cs []Component, k Kind) []string {
	var out []string

	for _, c := range cs {
		if c.Kind == k {
			out = append(out, c.Value)
		}
	}

	return out
}

// Join returns the non-empty component values joined by sep, skipping
// separators.
func Join(cs []Component, sep string) string {
	var parts []string

	for _, c := range cs {
		if c.Kind != Separator && c.Value != "" {
			parts = append(parts, c.Value)
		}
	}

	return strings.Join(parts, sep)
}

func allEmpty(slots [][]string) bool {
	for _, s := range slots {
		for _, v := range s {
			if v != "" {
				return false
			}
		}
	}

	return true
}
