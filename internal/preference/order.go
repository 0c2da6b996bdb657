// Package preference orders alternative field instances by their numeric
// preference (1 is most preferred, 100 least).
package preference

import (
	"slices"

	"cardbridge/utils"
)

// Valid bounds of a preference value.
const (
	Min = 1
	Max = 100
)

// IsValid reports whether p lies in [Min, Max].
func IsValid(p int) bool {
	return utils.IsInRange(Min, p, Max)
}

// Order returns a new slice with items sorted ascending by preference.
// Items without a valid preference come after all items with one. The sort
// is stable: ties keep their input order.
func Order[T any](items []T, prefOf func(T) (int, bool)) []T {
	out := slices.Clone(items)

	slices.SortStableFunc(out, func(a, b T) int {
		pa, oka := prefOf(a)
		pb, okb := prefOf(b)

		return compare(pa, oka, pb, okb)
	})

	return out
}

// Indexes returns the positions of items in preference order.
func Indexes[T any](items []T, prefOf func(T) (int, bool)) []int {
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}

	slices.SortStableFunc(idx, func(a, b int) int {
		pa, oka := prefOf(items[a])
		pb, okb := prefOf(items[b])

		return compare(pa, oka, pb, okb)
	})

	return idx
}

func compare(pa int, oka bool, pb int, okb bool) int {
	oka = oka && IsValid(pa)
	okb = okb && IsValid(pb)

	switch {
	case oka && okb:
		return pa - pb
	case oka:
		return -1
	case okb:
		return 1
	default:
		return 0
	}
}
