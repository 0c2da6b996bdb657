package common

import (
	"cmp"
	"strconv"
	"strings"
)

// NaturalCompare compares strings that end in a decimal number by prefix and
// then numerically, so "ADR-2" sorts before "ADR-10". Other strings compare
// lexically.
func NaturalCompare(a, b string) int {
	pa, na, oka := splitNumericSuffix(a)
	pb, nb, okb := splitNumericSuffix(b)

	if oka && okb && pa == pb {
		if c := cmp.Compare(na, nb); c != 0 {
			return c
		}
	}

	return strings.Compare(a, b)
}

func splitNumericSuffix(s string) (string, int, bool) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}

	if i == len(s) {
		return s, 0, false
	}

	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return s, 0, false
	}

	return s[:i], n, true
}
