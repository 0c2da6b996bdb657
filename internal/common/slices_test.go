package common

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSliceHelpers(t *testing.T) {
	t.Parallel()

	assert.True(t, IsEmpty([]int(nil)))
	assert.True(t, IsSingle([]int{1}))
	assert.True(t, IsMultiple([]int{1, 2}))

	v, ok := First([]string{"a", "b"})
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	_, ok = First([]string{})
	assert.False(t, ok)
}

func TestSortedKeys(t *testing.T) {
	t.Parallel()

	keys := SortedKeys(map[string]int{"b": 1, "a": 2, "c": 3})
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestNaturalCompare(t *testing.T) {
	t.Parallel()

	keys := []string{"ADR-10", "home", "ADR-2", "ADR-1", "A"}
	slices.SortFunc(keys, NaturalCompare)
	assert.Equal(t, []string{"A", "ADR-1", "ADR-2", "ADR-10", "home"}, keys)
	assert.Negative(t, NaturalCompare("x9", "x10"))
	assert.Positive(t, NaturalCompare("b1", "a2"))
}
