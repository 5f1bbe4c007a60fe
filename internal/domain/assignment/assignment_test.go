package assignment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdjust_IncrementFromEmpty(t *testing.T) {
	next := Adjust(map[string]int{}, "item1", +1)
	assert.Equal(t, map[string]int{"item1": 1}, next)
}

func TestAdjust_DecrementToZeroRemovesKey(t *testing.T) {
	next := Adjust(map[string]int{"item1": 1}, "item1", -1)
	assert.Equal(t, map[string]int{}, next)
	assert.NotContains(t, next, "item1")
}

func TestAdjust_DecrementMissingKeyStaysAbsent(t *testing.T) {
	next := Adjust(map[string]int{"other": 2}, "item1", -1)
	assert.Equal(t, map[string]int{"other": 2}, next)
}

func TestAdjust_NilMap(t *testing.T) {
	next := Adjust(nil, "item1", +1)
	assert.Equal(t, map[string]int{"item1": 1}, next)
}

func TestAdjust_DoesNotMutateInput(t *testing.T) {
	current := map[string]int{"item1": 2}
	next := Adjust(current, "item1", +1)

	assert.Equal(t, map[string]int{"item1": 2}, current)
	assert.Equal(t, map[string]int{"item1": 3}, next)
}

func TestAdjust_BoundedSequenceRoundTrips(t *testing.T) {
	// +1 +1 -1 -1 lands back at an empty map, never passing through a
	// stored zero.
	m := map[string]int{}
	m = Adjust(m, "item1", +1)
	m = Adjust(m, "item1", +1)
	assert.Equal(t, 2, m["item1"])
	m = Adjust(m, "item1", -1)
	m = Adjust(m, "item1", -1)
	assert.Empty(t, m)
}

func TestPrune_DropsNonPositiveEntries(t *testing.T) {
	m := Prune(map[string]int{"a": 1, "b": 0, "c": -2})
	assert.Equal(t, map[string]int{"a": 1}, m)
}
