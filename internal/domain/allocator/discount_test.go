package allocator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveDiscount_Percentage(t *testing.T) {
	assert.InDelta(t, 100, ResolveDiscount(1000, "10%"), 0.001)
	assert.InDelta(t, 125, ResolveDiscount(1000, "12.5%"), 0.001)
	assert.InDelta(t, 0, ResolveDiscount(0, "10%"), 0.001)
}

func TestResolveDiscount_Absolute(t *testing.T) {
	// Absolute amounts are not scaled by the subtotal.
	assert.InDelta(t, 150, ResolveDiscount(1000, "150"), 0.001)
	assert.InDelta(t, 150, ResolveDiscount(10, "150"), 0.001)
	assert.InDelta(t, 2500.75, ResolveDiscount(100000, "2500.75"), 0.001)
}

func TestResolveDiscount_EmptyIsZero(t *testing.T) {
	assert.Zero(t, ResolveDiscount(1000, ""))
	assert.Zero(t, ResolveDiscount(1000, "   "))
}

func TestResolveDiscount_UnparseableIsZero(t *testing.T) {
	assert.Zero(t, ResolveDiscount(1000, "abc%"))
	assert.Zero(t, ResolveDiscount(1000, "abc"))
	assert.Zero(t, ResolveDiscount(1000, "%"))
	assert.Zero(t, ResolveDiscount(1000, "ten percent"))
}

func TestResolveDiscount_PercentWithTrailingJunk(t *testing.T) {
	// The percentage is the leading numeric prefix; junk after the number
	// is ignored rather than failing the parse.
	assert.InDelta(t, 100, ResolveDiscount(1000, "10 off%"), 0.001)
}

func TestResolveDiscount_NotClamped(t *testing.T) {
	// A discount larger than the subtotal passes through untouched.
	assert.InDelta(t, 5000, ResolveDiscount(1000, "5000"), 0.001)
	assert.InDelta(t, 1500, ResolveDiscount(1000, "150%"), 0.001)
}
