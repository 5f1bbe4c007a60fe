package allocator

import (
	"strconv"
	"strings"
)

// ResolveDiscount parses a discount specifier against a subtotal and returns
// the discount amount in currency units.
//
// A specifier ending in "%" is a percentage of the subtotal ("10%" on 1000
// yields 100); the percentage is read from the leading numeric prefix, so
// trailing junk before the "%" is ignored. Anything else is parsed as an
// absolute amount ("150" yields 150 regardless of the subtotal). An empty or
// unparseable specifier degrades to 0; this function never fails.
//
// The result is not clamped to [0, subtotal]. An absolute discount larger
// than the subtotal passes through untouched and can drive totals negative
// downstream; clamping is the caller's policy decision.
func ResolveDiscount(subtotal float64, spec string) float64 {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return 0
	}

	if strings.HasSuffix(spec, "%") {
		percent := numericPrefix(strings.TrimSuffix(spec, "%"))
		return subtotal * (percent / 100)
	}

	value, err := strconv.ParseFloat(spec, 64)
	if err != nil {
		return 0
	}
	return value
}

// numericPrefix reads the leading decimal number of s, returning 0 when s
// does not start with one.
func numericPrefix(s string) float64 {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := false
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits = true
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			digits = true
		}
	}
	if !digits {
		return 0
	}
	value, err := strconv.ParseFloat(strings.TrimSuffix(s[:i], "."), 64)
	if err != nil {
		return 0
	}
	return value
}
