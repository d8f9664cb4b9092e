// Package schedule computes the per-slot expected-angle-count table that
// trades completeness against latency: fresh slots demand a report from
// every locator, older slots tolerate a shrinking number of stragglers so a
// position still gets published when a locator drops packets.
package schedule

// Build computes the expected-count table for numSlots slots given
// locatorCount configured locators. Slot 0 is newest; the table is
// monotonically non-increasing with slot index.
//
//	expected[0]    = locatorCount
//	expected[last] = max(2, locatorCount - coeff), coeff = max(0, locatorCount-2)
//	expected[i]    = locatorCount - round((i * coeff) / (numSlots - 1)), round-half-up
//
// When locatorCount == 1, expected[i] = 1 for all i.
func Build(locatorCount, numSlots int) []int {
	table := make([]int, numSlots)

	if locatorCount == 1 {
		for i := range table {
			table[i] = 1
		}
		return table
	}

	coeff := locatorCount - 2
	if coeff < 0 {
		coeff = 0
	}

	if numSlots <= 1 {
		for i := range table {
			table[i] = locatorCount
		}
		return table
	}

	for i := 0; i < numSlots; i++ {
		table[i] = locatorCount - roundHalfUp(i*coeff, numSlots-1)
	}

	return table
}

// roundHalfUp computes round(num/den) with half-up rounding, for non-negative
// num and positive den.
func roundHalfUp(num, den int) int {
	return (num*2 + den) / (2 * den)
}
