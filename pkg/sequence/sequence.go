// Package sequence implements the wrap-around arithmetic used to compare
// the 16-bit sequence counters locators attach to each CTE transmission.
package sequence

import "math"

// Stale is the sentinel Diff returns once two sequence numbers are farther
// apart than maxDiff. It mirrors the reference implementation's INT_MAX.
const Stale = math.MaxInt32

// Diff returns the signed distance from old to new along the shorter way
// round the 16-bit sequence circle, or Stale if that distance exceeds maxDiff.
//
//   - result = new - old, taken modulo 65536 into [-32768, 32767]: positive
//     when new is ahead of old, negative when it is behind (so
//     Diff(65534, 2) = 4 and Diff(13, 10) = -3).
//   - If |result| > maxDiff: Stale.
func Diff(old, new_ uint16, maxDiff int32) int32 {
	result := int32(new_ - old)
	if result > 32767 {
		result -= 65536
	}

	if abs32(result) > maxDiff {
		return Stale
	}
	return result
}

// Newer reports whether new is newer than old: diff(old, new) > 0 and not stale.
func Newer(old, new_ uint16, maxDiff int32) bool {
	d := Diff(old, new_, maxDiff)
	return d != Stale && d > 0
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
