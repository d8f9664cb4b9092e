package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const maxDiff = 20

func TestDiff_Forward(t *testing.T) {
	assert.EqualValues(t, 3, Diff(10, 13, maxDiff))
	assert.EqualValues(t, 0, Diff(10, 10, maxDiff))
}

func TestDiff_Backward(t *testing.T) {
	assert.EqualValues(t, -3, Diff(13, 10, maxDiff))
}

func TestDiff_Wraparound(t *testing.T) {
	// old = 65534, new = 2 -> forward distance of 4 across the wrap.
	assert.EqualValues(t, 4, Diff(65534, 2, maxDiff))
}

func TestDiff_StaleForward(t *testing.T) {
	assert.EqualValues(t, Stale, Diff(0, 21, maxDiff))
}

func TestDiff_StaleBackward(t *testing.T) {
	assert.EqualValues(t, Stale, Diff(21, 0, maxDiff))
}

func TestDiff_BoundaryNotStale(t *testing.T) {
	assert.EqualValues(t, 20, Diff(0, 20, maxDiff))
}

func TestNewer(t *testing.T) {
	assert.True(t, Newer(10, 13, maxDiff))
	assert.False(t, Newer(13, 10, maxDiff))
	assert.False(t, Newer(10, 10, maxDiff))
	assert.False(t, Newer(0, 21, maxDiff), "beyond maxDiff is stale, not newer")
}
