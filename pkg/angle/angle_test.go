package angle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Valid(t *testing.T) {
	a, err := Decode([]byte(`{"sequence":42,"azimuth":1.5,"elevation":-0.3,"distance":2.1,"rssi":-67}`))
	require.NoError(t, err)
	assert.EqualValues(t, 42, a.Sequence)
	assert.InDelta(t, 1.5, a.Azimuth, 1e-6)
	assert.InDelta(t, -0.3, a.Elevation, 1e-6)
	assert.InDelta(t, 2.1, a.Distance, 1e-6)
	assert.EqualValues(t, -67, a.RSSI)
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecode_Empty(t *testing.T) {
	_, err := Decode([]byte(``))
	assert.Error(t, err)
}
