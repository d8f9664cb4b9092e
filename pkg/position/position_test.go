package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	data, err := Encode(Position{X: 1, Y: 2.5, Z: -3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1,"y":2.5,"z":-3}`, string(data))
}
