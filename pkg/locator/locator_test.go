package locator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSet_Valid(t *testing.T) {
	s, err := NewSet([]Config{{ID: "loc-a"}, {ID: "loc-b"}}, 6)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Count())

	idx, ok := s.Index("loc-b")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestNewSet_Empty(t *testing.T) {
	_, err := NewSet(nil, 6)
	assert.Error(t, err)
}

func TestNewSet_ExceedsMax(t *testing.T) {
	_, err := NewSet([]Config{{ID: "a"}, {ID: "b"}, {ID: "c"}}, 2)
	assert.Error(t, err)
}

func TestNewSet_DuplicateID(t *testing.T) {
	_, err := NewSet([]Config{{ID: "a"}, {ID: "a"}}, 6)
	assert.Error(t, err)
}

func TestSet_ContainsAndIndex(t *testing.T) {
	s, err := NewSet([]Config{{ID: "loc-a"}}, 6)
	require.NoError(t, err)

	assert.True(t, s.Contains("loc-a"))
	assert.False(t, s.Contains("loc-z"))

	_, ok := s.Index("loc-z")
	assert.False(t, ok)
}
