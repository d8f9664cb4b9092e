package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/multilocator/pkg/window"
)

func newTestTag(id string) *Tag {
	return &Tag{ID: id, Window: window.New(id, 6, 2, 20)}
}

func TestGetOrCreate_CreatesOnMiss(t *testing.T) {
	r := New(2)

	tag, created, ok := r.GetOrCreate("tag-1", newTestTag)
	require.True(t, ok)
	assert.True(t, created)
	assert.Equal(t, "tag-1", tag.ID)
	assert.Equal(t, 1, r.Count())
}

func TestGetOrCreate_ReturnsExisting(t *testing.T) {
	r := New(2)
	first, _, _ := r.GetOrCreate("tag-1", newTestTag)

	second, created, ok := r.GetOrCreate("tag-1", newTestTag)
	require.True(t, ok)
	assert.False(t, created)
	assert.Same(t, first, second)
}

func TestGetOrCreate_SaturatedRegistryDropsEvent(t *testing.T) {
	r := New(1)
	_, _, ok := r.GetOrCreate("tag-1", newTestTag)
	require.True(t, ok)

	_, created, ok := r.GetOrCreate("tag-2", newTestTag)
	assert.False(t, ok)
	assert.False(t, created)
	assert.Equal(t, 1, r.Count())
}

func TestGet_Miss(t *testing.T) {
	r := New(2)
	_, ok := r.Get("nope")
	assert.False(t, ok)
}

func TestListIDs(t *testing.T) {
	r := New(5)
	r.GetOrCreate("tag-1", newTestTag)
	r.GetOrCreate("tag-2", newTestTag)

	ids := r.ListIDs()
	assert.ElementsMatch(t, []string{"tag-1", "tag-2"}, ids)
}
