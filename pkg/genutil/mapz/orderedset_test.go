package mapz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrderedSetPreservesFirstInsertionOrder(t *testing.T) {
	s := NewOrderedSet[string]()
	require.True(t, s.Add("b"))
	require.True(t, s.Add("a"))
	require.False(t, s.Add("b"))
	require.True(t, s.Add("c"))

	require.Equal(t, []string{"b", "a", "c"}, s.Values())
	require.Equal(t, 3, s.Len())
	require.True(t, s.Has("a"))
	require.False(t, s.Has("z"))
}

func TestOrderedSetEmpty(t *testing.T) {
	s := NewOrderedSet[string]()
	require.True(t, s.IsEmpty())
	require.Empty(t, s.Values())
}

func TestOrderedSetCopyIsIndependent(t *testing.T) {
	s := NewOrderedSet("x", "y")
	c := s.Copy()
	c.Add("z")

	require.Equal(t, []string{"x", "y"}, s.Values())
	require.Equal(t, []string{"x", "y", "z"}, c.Values())
}

func TestMultiMapOrderAndDedup(t *testing.T) {
	mm := NewMultiMap[string, string]()
	mm.Add("author", "name")
	mm.Add("category", "slug")
	mm.Add("author", "email")
	mm.Add("author", "name")

	require.Equal(t, []string{"author", "category"}, mm.Keys())

	values, ok := mm.Get("author")
	require.True(t, ok)
	require.Equal(t, []string{"name", "email"}, values)

	_, ok = mm.Get("missing")
	require.False(t, ok)
	require.True(t, mm.Has("category"))
	require.Equal(t, 2, mm.Len())
	require.False(t, mm.IsEmpty())
}
