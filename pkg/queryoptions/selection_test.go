package queryoptions

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSelection(t *testing.T) {
	t.Run("empty input yields empty tree", func(t *testing.T) {
		tree := ParseSelection("")
		require.True(t, tree.IsEmpty())
		require.True(t, tree.Nested.IsEmpty())
	})

	t.Run("flat fields", func(t *testing.T) {
		tree := ParseSelection("id,title")
		require.Equal(t, []string{"id", "title"}, tree.TopLevel.Values())
		require.True(t, tree.Nested.IsEmpty())
	})

	t.Run("dotted fields nest under parent", func(t *testing.T) {
		tree := ParseSelection("id,title,author.name,author.email")
		require.Equal(t, []string{"id", "title", "author"}, tree.TopLevel.Values())

		nested, ok := tree.Nested.Get("author")
		require.True(t, ok)
		require.Equal(t, []string{"name", "email"}, nested)
	})

	t.Run("splits on first dot only", func(t *testing.T) {
		tree := ParseSelection("author.address.city")
		require.Equal(t, []string{"author"}, tree.TopLevel.Values())

		nested, ok := tree.Nested.Get("author")
		require.True(t, ok)
		require.Equal(t, []string{"address.city"}, nested)
	})

	t.Run("duplicates are collapsed in order", func(t *testing.T) {
		tree := ParseSelection("title,author.name,title,author.name,id")
		require.Equal(t, []string{"title", "author", "id"}, tree.TopLevel.Values())

		nested, _ := tree.Nested.Get("author")
		require.Equal(t, []string{"name"}, nested)
	})

	t.Run("whitespace around segments and dots", func(t *testing.T) {
		tree := ParseSelection(" id , author . name ")
		require.Equal(t, []string{"id", "author"}, tree.TopLevel.Values())

		nested, _ := tree.Nested.Get("author")
		require.Equal(t, []string{"name"}, nested)
	})
}
