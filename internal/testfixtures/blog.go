// Package testfixtures provides the entity registry shared by tests: a
// small blog model with forward and reverse relations in both directions.
package testfixtures

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odataplan/odataplan/pkg/entityschema"
)

// BlogRegistry wires post -> author (forward), post -> comments (reverse),
// author -> posts (reverse), and comment -> post (forward).
func BlogRegistry(t testing.TB) *entityschema.Registry {
	t.Helper()
	registry, err := entityschema.NewRegistry(
		&entityschema.Definition{
			Name:     "post",
			Table:    "posts",
			KeyField: "id",
			Fields: []entityschema.FieldSpec{
				{Name: "id"},
				{Name: "title"},
				{Name: "publishedAt", Column: "published_at"},
			},
			Relations: []entityschema.RelationSpec{
				{Name: "author", Kind: entityschema.RelationForward, Target: "author", ForeignKey: "author_id"},
				{Name: "comments", Kind: entityschema.RelationReverse, Target: "comment", ReverseColumn: "post_id"},
			},
		},
		&entityschema.Definition{
			Name:     "author",
			Table:    "authors",
			KeyField: "id",
			Fields: []entityschema.FieldSpec{
				{Name: "id"},
				{Name: "name"},
				{Name: "email"},
			},
			Relations: []entityschema.RelationSpec{
				{Name: "posts", Kind: entityschema.RelationReverse, Target: "post", ReverseColumn: "author_id"},
			},
		},
		&entityschema.Definition{
			Name:     "comment",
			Table:    "comments",
			KeyField: "id",
			Fields: []entityschema.FieldSpec{
				{Name: "id"},
				{Name: "body"},
			},
			Relations: []entityschema.RelationSpec{
				{Name: "post", Kind: entityschema.RelationForward, Target: "post", ForeignKey: "post_id"},
			},
		},
	)
	require.NoError(t, err)
	return registry
}

// Entity fetches a definition from the registry, failing the test if it is
// missing.
func Entity(t testing.TB, registry *entityschema.Registry, name string) *entityschema.Definition {
	t.Helper()
	def, ok := registry.Get(name)
	require.True(t, ok)
	return def
}
