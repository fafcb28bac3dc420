package planner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odataplan/odataplan/internal/testfixtures"
	"github.com/odataplan/odataplan/pkg/queryoptions"
)

func mustExpansion(t *testing.T, input string) *queryoptions.ExpansionTree {
	t.Helper()
	tree, diags := queryoptions.ParseExpansion(input)
	require.Empty(t, diags)
	return tree
}

func TestPlanEmptyRequest(t *testing.T) {
	post := testfixtures.Entity(t, testfixtures.BlogRegistry(t), "post")

	plan, err := NewPlanner().Plan(post, queryoptions.NewSelectionTree(), nil, 0)
	require.NoError(t, err)
	require.True(t, plan.Scalars.IsAll())
	require.True(t, plan.ForwardJoins.IsEmpty())
	require.Empty(t, plan.CollectionFetches)
	require.Empty(t, plan.Diagnostics)
}

func TestPlanForwardExpansionWithSelection(t *testing.T) {
	post := testfixtures.Entity(t, testfixtures.BlogRegistry(t), "post")

	plan, err := NewPlanner().Plan(post,
		queryoptions.ParseSelection("title"),
		mustExpansion(t, "author"),
		0)
	require.NoError(t, err)

	require.Equal(t, []string{"id", "title", "author_id"}, plan.Scalars.Fields())
	require.Equal(t, []string{"author"}, plan.ForwardJoins.Values())
	require.True(t, plan.ForwardProjections["author"].IsAll())
	require.Empty(t, plan.CollectionFetches)
}

func TestPlanScalarProjectionAlwaysContainsPrimaryKey(t *testing.T) {
	post := testfixtures.Entity(t, testfixtures.BlogRegistry(t), "post")

	plan, err := NewPlanner().Plan(post, queryoptions.ParseSelection("title,publishedAt"), nil, 0)
	require.NoError(t, err)
	require.True(t, plan.Scalars.Contains("id"))
	require.Equal(t, []string{"id", "title", "publishedAt"}, plan.Scalars.Fields())
}

func TestPlanSkipsUnknownSelectionFields(t *testing.T) {
	post := testfixtures.Entity(t, testfixtures.BlogRegistry(t), "post")

	plan, err := NewPlanner().Plan(post, queryoptions.ParseSelection("title,preview_text"), nil, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"id", "title"}, plan.Scalars.Fields())
	require.Len(t, plan.Diagnostics, 1)
	require.Equal(t, queryoptions.DiagUnknownField, plan.Diagnostics[0].Code)
}

func TestPlanForwardNestedSelect(t *testing.T) {
	post := testfixtures.Entity(t, testfixtures.BlogRegistry(t), "post")

	plan, err := NewPlanner().Plan(post,
		queryoptions.NewSelectionTree(),
		mustExpansion(t, "author($select=name,email)"),
		0)
	require.NoError(t, err)

	// AllFields at the top level: no FK extension needed.
	require.True(t, plan.Scalars.IsAll())
	require.Equal(t, []string{"author"}, plan.ForwardJoins.Values())
	require.Equal(t, []string{"id", "name", "email"}, plan.ForwardProjections["author"].Fields())
}

func TestPlanDottedForwardJoinPaths(t *testing.T) {
	comment := testfixtures.Entity(t, testfixtures.BlogRegistry(t), "comment")

	plan, err := NewPlanner().Plan(comment,
		queryoptions.ParseSelection("body"),
		mustExpansion(t, "post($select=title;$expand=author($select=name))"),
		0)
	require.NoError(t, err)

	require.Equal(t, []string{"id", "body", "post_id"}, plan.Scalars.Fields())
	require.Equal(t, []string{"post", "post.author"}, plan.ForwardJoins.Values())

	// The child join's FK lands in the joined relation's projection.
	require.Equal(t, []string{"id", "title", "author_id"}, plan.ForwardProjections["post"].Fields())
	require.Equal(t, []string{"id", "name"}, plan.ForwardProjections["post.author"].Fields())
}

func TestPlanReverseChildBelowForwardJoinIsDropped(t *testing.T) {
	comment := testfixtures.Entity(t, testfixtures.BlogRegistry(t), "comment")

	plan, err := NewPlanner().Plan(comment,
		queryoptions.NewSelectionTree(),
		mustExpansion(t, "post($expand=comments)"),
		0)
	require.NoError(t, err)

	require.Equal(t, []string{"post"}, plan.ForwardJoins.Values())
	require.Len(t, plan.Diagnostics, 1)
	require.Equal(t, queryoptions.DiagUnknownRelation, plan.Diagnostics[0].Code)
}

func TestPlanCollectionFetch(t *testing.T) {
	post := testfixtures.Entity(t, testfixtures.BlogRegistry(t), "post")

	plan, err := NewPlanner().Plan(post,
		queryoptions.NewSelectionTree(),
		mustExpansion(t, "comments($select=body;$filter=spam eq false;$orderby=id desc;$top=5;$skip=10)"),
		0)
	require.NoError(t, err)
	require.True(t, plan.ForwardJoins.IsEmpty())
	require.Len(t, plan.CollectionFetches, 1)

	fetch := plan.CollectionFetches[0]
	require.Equal(t, "comments", fetch.Relation)
	require.Equal(t, []string{"id", "body"}, fetch.Scoped.Fields())
	require.Equal(t, "spam eq false", fetch.Filter)
	require.Equal(t, "id desc", fetch.OrderBy)
	require.NotNil(t, fetch.Limit)
	require.EqualValues(t, 5, *fetch.Limit)
	require.NotNil(t, fetch.Offset)
	require.EqualValues(t, 10, *fetch.Offset)
	require.Nil(t, fetch.Nested)
}

func TestPlanCollectionFetchDefaults(t *testing.T) {
	post := testfixtures.Entity(t, testfixtures.BlogRegistry(t), "post")

	plan, err := NewPlanner().Plan(post, queryoptions.NewSelectionTree(), mustExpansion(t, "comments"), 0)
	require.NoError(t, err)
	require.Len(t, plan.CollectionFetches, 1)

	fetch := plan.CollectionFetches[0]
	require.True(t, fetch.Scoped.IsAll())
	require.Empty(t, fetch.Filter)
	require.Empty(t, fetch.OrderBy)
	require.Nil(t, fetch.Limit)
	require.Nil(t, fetch.Offset)
}

func TestPlanCollectionBadNumericOptionIgnored(t *testing.T) {
	post := testfixtures.Entity(t, testfixtures.BlogRegistry(t), "post")

	plan, err := NewPlanner().Plan(post,
		queryoptions.NewSelectionTree(),
		mustExpansion(t, "comments($top=many;$skip=-2)"),
		0)
	require.NoError(t, err)

	fetch := plan.CollectionFetches[0]
	require.Nil(t, fetch.Limit)
	require.Nil(t, fetch.Offset)
	require.Len(t, plan.Diagnostics, 2)
	for _, diag := range plan.Diagnostics {
		require.Equal(t, queryoptions.DiagBadNumericOption, diag.Code)
	}
}

func TestPlanCollectionNestedExpansionStaysLazy(t *testing.T) {
	post := testfixtures.Entity(t, testfixtures.BlogRegistry(t), "post")

	plan, err := NewPlanner().Plan(post,
		queryoptions.NewSelectionTree(),
		mustExpansion(t, "comments($select=body;$expand=post($select=title))"),
		0)
	require.NoError(t, err)

	fetch := plan.CollectionFetches[0]
	require.NotNil(t, fetch.Nested)
	require.Equal(t, []string{"post"}, fetch.Nested.Fields())

	// The scoped projection carries the nested forward join's attribute.
	require.Equal(t, []string{"id", "body", "post_id"}, fetch.Scoped.Fields())
}

func TestPlanDepthBound(t *testing.T) {
	post := testfixtures.Entity(t, testfixtures.BlogRegistry(t), "post")
	expansion := mustExpansion(t, "comments($expand=post($select=title))")

	// At the bound, the nested tree is dropped without error.
	plan, err := NewPlanner().Plan(post, queryoptions.NewSelectionTree(), expansion, DefaultMaxDepth)
	require.NoError(t, err)

	fetch := plan.CollectionFetches[0]
	require.Nil(t, fetch.Nested)
	require.Len(t, plan.Diagnostics, 1)
	require.Equal(t, queryoptions.DiagDepthExceeded, plan.Diagnostics[0].Code)
}

func TestPlanDepthBoundOnForwardChain(t *testing.T) {
	comment := testfixtures.Entity(t, testfixtures.BlogRegistry(t), "comment")

	plan, err := NewPlanner(WithMaxDepth(1)).Plan(comment,
		queryoptions.NewSelectionTree(),
		mustExpansion(t, "post($expand=author($expand=posts))"),
		0)
	require.NoError(t, err)

	// One nested level resolves; the next is truncated.
	require.Equal(t, []string{"post", "post.author"}, plan.ForwardJoins.Values())

	var codes []queryoptions.DiagnosticCode
	for _, diag := range plan.Diagnostics {
		codes = append(codes, diag.Code)
	}
	require.Contains(t, codes, queryoptions.DiagDepthExceeded)
}

func TestPlanUnknownExpansionDropped(t *testing.T) {
	post := testfixtures.Entity(t, testfixtures.BlogRegistry(t), "post")

	plan, err := NewPlanner().Plan(post, queryoptions.NewSelectionTree(), mustExpansion(t, "reviews,author"), 0)
	require.NoError(t, err)
	require.Equal(t, []string{"author"}, plan.ForwardJoins.Values())
	require.Len(t, plan.Diagnostics, 1)
	require.Equal(t, queryoptions.DiagUnknownRelation, plan.Diagnostics[0].Code)
}

func TestPlanScalarExpansionDropped(t *testing.T) {
	post := testfixtures.Entity(t, testfixtures.BlogRegistry(t), "post")

	plan, err := NewPlanner().Plan(post, queryoptions.NewSelectionTree(), mustExpansion(t, "title"), 0)
	require.NoError(t, err)
	require.True(t, plan.ForwardJoins.IsEmpty())
	require.Empty(t, plan.CollectionFetches)
	require.Len(t, plan.Diagnostics, 1)
}

func TestPlanStrictUnknownRelation(t *testing.T) {
	post := testfixtures.Entity(t, testfixtures.BlogRegistry(t), "post")

	_, err := NewPlanner(WithStrictRelations(true)).Plan(post,
		queryoptions.NewSelectionTree(),
		mustExpansion(t, "reviews"),
		0)
	require.ErrorContains(t, err, "reviews")
}

func TestPlanIsIdempotent(t *testing.T) {
	post := testfixtures.Entity(t, testfixtures.BlogRegistry(t), "post")
	selection := queryoptions.ParseSelection("title,author.name")
	expansion := mustExpansion(t, "author($select=name),comments($select=body;$top=3)")

	planner := NewPlanner()
	first, err := planner.Plan(post, selection, expansion, 0)
	require.NoError(t, err)
	second, err := planner.Plan(post, selection, expansion, 0)
	require.NoError(t, err)

	require.Equal(t, first.Scalars.Fields(), second.Scalars.Fields())
	require.Equal(t, first.ForwardJoins.Values(), second.ForwardJoins.Values())
	require.Equal(t, first.CollectionFetches, second.CollectionFetches)
	require.Equal(t, first.Diagnostics, second.Diagnostics)
}
