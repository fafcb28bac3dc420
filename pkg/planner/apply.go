package planner

import (
	"github.com/odataplan/odataplan/pkg/entityschema"
	"github.com/odataplan/odataplan/pkg/queryoptions"
)

// ResultSetCursor is the boundary between fetch plans and a concrete data
// access layer. Implementations wrap a store-specific query builder; each
// method returns the cursor to continue building with, following the
// builder style of the underlying query libraries.
//
// The cursor given to a FetchRelated scope function addresses the related
// entity's collection, already constrained to the parent result set.
type ResultSetCursor interface {
	// Project restricts the scalar columns fetched for this entity.
	Project(fields []string) ResultSetCursor

	// Join eagerly joins a forward relation path; multi-level paths are
	// dot-separated.
	Join(path string) ResultSetCursor

	// ProjectRelated restricts the columns fetched for a joined relation
	// path.
	ProjectRelated(path string, fields []string) ResultSetCursor

	// FetchRelated registers a batched fetch of a collection relation,
	// letting scope constrain the related query.
	FetchRelated(relation string, scope func(ResultSetCursor) ResultSetCursor) ResultSetCursor

	// Filter applies a raw predicate expression, compiled by the
	// external predicate compiler.
	Filter(expression string) ResultSetCursor

	// OrderBy applies a raw $orderby expression.
	OrderBy(expression string) ResultSetCursor

	// Limit and Offset apply a result window.
	Limit(n int64) ResultSetCursor
	Offset(n int64) ResultSetCursor
}

// Apply translates a fetch plan into cursor calls: scalar projection, eager
// joins, and one batched related fetch per collection plan. A collection
// plan carrying a nested expansion recurses through Plan and Apply at
// depth+1 before its sub-query is attached.
func (p *Planner) Apply(
	cursor ResultSetCursor,
	schema entityschema.EntitySchema,
	plan *FetchPlan,
	depth int,
) ResultSetCursor {
	if !plan.Scalars.IsAll() {
		cursor = cursor.Project(plan.Scalars.Fields())
	}

	for _, path := range plan.ForwardJoins.Values() {
		cursor = cursor.Join(path)
		if projection, ok := plan.ForwardProjections[path]; ok && !projection.IsAll() {
			cursor = cursor.ProjectRelated(path, projection.Fields())
		}
	}

	for _, fetch := range plan.CollectionFetches {
		cursor = cursor.FetchRelated(fetch.Relation, func(sub ResultSetCursor) ResultSetCursor {
			if !fetch.Scoped.IsAll() {
				sub = sub.Project(fetch.Scoped.Fields())
			}
			if fetch.Filter != "" {
				sub = sub.Filter(fetch.Filter)
			}
			if fetch.OrderBy != "" {
				sub = sub.OrderBy(fetch.OrderBy)
			}
			if fetch.Limit != nil {
				sub = sub.Limit(*fetch.Limit)
			}
			if fetch.Offset != nil {
				sub = sub.Offset(*fetch.Offset)
			}

			if !fetch.Nested.IsEmpty() {
				if related, ok := schema.RelatedSchema(fetch.Relation); ok {
					// Scoping was already applied above, so the nested
					// level plans with an empty selection.
					nestedPlan, err := p.Plan(related, queryoptions.NewSelectionTree(), fetch.Nested, depth+1)
					if err == nil {
						sub = p.Apply(sub, related, nestedPlan, depth+1)
					}
				}
			}
			return sub
		})
	}

	return cursor
}
