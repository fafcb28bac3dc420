// Package planner turns parsed $select/$expand trees into fetch plans: the
// scalar fields to project, the forward relations to join eagerly, and the
// collection relations to fetch in separate batched steps with their own
// scoping. Plans are pure values; applying one to a data store happens
// through the ResultSetCursor contract.
package planner

import (
	"github.com/odataplan/odataplan/pkg/genutil/mapz"
	"github.com/odataplan/odataplan/pkg/queryoptions"
)

// FetchPlan is the planner's output: everything a query execution layer
// must do to satisfy one level of a request.
type FetchPlan struct {
	// Scalars is the scalar projection for the entity itself.
	Scalars Projection

	// ForwardJoins lists relations to join eagerly, in request order.
	// Nested forward expansions appear as dotted paths ("author.publisher").
	ForwardJoins *mapz.OrderedSet[string]

	// ForwardProjections scopes the fields fetched for each joined
	// relation path. Paths absent from the map are unrestricted.
	ForwardProjections map[string]Projection

	// CollectionFetches lists the separate batched fetches for
	// collection-valued relations.
	CollectionFetches []CollectionFetchPlan

	// Diagnostics records every fragment of the request that was dropped
	// or degraded while planning.
	Diagnostics []queryoptions.Diagnostic
}

// CollectionFetchPlan scopes the batched fetch of one collection-valued
// relation. Filter and OrderBy are carried verbatim; they are opaque to the
// planner and resolved by the predicate compiler and sort machinery at
// apply time.
type CollectionFetchPlan struct {
	Relation string
	Scoped   Projection
	Filter   string
	OrderBy  string
	Limit    *int64
	Offset   *int64

	// Nested holds the relation's own $expand tree, parsed lazily and
	// only when the recursion depth allows. It is expanded when the plan
	// applier descends into this collection.
	Nested *queryoptions.ExpansionTree
}

func newFetchPlan() *FetchPlan {
	return &FetchPlan{
		Scalars:            AllFields(),
		ForwardJoins:       mapz.NewOrderedSet[string](),
		ForwardProjections: map[string]Projection{},
	}
}
