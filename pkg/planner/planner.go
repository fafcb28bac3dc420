package planner

import (
	"fmt"
	"strings"

	"github.com/odataplan/odataplan/internal/logging"
	"github.com/odataplan/odataplan/pkg/entityschema"
	"github.com/odataplan/odataplan/pkg/queryoptions"
)

// DefaultMaxDepth bounds nested $expand resolution. Expansion beyond the
// bound is truncated, not rejected: a deep-nesting string degrades the
// response instead of failing the request.
const DefaultMaxDepth = 3

// Planner builds fetch plans from parsed query trees. The zero-argument
// NewPlanner is fail-open: unknown fields and relations are dropped with a
// diagnostic. Planners are stateless and safe for concurrent use.
type Planner struct {
	maxDepth int
	strict   bool
}

// Option configures a Planner.
type Option func(*Planner)

// WithMaxDepth overrides the nested-expansion recursion bound.
func WithMaxDepth(depth int) Option {
	return func(p *Planner) { p.maxDepth = depth }
}

// WithStrictRelations makes Plan return an error when $expand references a
// field the schema does not recognize, instead of dropping it.
func WithStrictRelations(strict bool) Option {
	return func(p *Planner) { p.strict = strict }
}

// NewPlanner constructs a Planner.
func NewPlanner(opts ...Option) *Planner {
	p := &Planner{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan builds the fetch plan for one entity level. depth counts nested
// $expand resolutions already performed; top-level callers pass 0. Plan is
// a pure function of its arguments and never returns an error unless the
// planner was built with WithStrictRelations.
func (p *Planner) Plan(
	schema entityschema.EntitySchema,
	selection queryoptions.SelectionTree,
	expansion *queryoptions.ExpansionTree,
	depth int,
) (*FetchPlan, error) {
	plan := newFetchPlan()
	plan.Scalars = p.scalarProjection(schema, selection, &plan.Diagnostics)

	if expansion == nil {
		return plan, nil
	}

	for _, field := range expansion.Fields() {
		node, _ := expansion.Get(field)
		switch entityschema.Classify(schema, field) {
		case entityschema.ClassForward:
			p.planForwardJoin(schema, plan, "", node, depth)

		case entityschema.ClassReverse:
			p.planCollectionFetch(schema, plan, node, depth)

		case entityschema.ClassUnknown:
			if p.strict {
				return nil, fmt.Errorf("$expand references unknown field %q", field)
			}
			logging.Warn().Str("field", field).Msg("dropping expansion of unknown field")
			plan.Diagnostics = append(plan.Diagnostics, queryoptions.Diagnostic{
				Code:     queryoptions.DiagUnknownRelation,
				Message:  fmt.Sprintf("cannot expand unknown field %q", field),
				Fragment: field,
			})

		default:
			// A scalar cannot be joined or batch-fetched.
			logging.Warn().Str("field", field).Msg("dropping expansion of non-relation field")
			plan.Diagnostics = append(plan.Diagnostics, queryoptions.Diagnostic{
				Code:     queryoptions.DiagUnknownRelation,
				Message:  fmt.Sprintf("field %q is not a relation", field),
				Fragment: field,
			})
		}
	}

	return plan, nil
}

// scalarProjection implements projection seeding: an empty selection means
// no restriction; otherwise the explicit set starts with the schema's
// primary key and adds every selected name the schema recognizes. Names the
// schema does not know (computed or stale fields) are skipped, never fatal.
func (p *Planner) scalarProjection(
	schema entityschema.EntitySchema,
	selection queryoptions.SelectionTree,
	diags *[]queryoptions.Diagnostic,
) Projection {
	if selection.IsEmpty() {
		return AllFields()
	}

	projection := ExplicitFields(schema.PrimaryKey())
	for _, field := range selection.TopLevel.Values() {
		if !schema.HasField(field) {
			logging.Debug().Str("field", field).Msg("skipping unknown field in $select")
			*diags = append(*diags, queryoptions.Diagnostic{
				Code:     queryoptions.DiagUnknownField,
				Message:  fmt.Sprintf("unknown field %q in $select", field),
				Fragment: field,
			})
			continue
		}
		projection.add(field)
	}
	return projection
}

// planForwardJoin adds an eager join for a forward relation and honors its
// nested options. pathPrefix is empty at the top level and the dotted
// ancestor path when recursing through nested $expand values.
func (p *Planner) planForwardJoin(
	schema entityschema.EntitySchema,
	plan *FetchPlan,
	pathPrefix string,
	node *queryoptions.ExpansionNode,
	depth int,
) {
	relation := node.Field
	path := relation
	if pathPrefix != "" {
		path = pathPrefix + "." + relation
	}
	plan.ForwardJoins.Add(path)

	// An explicit parent projection must carry the join attribute or the
	// join is unusable by the applier.
	parentProjection := plan.Scalars
	if pathPrefix != "" {
		parentProjection = plan.ForwardProjections[pathPrefix]
	}
	if !parentProjection.IsAll() {
		if fk, ok := schema.ForeignKeyAttribute(relation); ok {
			parentProjection.add(fk)
		}
	}

	related, ok := schema.RelatedSchema(relation)
	if !ok {
		return
	}

	if raw, ok := node.Options[queryoptions.KeySelect]; ok && strings.TrimSpace(raw) != "" {
		nested := queryoptions.ParseSelection(raw)
		plan.ForwardProjections[path] = p.scalarProjection(related, nested, &plan.Diagnostics)
	} else {
		plan.ForwardProjections[path] = AllFields()
	}

	p.extendForwardJoins(related, plan, path, node, depth)
}

// extendForwardJoins resolves a forward relation's nested $expand into
// dotted join paths, one level per recursion, bounded by the planner's
// depth limit. Only forward child relations can ride along an eager join;
// reverse and unknown children are dropped with a diagnostic.
func (p *Planner) extendForwardJoins(
	related entityschema.EntitySchema,
	plan *FetchPlan,
	path string,
	node *queryoptions.ExpansionNode,
	depth int,
) {
	raw, ok := node.Options[queryoptions.KeyExpand]
	if !ok || strings.TrimSpace(raw) == "" {
		return
	}
	if depth+1 > p.maxDepth {
		logging.Warn().Str("path", path).Int("depth", depth).Msg("maximum expansion depth reached, truncating")
		plan.Diagnostics = append(plan.Diagnostics, queryoptions.Diagnostic{
			Code:     queryoptions.DiagDepthExceeded,
			Message:  fmt.Sprintf("expansion below %q exceeds the maximum depth and was dropped", path),
			Fragment: raw,
		})
		return
	}

	nested, parseDiags := node.NestedExpansion()
	plan.Diagnostics = append(plan.Diagnostics, parseDiags...)
	if nested == nil {
		return
	}

	for _, childField := range nested.Fields() {
		childNode, _ := nested.Get(childField)
		switch entityschema.Classify(related, childField) {
		case entityschema.ClassForward:
			p.planForwardJoin(related, plan, path, childNode, depth+1)
		default:
			logging.Warn().Str("path", path).Str("field", childField).
				Msg("dropping nested expansion not satisfiable via join")
			plan.Diagnostics = append(plan.Diagnostics, queryoptions.Diagnostic{
				Code:     queryoptions.DiagUnknownRelation,
				Message:  fmt.Sprintf("cannot expand %q below joined relation %q", childField, path),
				Fragment: childField,
			})
		}
	}
}

// planCollectionFetch builds the scoped batched fetch for a reverse
// relation.
func (p *Planner) planCollectionFetch(
	schema entityschema.EntitySchema,
	plan *FetchPlan,
	node *queryoptions.ExpansionNode,
	depth int,
) {
	relation := node.Field
	related, ok := schema.RelatedSchema(relation)
	if !ok {
		return
	}

	fetch := CollectionFetchPlan{Relation: relation, Scoped: AllFields()}

	if raw, ok := node.Options[queryoptions.KeySelect]; ok && strings.TrimSpace(raw) != "" {
		nested := queryoptions.ParseSelection(raw)
		fetch.Scoped = p.scalarProjection(related, nested, &plan.Diagnostics)
	}

	// Filter and ordering are copied verbatim; external collaborators
	// interpret them at apply time.
	fetch.Filter = node.Options[queryoptions.KeyFilter]
	fetch.OrderBy = node.Options[queryoptions.KeyOrderBy]
	fetch.Limit = p.numericOption(node, queryoptions.KeyTop, plan)
	fetch.Offset = p.numericOption(node, queryoptions.KeySkip, plan)

	if raw, ok := node.Options[queryoptions.KeyExpand]; ok && strings.TrimSpace(raw) != "" {
		if depth+1 > p.maxDepth {
			logging.Warn().Str("relation", relation).Int("depth", depth).
				Msg("maximum expansion depth reached, truncating")
			plan.Diagnostics = append(plan.Diagnostics, queryoptions.Diagnostic{
				Code:     queryoptions.DiagDepthExceeded,
				Message:  fmt.Sprintf("expansion below %q exceeds the maximum depth and was dropped", relation),
				Fragment: raw,
			})
		} else {
			nested, parseDiags := node.NestedExpansion()
			plan.Diagnostics = append(plan.Diagnostics, parseDiags...)
			fetch.Nested = nested

			// The scoped projection must carry the join attribute of
			// any forward relation the nested tree will join.
			if nested != nil && !fetch.Scoped.IsAll() {
				for _, childField := range nested.Fields() {
					if entityschema.Classify(related, childField) == entityschema.ClassForward {
						if fk, ok := related.ForeignKeyAttribute(childField); ok {
							fetch.Scoped.add(fk)
						}
					}
				}
			}
		}
	}

	plan.CollectionFetches = append(plan.CollectionFetches, fetch)
}

// numericOption extracts a non-negative integer option, recording a
// diagnostic when a present value cannot be honored.
func (p *Planner) numericOption(node *queryoptions.ExpansionNode, key string, plan *FetchPlan) *int64 {
	raw, present := node.Options[key]
	if !present {
		return nil
	}
	value, ok := node.Options.NonNegativeInt(key)
	if !ok {
		logging.Warn().Str("key", key).Str("value", raw).Msg("ignoring invalid numeric query option")
		plan.Diagnostics = append(plan.Diagnostics, queryoptions.Diagnostic{
			Code:     queryoptions.DiagBadNumericOption,
			Message:  fmt.Sprintf("%s value %q is not a non-negative integer", key, raw),
			Fragment: raw,
		})
		return nil
	}
	return value
}
