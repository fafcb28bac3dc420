// Package odata glues URL query values to the planner: it extracts the
// recognized $-options from a request, plans the $select/$expand pair, and
// drives a ResultSetCursor with the resulting plan plus the top-level
// $filter/$orderby/$top/$skip pass-through options.
package odata

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/odataplan/odataplan/internal/logging"
	"github.com/odataplan/odataplan/pkg/entityschema"
	"github.com/odataplan/odataplan/pkg/planner"
	"github.com/odataplan/odataplan/pkg/queryoptions"
)

// Params holds the raw $-option values of one request. Count, Search, and
// Format are carried for callers to interpret; ApplyParams ignores them.
type Params struct {
	Select  string
	Expand  string
	Filter  string
	OrderBy string
	Top     string
	Skip    string
	Count   string
	Search  string
	Format  string
}

// ParamsFromQuery extracts the recognized $-options from a parsed query
// string. Absent options come back as empty strings.
func ParamsFromQuery(query url.Values) Params {
	return Params{
		Select:  query.Get(queryoptions.KeySelect),
		Expand:  query.Get(queryoptions.KeyExpand),
		Filter:  query.Get(queryoptions.KeyFilter),
		OrderBy: query.Get(queryoptions.KeyOrderBy),
		Top:     query.Get(queryoptions.KeyTop),
		Skip:    query.Get(queryoptions.KeySkip),
		Count:   query.Get(queryoptions.KeyCount),
		Search:  query.Get(queryoptions.KeySearch),
		Format:  query.Get(queryoptions.KeyFormat),
	}
}

// ApplyParams parses and plans the request's $select/$expand, applies the
// plan to the cursor, then applies the top-level $filter, $orderby, $top,
// and $skip. Numeric options follow the collection-option semantics: a
// malformed or negative value is dropped with a diagnostic, never an error.
//
// The returned plan carries every diagnostic gathered along the way,
// parse-time ones included.
func ApplyParams(
	cursor planner.ResultSetCursor,
	schema entityschema.EntitySchema,
	params Params,
	p *planner.Planner,
) (planner.ResultSetCursor, *planner.FetchPlan, error) {
	selection := queryoptions.ParseSelection(params.Select)
	expansion, parseDiags := queryoptions.ParseExpansion(params.Expand)

	plan, err := p.Plan(schema, selection, expansion, 0)
	if err != nil {
		return nil, nil, err
	}
	plan.Diagnostics = append(parseDiags, plan.Diagnostics...)

	cursor = p.Apply(cursor, schema, plan, 0)

	if params.Filter != "" {
		cursor = cursor.Filter(params.Filter)
	}
	if params.OrderBy != "" {
		cursor = cursor.OrderBy(params.OrderBy)
	}
	if n, ok := topLevelWindow(params.Top, queryoptions.KeyTop, plan); ok {
		cursor = cursor.Limit(*n)
	}
	if n, ok := topLevelWindow(params.Skip, queryoptions.KeySkip, plan); ok {
		cursor = cursor.Offset(*n)
	}

	return cursor, plan, nil
}

func topLevelWindow(raw, key string, plan *planner.FetchPlan) (*int64, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, false
	}
	options := queryoptions.OptionMap{key: raw}
	value, ok := options.NonNegativeInt(key)
	if !ok {
		logging.Warn().Str("option", key).Str("value", raw).
			Msg("ignoring invalid numeric option")
		plan.Diagnostics = append(plan.Diagnostics, queryoptions.Diagnostic{
			Code:     queryoptions.DiagBadNumericOption,
			Message:  fmt.Sprintf("option %s must be a non-negative integer", key),
			Fragment: raw,
		})
		return nil, false
	}
	return value, true
}
