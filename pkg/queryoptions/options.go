// Package queryoptions implements the OData-style $select/$expand grammar:
// a top-level tokenizer that respects parenthesis nesting, a dotted
// selection parser, and an expansion parser whose nested $expand values stay
// opaque until a consumer descends into them.
//
// Parsing is best-effort: malformed fragments are dropped or taken
// literally, never fatal, and every dropped fragment is reported as a
// Diagnostic.
package queryoptions

import (
	"strconv"
	"strings"
)

// Recognized option keys. Unrecognized $-prefixed keys are preserved in an
// OptionMap but are not interpreted by the planner.
const (
	KeySelect  = "$select"
	KeyFilter  = "$filter"
	KeyOrderBy = "$orderby"
	KeyTop     = "$top"
	KeySkip    = "$skip"
	KeyCount   = "$count"
	KeyExpand  = "$expand"
	KeySearch  = "$search"
	KeyFormat  = "$format"
)

// OptionMap maps a $-prefixed option key to its raw string value. Keys are
// case-sensitive. Values are trimmed only at their outer boundary; interior
// whitespace is preserved verbatim.
type OptionMap map[string]string

// NonNegativeInt parses the named option as a base-10 non-negative integer.
// A missing, malformed, or negative value yields (nil, false): a single bad
// numeric option is ignored rather than failing the surrounding request.
func (om OptionMap) NonNegativeInt(key string) (*int64, bool) {
	raw, ok := om[key]
	if !ok {
		return nil, false
	}
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || value < 0 {
		return nil, false
	}
	return &value, true
}

// DiagnosticCode identifies a class of dropped or degraded input.
type DiagnosticCode string

const (
	DiagMalformedSegment DiagnosticCode = "malformed_segment"
	DiagOptionNoValue    DiagnosticCode = "option_missing_value"
	DiagOptionBadKey     DiagnosticCode = "option_key_not_dollar_prefixed"
	DiagUnknownField     DiagnosticCode = "unknown_field"
	DiagUnknownRelation  DiagnosticCode = "unknown_relation"
	DiagBadNumericOption DiagnosticCode = "invalid_numeric_option"
	DiagDepthExceeded    DiagnosticCode = "expansion_depth_exceeded"
)

// Diagnostic records a fragment of input that could not be honored. Parsing
// and planning are fail-open, so diagnostics are the only trace a caller
// gets of what was dropped.
type Diagnostic struct {
	Code     DiagnosticCode
	Message  string
	Fragment string
}
