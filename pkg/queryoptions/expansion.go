package queryoptions

import (
	"fmt"
	"strings"

	"github.com/odataplan/odataplan/internal/logging"
)

// ExpansionNode is one expanded field and its raw query options. A nested
// $expand value inside Options is kept as an opaque string; call
// NestedExpansion to descend one level.
type ExpansionNode struct {
	Field   string
	Options OptionMap
}

// NestedExpansion lazily parses this node's $expand option, if any. Nodes
// without a nested $expand return (nil, nil).
func (n *ExpansionNode) NestedExpansion() (*ExpansionTree, []Diagnostic) {
	raw, ok := n.Options[KeyExpand]
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	return ParseExpansion(raw)
}

// ExpansionTree maps top-level expanded field names to their nodes,
// iterating in first-appearance order. A duplicate field name overwrites
// the earlier node's options but keeps its position.
type ExpansionTree struct {
	nodes map[string]*ExpansionNode
	order []string
}

// NewExpansionTree returns an empty tree.
func NewExpansionTree() *ExpansionTree {
	return &ExpansionTree{nodes: map[string]*ExpansionNode{}}
}

func (t *ExpansionTree) put(node *ExpansionNode) {
	if _, ok := t.nodes[node.Field]; !ok {
		t.order = append(t.order, node.Field)
	}
	t.nodes[node.Field] = node
}

// Get returns the node for the field, if present.
func (t *ExpansionTree) Get(field string) (*ExpansionNode, bool) {
	node, ok := t.nodes[field]
	return node, ok
}

// Fields returns the expanded field names in first-appearance order.
func (t *ExpansionTree) Fields() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Len returns the number of expanded fields.
func (t *ExpansionTree) Len() int { return len(t.order) }

// IsEmpty returns true if nothing was expanded.
func (t *ExpansionTree) IsEmpty() bool { return t == nil || len(t.order) == 0 }

// ParseExpansion parses a $expand value into an ExpansionTree. Each
// comma-separated field may carry a parenthesized, semicolon-separated
// option list, e.g. "author($select=name;$top=5),categories".
//
// Malformed segments are never fatal: a field with an opening parenthesis
// but no closing one is taken literally with empty options, and option
// entries without '=' or without a $-prefixed key are dropped. Every such
// degradation is returned as a Diagnostic.
func ParseExpansion(input string) (*ExpansionTree, []Diagnostic) {
	tree := NewExpansionTree()
	var diags []Diagnostic

	for _, segment := range SplitTop(input, ',') {
		node, segDiags := parseExpansionSegment(segment)
		tree.put(node)
		diags = append(diags, segDiags...)
	}

	return tree, diags
}

// parseExpansionSegment handles a single field expression: either a bare
// field name or "name(<option body>)".
func parseExpansionSegment(segment string) (*ExpansionNode, []Diagnostic) {
	open := strings.IndexByte(segment, '(')
	if open < 0 {
		return &ExpansionNode{Field: segment, Options: OptionMap{}}, nil
	}

	last := strings.LastIndexByte(segment, ')')
	if last < open {
		logging.Warn().Str("segment", segment).Msg("expand segment has unmatched parenthesis")
		diag := Diagnostic{
			Code:     DiagMalformedSegment,
			Message:  "unmatched parenthesis in expand segment",
			Fragment: segment,
		}
		return &ExpansionNode{Field: segment, Options: OptionMap{}}, []Diagnostic{diag}
	}

	field := strings.TrimSpace(segment[:open])
	options, diags := parseOptionBody(segment[open+1 : last])
	return &ExpansionNode{Field: field, Options: options}, diags
}

// parseOptionBody parses the semicolon-separated option list between a
// field's parentheses. The split runs through SplitTop since a $filter or
// nested $expand value may itself contain parentheses and semicolons.
func parseOptionBody(body string) (OptionMap, []Diagnostic) {
	options := OptionMap{}
	var diags []Diagnostic

	for _, entry := range SplitTop(body, ';') {
		key, value, found := strings.Cut(entry, "=")
		if !found {
			logging.Warn().Str("option", entry).Msg("query option has no value")
			diags = append(diags, Diagnostic{
				Code:     DiagOptionNoValue,
				Message:  "query option has no '=' separator",
				Fragment: entry,
			})
			continue
		}

		key = strings.TrimSpace(key)
		if !strings.HasPrefix(key, "$") {
			logging.Warn().Str("key", key).Msg("query option key must start with $")
			diags = append(diags, Diagnostic{
				Code:     DiagOptionBadKey,
				Message:  fmt.Sprintf("query option key %q must start with $", key),
				Fragment: entry,
			})
			continue
		}

		options[key] = strings.TrimSpace(value)
	}

	return options, diags
}
