package queryoptions

import (
	"strings"

	"github.com/odataplan/odataplan/pkg/genutil/mapz"
)

// SelectionTree is the parsed form of a $select value: the top-level field
// names in first-appearance order, plus one level of nested per-relation
// field lists from dotted segments such as "author.name".
//
// An empty tree means no restriction was requested: all scalar fields.
type SelectionTree struct {
	TopLevel *mapz.OrderedSet[string]
	Nested   *mapz.MultiMap[string, string]
}

// NewSelectionTree returns an empty tree.
func NewSelectionTree() SelectionTree {
	return SelectionTree{
		TopLevel: mapz.NewOrderedSet[string](),
		Nested:   mapz.NewMultiMap[string, string](),
	}
}

// IsEmpty returns true if no fields were selected.
func (st SelectionTree) IsEmpty() bool {
	return st.TopLevel.IsEmpty()
}

// ParseSelection parses a $select value. Fields are comma-separated; a
// segment containing a dot is split on the first dot only, its parent
// joining the top level and its child the parent's nested list. Duplicates
// are collapsed, keeping the position of first appearance.
func ParseSelection(input string) SelectionTree {
	tree := NewSelectionTree()

	for _, segment := range SplitTop(input, ',') {
		parent, child, dotted := strings.Cut(segment, ".")
		parent = strings.TrimSpace(parent)
		if parent == "" {
			continue
		}
		tree.TopLevel.Add(parent)
		if dotted {
			if child = strings.TrimSpace(child); child != "" {
				tree.Nested.Add(parent, child)
			}
		}
	}

	return tree
}
