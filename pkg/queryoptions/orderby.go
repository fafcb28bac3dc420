package queryoptions

import "strings"

// OrderTerm is one component of a $orderby value.
type OrderTerm struct {
	Field      string
	Descending bool
}

// ParseOrderBy parses a $orderby value such as "publishedAt desc, title"
// into ordered terms. A trailing " asc" or " desc" suffix (case-sensitive,
// per the OData ABNF) sets the direction; the default is ascending. Empty
// segments are dropped.
func ParseOrderBy(input string) []OrderTerm {
	var terms []OrderTerm
	for _, segment := range SplitTop(input, ',') {
		term := OrderTerm{Field: segment}
		if field, ok := strings.CutSuffix(segment, " desc"); ok {
			term.Field = strings.TrimSpace(field)
			term.Descending = true
		} else if field, ok := strings.CutSuffix(segment, " asc"); ok {
			term.Field = strings.TrimSpace(field)
		}
		if term.Field != "" {
			terms = append(terms, term)
		}
	}
	return terms
}
