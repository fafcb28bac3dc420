package planner

import "github.com/odataplan/odataplan/pkg/genutil/mapz"

// Projection is the set of fields to retrieve for an entity: either the
// AllFields sentinel meaning no restriction was requested, or an explicit
// insertion-ordered field set that always contains the owning schema's
// primary key.
type Projection struct {
	fields *mapz.OrderedSet[string]
}

// AllFields returns the unrestricted projection.
func AllFields() Projection { return Projection{} }

// ExplicitFields returns a projection restricted to the given fields.
func ExplicitFields(fields ...string) Projection {
	return Projection{fields: mapz.NewOrderedSet(fields...)}
}

// IsAll reports whether no restriction was requested.
func (p Projection) IsAll() bool { return p.fields == nil }

// Fields returns the explicit field set in insertion order, or nil for the
// unrestricted projection.
func (p Projection) Fields() []string {
	if p.fields == nil {
		return nil
	}
	return p.fields.Values()
}

// Contains reports whether the field would be fetched.
func (p Projection) Contains(field string) bool {
	if p.fields == nil {
		return true
	}
	return p.fields.Has(field)
}

func (p Projection) add(field string) {
	if p.fields != nil {
		p.fields.Add(field)
	}
}
