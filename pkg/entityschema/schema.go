// Package entityschema describes entities to the planner: which fields
// exist, which of them are relations, and how relations join. Production
// systems implement EntitySchema over their own model metadata; the package
// also ships a concrete Registry/Definition provider used by tests and the
// CLI.
package entityschema

// RelationKind describes how a field relates to another entity.
type RelationKind int

const (
	// RelationNone marks a plain scalar field.
	RelationNone RelationKind = iota

	// RelationForward is a single-valued reference for which the entity
	// itself carries the join attribute; satisfiable by an eager join.
	RelationForward

	// RelationReverse is a collection-valued relation owned by the other
	// side; it carries no join attribute here and needs a separate
	// batched fetch.
	RelationReverse
)

// EntitySchema is the read-only description of one entity consumed by the
// planner. Implementations must be safe for concurrent use.
type EntitySchema interface {
	// PrimaryKey returns the entity's primary key field name.
	PrimaryKey() string

	// HasField reports whether the named scalar field or relation exists.
	HasField(name string) bool

	// RelationKind returns the relation kind of the named field, or
	// RelationNone for scalars and unknown fields.
	RelationKind(name string) RelationKind

	// RelatedSchema returns the schema of the entity the named relation
	// points at.
	RelatedSchema(name string) (EntitySchema, bool)

	// ForeignKeyAttribute returns the entity's own join attribute for the
	// named forward relation (e.g. "author_id" for "author").
	ForeignKeyAttribute(name string) (string, bool)
}

// FieldClass is the planner-facing classification of a field name.
type FieldClass int

const (
	ClassUnknown FieldClass = iota
	ClassScalar
	ClassForward
	ClassReverse
)

func (fc FieldClass) String() string {
	switch fc {
	case ClassScalar:
		return "scalar"
	case ClassForward:
		return "forward"
	case ClassReverse:
		return "reverse"
	default:
		return "unknown"
	}
}

// Classify resolves a field name against a schema. ClassUnknown is returned
// for names the schema does not recognize; whether that is fatal is the
// caller's policy.
func Classify(schema EntitySchema, fieldName string) FieldClass {
	if !schema.HasField(fieldName) {
		return ClassUnknown
	}
	switch schema.RelationKind(fieldName) {
	case RelationForward:
		return ClassForward
	case RelationReverse:
		return ClassReverse
	default:
		return ClassScalar
	}
}
