package entityschema

import "fmt"

// FieldSpec declares one scalar field. Column defaults to the field name.
type FieldSpec struct {
	Name   string
	Column string
}

// RelationSpec declares one relation to another registered entity.
type RelationSpec struct {
	Name   string
	Kind   RelationKind
	Target string

	// ForeignKey is this entity's own join attribute, required for
	// forward relations ("author" carries "author_id").
	ForeignKey string

	// ReverseColumn is the column on the target table pointing back at
	// this entity, required for reverse relations. Only SQL rendering
	// consults it; the planner never does.
	ReverseColumn string
}

// Definition is a concrete EntitySchema backed by explicit field and
// relation declarations. Definitions resolve their relation targets through
// the Registry they were added to.
type Definition struct {
	Name      string
	Table     string
	KeyField  string
	Fields    []FieldSpec
	Relations []RelationSpec

	registry  *Registry
	fields    map[string]FieldSpec
	relations map[string]RelationSpec
}

var _ EntitySchema = (*Definition)(nil)

func (d *Definition) PrimaryKey() string { return d.KeyField }

func (d *Definition) HasField(name string) bool {
	if _, ok := d.fields[name]; ok {
		return true
	}
	_, ok := d.relations[name]
	return ok
}

func (d *Definition) RelationKind(name string) RelationKind {
	rel, ok := d.relations[name]
	if !ok {
		return RelationNone
	}
	return rel.Kind
}

func (d *Definition) RelatedSchema(name string) (EntitySchema, bool) {
	return d.RelatedDefinition(name)
}

// RelatedDefinition is the concrete-typed form of RelatedSchema, used by
// the SQL cursor which needs table and column metadata.
func (d *Definition) RelatedDefinition(name string) (*Definition, bool) {
	rel, ok := d.relations[name]
	if !ok || d.registry == nil {
		return nil, false
	}
	return d.registry.Get(rel.Target)
}

func (d *Definition) ForeignKeyAttribute(name string) (string, bool) {
	rel, ok := d.relations[name]
	if !ok || rel.Kind != RelationForward || rel.ForeignKey == "" {
		return "", false
	}
	return rel.ForeignKey, true
}

// Relation returns the declaration for the named relation.
func (d *Definition) Relation(name string) (RelationSpec, bool) {
	rel, ok := d.relations[name]
	return rel, ok
}

// Column maps a field or join-attribute name to its column name. Names
// without an explicit column mapping (including foreign key attributes)
// map to themselves.
func (d *Definition) Column(name string) string {
	if field, ok := d.fields[name]; ok && field.Column != "" {
		return field.Column
	}
	return name
}

func (d *Definition) index(registry *Registry) error {
	if d.Name == "" {
		return fmt.Errorf("entity definition requires a name")
	}
	if d.KeyField == "" {
		return fmt.Errorf("entity %q requires a primary key field", d.Name)
	}

	d.registry = registry
	d.fields = make(map[string]FieldSpec, len(d.Fields))
	for _, field := range d.Fields {
		if field.Name == "" {
			return fmt.Errorf("entity %q has a field without a name", d.Name)
		}
		d.fields[field.Name] = field
	}
	if _, ok := d.fields[d.KeyField]; !ok {
		d.fields[d.KeyField] = FieldSpec{Name: d.KeyField}
	}

	d.relations = make(map[string]RelationSpec, len(d.Relations))
	for _, rel := range d.Relations {
		switch {
		case rel.Name == "":
			return fmt.Errorf("entity %q has a relation without a name", d.Name)
		case rel.Target == "":
			return fmt.Errorf("relation %q on entity %q requires a target", rel.Name, d.Name)
		case rel.Kind == RelationForward && rel.ForeignKey == "":
			return fmt.Errorf("forward relation %q on entity %q requires a foreign key attribute", rel.Name, d.Name)
		case rel.Kind == RelationReverse && rel.ReverseColumn == "":
			return fmt.Errorf("reverse relation %q on entity %q requires a reverse column", rel.Name, d.Name)
		}
		d.relations[rel.Name] = rel
	}
	return nil
}

// Registry holds entity definitions and resolves relation targets between
// them. Registries are immutable after construction and safe for concurrent
// reads.
type Registry struct {
	entities map[string]*Definition
}

// NewRegistry builds a registry from the given definitions, indexing and
// validating each.
func NewRegistry(definitions ...*Definition) (*Registry, error) {
	registry := &Registry{entities: make(map[string]*Definition, len(definitions))}
	for _, def := range definitions {
		if err := def.index(registry); err != nil {
			return nil, err
		}
		if _, exists := registry.entities[def.Name]; exists {
			return nil, fmt.Errorf("duplicate entity definition %q", def.Name)
		}
		registry.entities[def.Name] = def
	}

	// Relation targets must resolve once all entities are registered.
	for _, def := range definitions {
		for _, rel := range def.Relations {
			if _, ok := registry.entities[rel.Target]; !ok {
				return nil, fmt.Errorf("relation %q on entity %q targets unknown entity %q", rel.Name, def.Name, rel.Target)
			}
		}
	}
	return registry, nil
}

// Get returns the named entity definition.
func (r *Registry) Get(name string) (*Definition, bool) {
	def, ok := r.entities[name]
	return def, ok
}
