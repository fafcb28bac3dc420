package entityschema

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type yamlSchema struct {
	Entities []yamlEntity `yaml:"entities"`
}

type yamlEntity struct {
	Name       string         `yaml:"name"`
	Table      string         `yaml:"table"`
	PrimaryKey string         `yaml:"primaryKey"`
	Fields     []yamlField    `yaml:"fields"`
	Relations  []yamlRelation `yaml:"relations"`
}

type yamlField struct {
	Name   string `yaml:"name"`
	Column string `yaml:"column"`
}

type yamlRelation struct {
	Name          string `yaml:"name"`
	Kind          string `yaml:"kind"`
	Target        string `yaml:"target"`
	ForeignKey    string `yaml:"foreignKey"`
	ReverseColumn string `yaml:"reverseColumn"`
}

// LoadRegistry reads a YAML schema document and builds a Registry from it.
//
// Document shape:
//
//	entities:
//	  - name: post
//	    table: posts
//	    primaryKey: id
//	    fields:
//	      - name: title
//	    relations:
//	      - name: author
//	        kind: forward
//	        target: author
//	        foreignKey: author_id
//	      - name: comments
//	        kind: reverse
//	        target: comment
//	        reverseColumn: post_id
func LoadRegistry(r io.Reader) (*Registry, error) {
	var doc yamlSchema
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode schema document: %w", err)
	}

	definitions := make([]*Definition, 0, len(doc.Entities))
	for _, entity := range doc.Entities {
		def := &Definition{
			Name:     entity.Name,
			Table:    entity.Table,
			KeyField: entity.PrimaryKey,
		}
		for _, field := range entity.Fields {
			def.Fields = append(def.Fields, FieldSpec{Name: field.Name, Column: field.Column})
		}
		for _, rel := range entity.Relations {
			kind, err := parseRelationKind(rel.Kind)
			if err != nil {
				return nil, fmt.Errorf("relation %q on entity %q: %w", rel.Name, entity.Name, err)
			}
			def.Relations = append(def.Relations, RelationSpec{
				Name:          rel.Name,
				Kind:          kind,
				Target:        rel.Target,
				ForeignKey:    rel.ForeignKey,
				ReverseColumn: rel.ReverseColumn,
			})
		}
		definitions = append(definitions, def)
	}

	return NewRegistry(definitions...)
}

// LoadRegistryFile loads a YAML schema document from disk.
func LoadRegistryFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema file: %w", err)
	}
	defer f.Close()
	return LoadRegistry(f)
}

func parseRelationKind(kind string) (RelationKind, error) {
	switch kind {
	case "forward":
		return RelationForward, nil
	case "reverse":
		return RelationReverse, nil
	default:
		return RelationNone, fmt.Errorf("unknown relation kind %q", kind)
	}
}
