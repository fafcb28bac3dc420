// Package sqlcursor implements the planner's ResultSetCursor contract over
// squirrel SELECT builders. A cursor renders to one main statement plus one
// batched statement per collection fetch; it builds SQL text, it never
// executes anything.
package sqlcursor

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/ccoveille/go-safecast/v2"

	"github.com/odataplan/odataplan/pkg/entityschema"
	"github.com/odataplan/odataplan/pkg/planner"
	"github.com/odataplan/odataplan/pkg/queryoptions"
)

// FilterCompiler turns a raw $filter expression into a SQL predicate. The
// real compiler is an external collaborator; the default passes the raw
// expression through unchanged, which is only suitable for trusted input
// such as the explain CLI.
type FilterCompiler func(def *entityschema.Definition, expression string) (sq.Sqlizer, error)

func passthroughFilter(_ *entityschema.Definition, expression string) (sq.Sqlizer, error) {
	return sq.Expr(expression), nil
}

type config struct {
	compiler    FilterCompiler
	placeholder sq.PlaceholderFormat
}

// Option configures a cursor tree.
type Option func(*config)

// WithFilterCompiler installs the predicate compiler used for $filter
// expressions.
func WithFilterCompiler(compiler FilterCompiler) Option {
	return func(c *config) { c.compiler = compiler }
}

// WithPlaceholderFormat sets the squirrel placeholder format, e.g.
// squirrel.Dollar for PostgreSQL.
func WithPlaceholderFormat(format sq.PlaceholderFormat) Option {
	return func(c *config) { c.placeholder = format }
}

// Statement is one rendered SQL statement. Relation is empty for the main
// statement and the dotted relation path for batched fetches.
type Statement struct {
	Relation string
	SQL      string
	Args     []any
}

// Cursor accumulates projection, join, filter, and window state for one
// entity and its batched related fetches.
type Cursor struct {
	def *entityschema.Definition
	cfg *config

	projection  []string
	joins       []string
	joinColumns map[string][]string
	filter      string
	orderBy     string
	limit       *int64
	offset      *int64

	parent     *Cursor
	parentRel  entityschema.RelationSpec
	related    []*Cursor
	invalidOps []error
}

var _ planner.ResultSetCursor = (*Cursor)(nil)

// New opens a cursor over the entity's table.
func New(def *entityschema.Definition, opts ...Option) *Cursor {
	cfg := &config{compiler: passthroughFilter, placeholder: sq.Question}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Cursor{def: def, cfg: cfg, joinColumns: map[string][]string{}}
}

func (c *Cursor) Project(fields []string) planner.ResultSetCursor {
	c.projection = fields
	return c
}

func (c *Cursor) Join(path string) planner.ResultSetCursor {
	c.joins = append(c.joins, path)
	return c
}

func (c *Cursor) ProjectRelated(path string, fields []string) planner.ResultSetCursor {
	c.joinColumns[path] = fields
	return c
}

func (c *Cursor) FetchRelated(relation string, scope func(planner.ResultSetCursor) planner.ResultSetCursor) planner.ResultSetCursor {
	rel, ok := c.def.Relation(relation)
	if !ok || rel.Kind != entityschema.RelationReverse {
		c.invalidOps = append(c.invalidOps, fmt.Errorf("entity %q has no collection relation %q", c.def.Name, relation))
		return c
	}
	child, ok := c.def.RelatedDefinition(relation)
	if !ok {
		c.invalidOps = append(c.invalidOps, fmt.Errorf("relation %q on entity %q has no resolvable target", relation, c.def.Name))
		return c
	}

	sub := New(child, func(cfg *config) { *cfg = *c.cfg })
	sub.parent = c
	sub.parentRel = rel
	c.related = append(c.related, sub)
	scope(sub)
	return c
}

func (c *Cursor) Filter(expression string) planner.ResultSetCursor {
	c.filter = expression
	return c
}

func (c *Cursor) OrderBy(expression string) planner.ResultSetCursor {
	c.orderBy = expression
	return c
}

func (c *Cursor) Limit(n int64) planner.ResultSetCursor {
	c.limit = &n
	return c
}

func (c *Cursor) Offset(n int64) planner.ResultSetCursor {
	c.offset = &n
	return c
}

// Statements renders the cursor tree: the main statement first, then one
// batched statement per collection fetch in registration order, descending
// depth-first.
func (c *Cursor) Statements() ([]Statement, error) {
	if len(c.invalidOps) > 0 {
		return nil, c.invalidOps[0]
	}

	main, err := c.render()
	if err != nil {
		return nil, err
	}

	statements := []Statement{main}
	for _, sub := range c.related {
		subStatements, err := sub.Statements()
		if err != nil {
			return nil, err
		}
		for _, stmt := range subStatements {
			stmt.Relation = joinPath(sub.parentRel.Name, stmt.Relation)
			statements = append(statements, stmt)
		}
	}
	return statements, nil
}

func joinPath(prefix, rest string) string {
	if rest == "" {
		return prefix
	}
	return prefix + "." + rest
}

func (c *Cursor) render() (Statement, error) {
	table := c.def.Table

	builder := sq.StatementBuilder.PlaceholderFormat(c.cfg.placeholder).
		Select(c.selectColumns()...).
		From(table)

	var err error
	if builder, err = c.appendJoins(builder); err != nil {
		return Statement{}, err
	}
	if builder, err = c.appendConditions(builder); err != nil {
		return Statement{}, err
	}

	for _, term := range queryoptions.ParseOrderBy(c.orderBy) {
		direction := " ASC"
		if term.Descending {
			direction = " DESC"
		}
		builder = builder.OrderBy(table + "." + c.def.Column(term.Field) + direction)
	}

	if c.limit != nil {
		n, err := safecast.Convert[uint64](*c.limit)
		if err != nil {
			return Statement{}, fmt.Errorf("invalid limit: %w", err)
		}
		builder = builder.Limit(n)
	}
	if c.offset != nil {
		n, err := safecast.Convert[uint64](*c.offset)
		if err != nil {
			return Statement{}, fmt.Errorf("invalid offset: %w", err)
		}
		builder = builder.Offset(n)
	}

	sqlText, args, err := builder.ToSql()
	if err != nil {
		return Statement{}, fmt.Errorf("failed to render query for entity %q: %w", c.def.Name, err)
	}
	return Statement{SQL: sqlText, Args: args}, nil
}

func (c *Cursor) selectColumns() []string {
	table := c.def.Table

	var columns []string
	if len(c.projection) == 0 {
		columns = append(columns, table+".*")
	} else {
		for _, field := range c.projection {
			columns = append(columns, table+"."+c.def.Column(field))
		}
	}

	for _, path := range c.joins {
		alias, def, ok := c.resolveJoined(path)
		if !ok {
			continue
		}
		fields := c.joinColumns[path]
		if len(fields) == 0 {
			columns = append(columns, alias+".*")
			continue
		}
		for _, field := range fields {
			columns = append(columns, fmt.Sprintf("%s.%s AS %q", alias, def.Column(field), path+"."+field))
		}
	}
	return columns
}

// appendJoins emits a LEFT JOIN chain for every dotted forward path,
// aliasing each step after its path with dots replaced by underscores.
func (c *Cursor) appendJoins(builder sq.SelectBuilder) (sq.SelectBuilder, error) {
	joined := map[string]bool{}
	for _, path := range c.joins {
		parentAlias := c.def.Table
		parentDef := c.def

		walked := ""
		for _, segment := range strings.Split(path, ".") {
			walked = joinPath(walked, segment)

			rel, ok := parentDef.Relation(segment)
			if !ok || rel.Kind != entityschema.RelationForward {
				return builder, fmt.Errorf("entity %q has no forward relation %q", parentDef.Name, segment)
			}
			child, ok := parentDef.RelatedDefinition(segment)
			if !ok {
				return builder, fmt.Errorf("relation %q on entity %q has no resolvable target", segment, parentDef.Name)
			}

			alias := strings.ReplaceAll(walked, ".", "_")
			if !joined[walked] {
				joined[walked] = true
				builder = builder.LeftJoin(fmt.Sprintf(
					"%s AS %s ON %s.%s = %s.%s",
					child.Table, alias,
					parentAlias, parentDef.Column(rel.ForeignKey),
					alias, child.Column(child.PrimaryKey()),
				))
			}
			parentAlias = alias
			parentDef = child
		}
	}
	return builder, nil
}

func (c *Cursor) resolveJoined(path string) (string, *entityschema.Definition, bool) {
	def := c.def
	for _, segment := range strings.Split(path, ".") {
		child, ok := def.RelatedDefinition(segment)
		if !ok {
			return "", nil, false
		}
		def = child
	}
	return strings.ReplaceAll(path, ".", "_"), def, true
}

// appendConditions applies the compiled $filter and, for batched cursors,
// the membership constraint scoping rows to the parent result set.
func (c *Cursor) appendConditions(builder sq.SelectBuilder) (sq.SelectBuilder, error) {
	if c.filter != "" {
		predicate, err := c.cfg.compiler(c.def, c.filter)
		if err != nil {
			return builder, fmt.Errorf("failed to compile filter %q: %w", c.filter, err)
		}
		builder = builder.Where(predicate)
	}

	if c.parent != nil {
		keySQL, keyArgs, err := c.parent.keyQuery().ToSql()
		if err != nil {
			return builder, fmt.Errorf("failed to render parent key query: %w", err)
		}
		membership := fmt.Sprintf("%s.%s IN (%s)",
			c.def.Table, c.def.Column(c.parentRel.ReverseColumn), keySQL)
		builder = builder.Where(sq.Expr(membership, keyArgs...))
	}

	return builder, nil
}

// keyQuery builds the primary key sub-select a batched fetch scopes itself
// to. It carries the parent's own filter, membership constraint, and result
// window so that the batch matches exactly the parent rows returned.
func (c *Cursor) keyQuery() sq.SelectBuilder {
	table := c.def.Table
	builder := sq.Select(table + "." + c.def.Column(c.def.PrimaryKey())).From(table)

	if c.filter != "" {
		if predicate, err := c.cfg.compiler(c.def, c.filter); err == nil {
			builder = builder.Where(predicate)
		}
	}
	if c.parent != nil {
		if keySQL, keyArgs, err := c.parent.keyQuery().ToSql(); err == nil {
			builder = builder.Where(sq.Expr(fmt.Sprintf("%s.%s IN (%s)",
				table, c.def.Column(c.parentRel.ReverseColumn), keySQL), keyArgs...))
		}
	}
	for _, term := range queryoptions.ParseOrderBy(c.orderBy) {
		direction := " ASC"
		if term.Descending {
			direction = " DESC"
		}
		builder = builder.OrderBy(table + "." + c.def.Column(term.Field) + direction)
	}
	if c.limit != nil {
		if n, err := safecast.Convert[uint64](*c.limit); err == nil {
			builder = builder.Limit(n)
		}
	}
	if c.offset != nil {
		if n, err := safecast.Convert[uint64](*c.offset); err == nil {
			builder = builder.Offset(n)
		}
	}
	return builder
}
