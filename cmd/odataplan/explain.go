package main

import (
	"fmt"
	"io"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/odataplan/odataplan/pkg/entityschema"
	"github.com/odataplan/odataplan/pkg/odata"
	"github.com/odataplan/odataplan/pkg/planner"
	"github.com/odataplan/odataplan/pkg/sqlcursor"
)

var (
	heading   = color.New(color.FgCyan, color.Bold)
	warnColor = color.New(color.FgYellow)
)

func registerExplainCmd(rootCmd *cobra.Command) {
	explainCmd := &cobra.Command{
		Use:   "explain",
		Short: "Show the fetch plan and SQL for a query",
		Example: `  odataplan explain --schema blog.yaml --entity post \
      --select title --expand 'author($select=name),comments($top=5)'`,
		RunE: explainRun,
	}

	explainCmd.Flags().String("schema", "", "path to the YAML entity schema (required)")
	explainCmd.Flags().String("entity", "", "entity the query addresses (required)")
	explainCmd.Flags().String("select", "", "$select value")
	explainCmd.Flags().String("expand", "", "$expand value")
	explainCmd.Flags().String("filter", "", "top-level $filter value, passed through uncompiled")
	explainCmd.Flags().String("orderby", "", "top-level $orderby value")
	explainCmd.Flags().String("top", "", "top-level $top value")
	explainCmd.Flags().String("skip", "", "top-level $skip value")
	explainCmd.Flags().Int("max-depth", planner.DefaultMaxDepth, "maximum expansion depth")
	explainCmd.Flags().Bool("strict", false, "fail on unknown relations instead of dropping them")
	explainCmd.Flags().String("placeholder", "question", `SQL placeholder style ("question", "dollar")`)

	for _, required := range []string{"schema", "entity"} {
		if err := explainCmd.MarkFlagRequired(required); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(explainCmd)
}

func explainRun(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()

	registry, err := entityschema.LoadRegistryFile(mustString(flags, "schema"))
	if err != nil {
		return fmt.Errorf("failed to load schema: %w", err)
	}

	entityName := mustString(flags, "entity")
	def, ok := registry.Get(entityName)
	if !ok {
		return fmt.Errorf("schema defines no entity %q", entityName)
	}

	maxDepth, err := flags.GetInt("max-depth")
	if err != nil {
		return err
	}
	strict, err := flags.GetBool("strict")
	if err != nil {
		return err
	}
	placeholder, err := placeholderFormat(mustString(flags, "placeholder"))
	if err != nil {
		return err
	}

	params := odata.Params{
		Select:  mustString(flags, "select"),
		Expand:  mustString(flags, "expand"),
		Filter:  mustString(flags, "filter"),
		OrderBy: mustString(flags, "orderby"),
		Top:     mustString(flags, "top"),
		Skip:    mustString(flags, "skip"),
	}

	p := planner.NewPlanner(
		planner.WithMaxDepth(maxDepth),
		planner.WithStrictRelations(strict),
	)
	cursor := sqlcursor.New(def, sqlcursor.WithPlaceholderFormat(placeholder))

	_, plan, err := odata.ApplyParams(cursor, def, params, p)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printPlan(out, entityName, plan)

	statements, err := cursor.Statements()
	if err != nil {
		return err
	}
	printStatements(out, statements)
	return nil
}

// mustString reads a registered string flag; a missing registration is a
// programming error.
func mustString(flags *pflag.FlagSet, name string) string {
	value, err := flags.GetString(name)
	if err != nil {
		panic(err)
	}
	return value
}

func placeholderFormat(name string) (sq.PlaceholderFormat, error) {
	switch name {
	case "question":
		return sq.Question, nil
	case "dollar":
		return sq.Dollar, nil
	default:
		return nil, fmt.Errorf(`unknown placeholder style %q (want "question" or "dollar")`, name)
	}
}

func printPlan(out io.Writer, entityName string, plan *planner.FetchPlan) {
	heading.Fprintf(out, "Plan for %s\n", entityName)
	fmt.Fprintf(out, "  scalars: %s\n", projectionString(plan.Scalars))

	for _, path := range plan.ForwardJoins.Values() {
		line := "  join " + path
		if projection, ok := plan.ForwardProjections[path]; ok {
			line += " -> " + projectionString(projection)
		}
		fmt.Fprintln(out, line)
	}

	for _, fetch := range plan.CollectionFetches {
		fmt.Fprintf(out, "  batch %s -> %s%s\n",
			fetch.Relation, projectionString(fetch.Scoped), fetchOptionsString(fetch))
	}

	for _, diag := range plan.Diagnostics {
		warnColor.Fprintf(out, "  dropped [%s] %s: %q\n", diag.Code, diag.Message, diag.Fragment)
	}
}

func projectionString(projection planner.Projection) string {
	if projection.IsAll() {
		return "*"
	}
	return strings.Join(projection.Fields(), ", ")
}

func fetchOptionsString(fetch planner.CollectionFetchPlan) string {
	var parts []string
	if fetch.Filter != "" {
		parts = append(parts, "filter="+fetch.Filter)
	}
	if fetch.OrderBy != "" {
		parts = append(parts, "orderby="+fetch.OrderBy)
	}
	if fetch.Limit != nil {
		parts = append(parts, fmt.Sprintf("limit=%d", *fetch.Limit))
	}
	if fetch.Offset != nil {
		parts = append(parts, fmt.Sprintf("offset=%d", *fetch.Offset))
	}
	if !fetch.Nested.IsEmpty() {
		parts = append(parts, "expand="+strings.Join(fetch.Nested.Fields(), ","))
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, "; ") + ")"
}

func printStatements(out io.Writer, statements []sqlcursor.Statement) {
	for _, stmt := range statements {
		label := "main"
		if stmt.Relation != "" {
			label = stmt.Relation
		}
		heading.Fprintf(out, "SQL [%s]\n", label)
		fmt.Fprintf(out, "  %s\n", stmt.SQL)
		if len(stmt.Args) > 0 {
			fmt.Fprintf(out, "  args: %v\n", stmt.Args)
		}
	}
}
