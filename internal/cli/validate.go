package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rowgraph/internal/ir"
	"github.com/roach88/rowgraph/internal/schema"
)

// TableSummary describes one validated table definition.
type TableSummary struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Table      string   `json:"table"`
	Label      string   `json:"label"`
	Properties []string `json:"properties,omitempty"`
}

func (t TableSummary) String() string {
	return fmt.Sprintf("%-6s %-20s table=%s label=%s properties=%v", t.Kind, t.Name, t.Table, t.Label, t.Properties)
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool           `json:"valid"`
	Tables []TableSummary `json:"tables,omitempty"`
	Line   int            `json:"line,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [definitions]",
		Short: "Validate CUE table definitions",
		Long: `Validate CUE table definitions without touching a database.

The path is a .cue file or a directory holding a CUE package. Without an
argument the schema path from the config is used.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rootOpts.Schema
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(rootOpts, path, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	if path == "" {
		cfg, err := resolveConfig(opts)
		if err != nil {
			return formatter.Fail("resolve config", err)
		}
		path = cfg.Schema
	}

	formatter.VerboseLog("Loading definitions from %s", path)
	defs, _, err := LoadDefinitions(path)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) && formatter.Format == "json" {
			_ = formatter.Error(loadErr.Code, loadErr.Message, ValidationResult{Line: lineOf(loadErr)})
			_, exit := classifyError(err)
			return WrapExitError(exit, loadErr.Code+": validation failed", err)
		}
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "line %d\n", lineOf(loadErr))
		}
		return formatter.Fail("validation failed", err)
	}

	tables := make([]TableSummary, len(defs))
	for i, d := range defs {
		tables[i] = summarize(d)
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Tables: tables})
	}
	for _, t := range tables {
		fmt.Fprintln(formatter.Writer, t)
	}
	fmt.Fprintf(formatter.Writer, "%d definition(s) valid\n", len(tables))
	return nil
}

func summarize(d schema.Definition) TableSummary {
	label := d.Label
	if d.LabelColumn != "" {
		label = "column:" + d.LabelColumn
	}
	props := make([]string, len(d.Properties))
	for i, p := range d.Properties {
		props[i] = p.Name
	}
	kind := "vertex"
	if d.Kind == ir.KindEdge {
		kind = "edge"
	}
	return TableSummary{Name: d.Name, Kind: kind, Table: d.Table, Label: label, Properties: props}
}

func lineOf(e *LoadError) int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}
