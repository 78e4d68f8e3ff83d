package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rowgraph/internal/ir"
)

// RemoveOptions holds flags for the remove commands.
type RemoveOptions struct {
	*RootOptions
	Label string
}

// RemoveResult reports what remove was asked to delete.
type RemoveResult struct {
	Kind string `json:"kind"`
	IDs  []any  `json:"ids"`
}

func (r RemoveResult) String() string {
	return fmt.Sprintf("removed %s(s) %v", r.Kind, r.IDs)
}

// NewRemoveCommand creates the remove command group.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Delete vertices or edges by id",
		Long: `Delete vertices or edges by id with one statement per table.

Ids absent from the graph are ignored. Without --label every table of the
kind is searched.`,
	}
	cmd.AddCommand(newRemoveCommand(rootOpts, ir.KindVertex))
	cmd.AddCommand(newRemoveCommand(rootOpts, ir.KindEdge))
	return cmd
}

func newRemoveCommand(rootOpts *RootOptions, kind ir.Kind) *cobra.Command {
	opts := &RemoveOptions{RootOptions: rootOpts}
	use := "vertices"
	if kind == ir.KindEdge {
		use = "edges"
	}
	cmd := &cobra.Command{
		Use:           use + " <id>...",
		Short:         "Delete " + use,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(opts, kind, args, cmd)
		},
	}
	cmd.Flags().StringVarP(&opts.Label, "label", "l", "", "only delete from tables of this label")
	return cmd
}

func runRemove(opts *RemoveOptions, kind ir.Kind, rawIDs []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	ids := make([]ir.IRValue, len(rawIDs))
	result := RemoveResult{Kind: kind.String(), IDs: make([]any, len(rawIDs))}
	for i, raw := range rawIDs {
		id, err := parseValue(raw)
		if err != nil {
			return formatter.Fail("remove", err)
		}
		ids[i] = id
		result.IDs[i] = native(id)
	}

	s, err := openSession(ctx, opts.RootOptions, formatter.GetErrWriter())
	if err != nil {
		return formatter.Fail("open graph", err)
	}
	defer s.Close()

	if kind == ir.KindVertex {
		vertices := make([]*ir.Vertex, len(ids))
		for i, id := range ids {
			vertices[i] = &ir.Vertex{ID: id, Label: opts.Label}
		}
		err = s.ctrl.RemoveVertices(ctx, vertices)
	} else {
		edges := make([]*ir.Edge, len(ids))
		for i, id := range ids {
			edges[i] = &ir.Edge{ID: id, Label: opts.Label}
		}
		err = s.ctrl.RemoveEdges(ctx, edges)
	}
	if err != nil {
		return formatter.Fail("remove", err)
	}
	return formatter.Success(result)
}
