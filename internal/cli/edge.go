package cli

import (
	"fmt"
	"maps"

	"github.com/spf13/cobra"

	"github.com/roach88/rowgraph/internal/controller"
	"github.com/roach88/rowgraph/internal/ir"
)

// EdgeOptions holds flags for the edge commands.
type EdgeOptions struct {
	ElementOptions
	Out      string
	In       string
	OutLabel string
	InLabel  string
}

// NewEdgeCommand creates the edge command group.
func NewEdgeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edge",
		Short: "Add and update edges",
	}
	cmd.AddCommand(newEdgeAddCommand(rootOpts))
	cmd.AddCommand(newEdgeUpdateCommand(rootOpts))
	return cmd
}

func newEdgeAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EdgeOptions{ElementOptions: ElementOptions{RootOptions: rootOpts}}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Insert an edge into every table of its label",
		Long: `Insert an edge between two vertex ids into every edge table that
holds its label and endpoint labels.

Example:
  rowgraph edge add --label knows --out v1 --in v2 -p weight=5`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdgeAdd(opts, cmd)
		},
	}
	opts.bind(cmd, "edge id (generated when omitted)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "id of the out vertex")
	cmd.Flags().StringVar(&opts.In, "in", "", "id of the in vertex")
	cmd.Flags().StringVar(&opts.OutLabel, "out-label", "", "label of the out vertex, narrows the tables written")
	cmd.Flags().StringVar(&opts.InLabel, "in-label", "", "label of the in vertex, narrows the tables written")
	_ = cmd.MarkFlagRequired("label")
	_ = cmd.MarkFlagRequired("out")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func runEdgeAdd(opts *EdgeOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	id, err := parseID(opts.ID)
	if err != nil {
		return formatter.Fail("add edge", err)
	}
	props, err := parseProperties(opts.Properties)
	if err != nil {
		return formatter.Fail("add edge", err)
	}
	out, err := endpoint(opts.Out, opts.OutLabel)
	if err != nil {
		return formatter.Fail("add edge", err)
	}
	in, err := endpoint(opts.In, opts.InLabel)
	if err != nil {
		return formatter.Fail("add edge", err)
	}

	s, err := openSession(cmd.Context(), opts.RootOptions, formatter.GetErrWriter())
	if err != nil {
		return formatter.Fail("open graph", err)
	}
	defer s.Close()

	e, err := s.ctrl.AddEdge(cmd.Context(), controller.AddEdgeQuery{
		ID:         id,
		Label:      opts.Label,
		Out:        out,
		In:         in,
		Properties: props,
	})
	if err != nil {
		return formatter.Fail("add edge", err)
	}
	return formatter.Success(edgeView(e))
}

func newEdgeUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ElementOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Set properties of an existing edge",
		Long: `Set properties of an existing edge. Properties not given keep their
stored value. Identity and endpoints never change.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdgeUpdate(opts, cmd)
		},
	}
	opts.bind(cmd, "edge id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func runEdgeUpdate(opts *ElementOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	id, err := parseID(opts.ID)
	if err != nil {
		return formatter.Fail("update edge", err)
	}
	props, err := parseProperties(opts.Properties)
	if err != nil {
		return formatter.Fail("update edge", err)
	}

	s, err := openSession(ctx, opts.RootOptions, formatter.GetErrWriter())
	if err != nil {
		return formatter.Fail("open graph", err)
	}
	defer s.Close()

	var found *ir.Edge
	for e, err := range s.ctrl.SearchEdges(ctx, controller.SearchQuery{Predicates: identityQuery(id, opts.Label), Limit: 1}) {
		if err != nil {
			return formatter.Fail("update edge", err)
		}
		found = e
	}
	if found == nil {
		return formatter.Fail("update edge", fmt.Errorf("edge %v not found: %w", opts.ID, ErrArguments))
	}

	if found.Properties == nil {
		found.Properties = ir.IRObject{}
	}
	maps.Copy(found.Properties, props)
	if err := s.ctrl.UpdateEdge(ctx, found); err != nil {
		return formatter.Fail("update edge", err)
	}
	return formatter.Success(edgeView(found))
}

func endpoint(raw, label string) (*ir.Vertex, error) {
	id, err := parseValue(raw)
	if err != nil {
		return nil, err
	}
	v := ir.NewDeferredVertex(id)
	v.Label = label
	return v, nil
}
