package cli

import (
	"fmt"
	"maps"

	"github.com/spf13/cobra"

	"github.com/roach88/rowgraph/internal/controller"
	"github.com/roach88/rowgraph/internal/ir"
	"github.com/roach88/rowgraph/internal/predicate"
)

// ElementOptions holds flags shared by the add and update commands.
type ElementOptions struct {
	*RootOptions
	ID         string
	Label      string
	Properties []string
}

func (o *ElementOptions) bind(cmd *cobra.Command, idUsage string) {
	cmd.Flags().StringVar(&o.ID, "id", "", idUsage)
	cmd.Flags().StringVarP(&o.Label, "label", "l", "", "element label")
	cmd.Flags().StringArrayVarP(&o.Properties, "prop", "p", nil, "property as key=value (repeatable)")
}

// NewVertexCommand creates the vertex command group.
func NewVertexCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vertex",
		Short: "Add, update and load vertices",
	}
	cmd.AddCommand(newVertexAddCommand(rootOpts))
	cmd.AddCommand(newVertexUpdateCommand(rootOpts))
	cmd.AddCommand(newVertexGetCommand(rootOpts))
	return cmd
}

func newVertexAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ElementOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Insert a vertex into every table of its label",
		Long: `Insert a vertex into every vertex table that holds its label.

Example:
  rowgraph vertex add --label person --id v1 -p name=marko -p age=29`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVertexAdd(opts, cmd)
		},
	}
	opts.bind(cmd, "vertex id (generated when omitted)")
	_ = cmd.MarkFlagRequired("label")
	return cmd
}

func runVertexAdd(opts *ElementOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	id, err := parseID(opts.ID)
	if err != nil {
		return formatter.Fail("add vertex", err)
	}
	props, err := parseProperties(opts.Properties)
	if err != nil {
		return formatter.Fail("add vertex", err)
	}

	s, err := openSession(cmd.Context(), opts.RootOptions, formatter.GetErrWriter())
	if err != nil {
		return formatter.Fail("open graph", err)
	}
	defer s.Close()

	v, err := s.ctrl.AddVertex(cmd.Context(), controller.AddVertexQuery{ID: id, Label: opts.Label, Properties: props})
	if err != nil {
		return formatter.Fail("add vertex", err)
	}
	return formatter.Success(vertexView(v))
}

func newVertexUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ElementOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Set properties of an existing vertex",
		Long: `Set properties of an existing vertex. Properties not given keep
their stored value. The identity never changes.

Example:
  rowgraph vertex update --id v1 -p age=30`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVertexUpdate(opts, cmd)
		},
	}
	opts.bind(cmd, "vertex id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func runVertexUpdate(opts *ElementOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	id, err := parseID(opts.ID)
	if err != nil {
		return formatter.Fail("update vertex", err)
	}
	props, err := parseProperties(opts.Properties)
	if err != nil {
		return formatter.Fail("update vertex", err)
	}

	s, err := openSession(ctx, opts.RootOptions, formatter.GetErrWriter())
	if err != nil {
		return formatter.Fail("open graph", err)
	}
	defer s.Close()

	var found *ir.Vertex
	for v, err := range s.ctrl.SearchVertices(ctx, controller.SearchQuery{Predicates: identityQuery(id, opts.Label), Limit: 1}) {
		if err != nil {
			return formatter.Fail("update vertex", err)
		}
		found = v
	}
	if found == nil {
		return formatter.Fail("update vertex", fmt.Errorf("vertex %v not found: %w", opts.ID, ErrArguments))
	}

	if found.Properties == nil {
		found.Properties = ir.IRObject{}
	}
	maps.Copy(found.Properties, props)
	if err := s.ctrl.UpdateVertex(ctx, found); err != nil {
		return formatter.Fail("update vertex", err)
	}
	return formatter.Success(vertexView(found))
}

func newVertexGetCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id>...",
		Short: "Load vertices by id",
		Long: `Load the label and properties of vertices by id, one select per
vertex table. Ids without a stored vertex are reported without a label.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVertexGet(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runVertexGet(opts *RootOptions, ids []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	placeholders, err := placeholderVertices(ids)
	if err != nil {
		return formatter.Fail("get vertices", err)
	}

	s, err := openSession(cmd.Context(), opts, formatter.GetErrWriter())
	if err != nil {
		return formatter.Fail("open graph", err)
	}
	defer s.Close()

	if err := s.ctrl.FetchProperties(cmd.Context(), controller.DeferredVertexQuery{Vertices: placeholders}); err != nil {
		return formatter.Fail("get vertices", err)
	}

	views := make(ElementList, len(placeholders))
	for i, v := range placeholders {
		views[i] = vertexView(v)
	}
	return formatter.Success(views)
}

func placeholderVertices(ids []string) ([]*ir.Vertex, error) {
	out := make([]*ir.Vertex, len(ids))
	for i, raw := range ids {
		id, err := parseValue(raw)
		if err != nil {
			return nil, err
		}
		out[i] = ir.NewDeferredVertex(id)
	}
	return out, nil
}

// identityQuery matches one element by id, and by label when given.
func identityQuery(id ir.IRValue, label string) *predicate.Holder {
	leaves := []predicate.Has{{Key: predicate.KeyID, Op: predicate.Eq, Value: id}}
	if label != "" {
		leaves = append(leaves, predicate.Has{Key: predicate.KeyLabel, Op: predicate.Eq, Value: ir.IRString(label)})
	}
	return predicate.Leaf(leaves...)
}
