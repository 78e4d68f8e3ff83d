package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rowgraph/internal/controller"
	"github.com/roach88/rowgraph/internal/ir"
)

// SearchOptions holds flags for the search commands.
type SearchOptions struct {
	*RootOptions
	Where     []string
	Limit     int
	Of        []string
	Direction string
	Fetch     bool
}

// NewSearchCommand creates the search command group.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find vertices or edges",
		Long: `Find vertices or edges across every table of their kind.

Conditions are "key op value" clauses, all of which must hold. Keys are
property names or the reserved ~id and ~label. Operators: eq, neq, lt, lte,
gt, gte, within, without, startsWith. Values are JSON literals or bare
strings.`,
	}
	cmd.AddCommand(newSearchVerticesCommand(rootOpts))
	cmd.AddCommand(newSearchEdgesCommand(rootOpts))
	return cmd
}

func (o *SearchOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&o.Where, "where", "w", nil, `condition "key op value" (repeatable)`)
	cmd.Flags().IntVar(&o.Limit, "limit", 0, "maximum number of results (0 = no limit)")
}

func newSearchVerticesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "vertices",
		Short: "Find vertices",
		Long: `Find vertices.

Example:
  rowgraph search vertices -w "~label eq person" -w "age gt 30" --limit 10`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearchVertices(opts, cmd)
		},
	}
	opts.bind(cmd)
	return cmd
}

func runSearchVertices(opts *SearchOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	where, err := parseWhere(opts.Where)
	if err != nil {
		return formatter.Fail("search vertices", err)
	}

	s, err := openSession(ctx, opts.RootOptions, formatter.GetErrWriter())
	if err != nil {
		return formatter.Fail("open graph", err)
	}
	defer s.Close()

	views := ElementList{}
	for v, err := range s.ctrl.SearchVertices(ctx, controller.SearchQuery{Predicates: where, Limit: opts.Limit}) {
		if err != nil {
			return formatter.Fail("search vertices", err)
		}
		views = append(views, vertexView(v))
	}
	formatter.VerboseLog("Found %d vertex(es)", len(views))
	return formatter.Success(views)
}

func newSearchEdgesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "edges",
		Short: "Find edges",
		Long: `Find edges, optionally only those touching the given vertices.

Example:
  rowgraph search edges --of v1 --direction out -w "weight gte 5"
  rowgraph search edges -w "~label eq created" --fetch`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearchEdges(opts, cmd)
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringArrayVar(&opts.Of, "of", nil, "vertex id the edges must touch (repeatable)")
	cmd.Flags().StringVar(&opts.Direction, "direction", "both", "direction relative to --of vertices (out|in|both)")
	cmd.Flags().BoolVar(&opts.Fetch, "fetch", false, "also load the endpoint vertices")
	return cmd
}

// EdgeResult is an edge with its loaded endpoints.
type EdgeResult struct {
	Edges     ElementList `json:"edges"`
	Endpoints ElementList `json:"endpoints,omitempty"`
}

func (r EdgeResult) String() string {
	if len(r.Endpoints) == 0 {
		return r.Edges.String()
	}
	return r.Edges.String() + "\n" + r.Endpoints.String()
}

func runSearchEdges(opts *SearchOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	where, err := parseWhere(opts.Where)
	if err != nil {
		return formatter.Fail("search edges", err)
	}
	dir, err := ir.ParseDirection(opts.Direction)
	if err != nil {
		return formatter.Fail("search edges", fmt.Errorf("%v: %w", err, ErrArguments))
	}
	of, err := placeholderVertices(opts.Of)
	if err != nil {
		return formatter.Fail("search edges", err)
	}

	s, err := openSession(ctx, opts.RootOptions, formatter.GetErrWriter())
	if err != nil {
		return formatter.Fail("open graph", err)
	}
	defer s.Close()

	seq := s.ctrl.SearchEdges(ctx, controller.SearchQuery{Predicates: where, Limit: opts.Limit})
	if len(opts.Of) > 0 {
		seq = s.ctrl.SearchEdgesOf(ctx, controller.SearchVertexQuery{
			Vertices:   of,
			Direction:  dir,
			Predicates: where,
			Limit:      opts.Limit,
		})
	}

	var edges []*ir.Edge
	result := EdgeResult{Edges: ElementList{}}
	for e, err := range seq {
		if err != nil {
			return formatter.Fail("search edges", err)
		}
		edges = append(edges, e)
		result.Edges = append(result.Edges, edgeView(e))
	}
	formatter.VerboseLog("Found %d edge(s)", len(edges))

	if opts.Fetch && len(edges) > 0 {
		endpoints := distinctEndpoints(edges)
		if err := s.ctrl.FetchProperties(ctx, controller.DeferredVertexQuery{Vertices: endpoints}); err != nil {
			return formatter.Fail("fetch endpoints", err)
		}
		for _, v := range endpoints {
			result.Endpoints = append(result.Endpoints, vertexView(v))
		}
	}
	return formatter.Success(result)
}

// distinctEndpoints returns the endpoints of edges, one per identity, in
// first-seen order.
func distinctEndpoints(edges []*ir.Edge) []*ir.Vertex {
	seen := make(map[string]bool)
	var out []*ir.Vertex
	for _, e := range edges {
		for _, v := range e.Vertices(ir.DirectionBoth) {
			if v == nil {
				continue
			}
			key, err := ir.IdentityKey(v.ID)
			if err != nil || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, v)
		}
	}
	return out
}
