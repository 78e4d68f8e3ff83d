package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// InitResult lists the tables init created.
type InitResult struct {
	Tables []string `json:"tables"`
}

func (r InitResult) String() string {
	return fmt.Sprintf("created %d table(s): %v", len(r.Tables), r.Tables)
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the tables of every definition",
		Long: `Create a backing table for every CUE definition.

Tables that already exist are left alone, so init can be rerun after new
definitions are added.

Example:
  rowgraph init --schema ./graph.cue --db ./graph.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(rootOpts, cmd)
		},
	}
	return cmd
}

func runInit(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	s, err := openSession(cmd.Context(), opts, formatter.GetErrWriter())
	if err != nil {
		return formatter.Fail("open graph", err)
	}
	defer s.Close()

	if err := s.store.CreateTables(cmd.Context(), s.defs); err != nil {
		return formatter.Fail("create tables", err)
	}

	tables := make([]string, len(s.defs))
	for i, d := range s.defs {
		tables[i] = d.Table
	}
	s.logger.Info("tables created", "count", len(tables))
	return formatter.Success(InitResult{Tables: tables})
}
