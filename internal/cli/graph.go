package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kurobon/gitlanes/internal/state"
)

func newGraphCmd() *cobra.Command {
	var (
		flags repoFlags
		query state.Query
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the laid out commit graph as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := flags.load()
			if err != nil {
				return err
			}

			m, err := state.NewManager(cfg.RepoPath, cfg, logger)
			if err != nil {
				return err
			}

			prog := newProgress(logger)
			graphState, err := m.GetGraphState(ctx, query)
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Laid out %d commits across %d lanes", len(graphState.Commits), graphState.MaxLane+1))

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(graphState)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&query.Ref, "ref", "", "start at this revision instead of HEAD")
	cmd.Flags().IntVar(&query.Limit, "limit", 0, "maximum number of commits (default: configured history limit)")
	cmd.Flags().StringVar(&query.Search, "search", "", "keep commits whose subject, author or ID contains this")
	cmd.Flags().BoolVar(&query.All, "all", false, "walk every branch, remote branch and tag")
	return cmd
}
