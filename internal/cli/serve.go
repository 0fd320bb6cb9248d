package cli

import (
	"github.com/spf13/cobra"

	"github.com/kurobon/gitlanes/internal/server"
	"github.com/kurobon/gitlanes/internal/state"
)

func newServeCmd() *cobra.Command {
	var (
		flags repoFlags
		addr  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the commit graph over HTTP",
		Long: `Serve the commit graph of a repository over HTTP.

Endpoints:
  GET /api/graph?ref=&limit=&search=&all=   laid out history
  GET /api/commits/{id}/diff                changes of one commit
  GET /api/refs                             HEAD, branches and tags
  GET /api/ws                               change notifications`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}

			m, err := state.NewManager(cfg.RepoPath, cfg, logger)
			if err != nil {
				return err
			}
			return server.NewServer(m, logger).ListenAndServe(ctx, cfg.Addr)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: $GITLANES_ADDR or :8080)")
	return cmd
}
