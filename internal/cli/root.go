// Package cli implements the gitlanes command-line interface.
//
// The commands share one configuration layer:
//   - serve: serve the commit graph of a repository over HTTP, pushing
//     change notifications over a websocket
//   - graph: print the laid out graph as JSON
//   - show: print the diff of one commit
//
// Every command accepts --verbose (-v) for debug logging. The logger travels
// through context.Context.
package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/kurobon/gitlanes/internal/config"
)

var (
	version = "dev"
	commit  string
	date    string
)

// SetVersion sets the version information displayed by --version.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "gitlanes",
		Short:         "gitlanes lays out git history as lanes and serves it",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(cmd.ErrOrStderr(), level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("gitlanes %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newServeCmd())
	root.AddCommand(newGraphCmd())
	root.AddCommand(newShowCmd())
	return root
}

// Execute runs the CLI until ctx is cancelled.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// repoFlags are shared by every command that opens a repository.
type repoFlags struct {
	repo       string
	configFile string
}

func (f *repoFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.repo, "repo", "", "repository path (default: $GITLANES_REPO or .)")
	cmd.Flags().StringVar(&f.configFile, "config", "", "YAML config file")
}

// load reads the config file and applies flag overrides.
func (f *repoFlags) load() (*config.Config, error) {
	cfg, err := config.Load(f.configFile)
	if err != nil {
		return nil, err
	}
	if f.repo != "" {
		cfg.RepoPath = f.repo
	}
	return cfg, nil
}
