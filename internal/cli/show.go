package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kurobon/gitlanes/internal/git"
	"github.com/kurobon/gitlanes/internal/state"
)

func newShowCmd() *cobra.Command {
	var (
		flags      repoFlags
		nameStatus bool
	)

	cmd := &cobra.Command{
		Use:   "show [commit]",
		Short: "Print the changes of a commit against its first parent",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rev := "HEAD"
			if len(args) == 1 {
				rev = args[0]
			}

			cfg, err := flags.load()
			if err != nil {
				return err
			}
			m, err := state.NewManager(cfg.RepoPath, cfg, loggerFromContext(cmd.Context()))
			if err != nil {
				return err
			}

			diff, err := m.GetDiff(cmd.Context(), rev)
			if err != nil {
				return err
			}
			if nameStatus {
				return writeNameStatus(cmd.OutOrStdout(), diff)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), diff.Patch)
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&nameStatus, "name-status", false, "print only the status and path of each changed file")
	return cmd
}

func writeNameStatus(w io.Writer, diff *git.Diff) error {
	for _, f := range diff.Files {
		var err error
		if f.Status == "R" {
			_, err = fmt.Fprintf(w, "%s\t%s\t%s\n", f.Status, f.From, f.Path)
		} else {
			_, err = fmt.Fprintf(w, "%s\t%s\n", f.Status, f.Path)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
