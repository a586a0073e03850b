package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vclabs/vc/pkg/repo"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show working tree status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			st, err := r.Status()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			switch {
			case st.Detached:
				fmt.Fprintln(out, "HEAD detached")
			case !st.HasCommit:
				fmt.Fprintf(out, "on %s (no commits yet)\n", st.Branch)
			default:
				fmt.Fprintf(out, "on %s\n", st.Branch)
			}

			if st.Clean() {
				fmt.Fprintln(out, "nothing to commit, working tree clean")
				return nil
			}

			if len(st.Staged) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "staged:")
				for _, s := range st.Staged {
					switch s.Kind {
					case repo.StagedNew:
						fmt.Fprintf(out, "  + %s\n", s.Path)
					case repo.StagedModified:
						fmt.Fprintf(out, "  ~ %s\n", s.Path)
					}
				}
			}

			if len(st.NotStaged) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "not staged:")
				for _, p := range st.NotStaged {
					fmt.Fprintf(out, "  ~ %s\n", p)
				}
			}

			if len(st.Deleted) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "deleted:")
				for _, p := range st.Deleted {
					fmt.Fprintf(out, "  - %s\n", p)
				}
			}

			if len(st.Untracked) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "untracked:")
				for _, p := range st.Untracked {
					fmt.Fprintf(out, "  %s\n", p)
				}
			}

			return nil
		},
	}
}
