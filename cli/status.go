package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/javanhut/mygit/internal/colors"
	"github.com/javanhut/mygit/internal/repo"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the working directory status",
	Long:  `Shows the current branch, staged changes, changes not yet staged, untracked files and any merge awaiting resolution`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepository()
		if err != nil {
			return err
		}
		defer r.Close()

		st, err := r.Status()
		if err != nil {
			return err
		}
		displayStatus(cmd.OutOrStdout(), st)
		return nil
	},
}

func displayStatus(w io.Writer, st *repo.Status) {
	fmt.Fprintf(w, "On branch %s\n", colors.Bold(st.Branch))
	if st.Tip == nil {
		fmt.Fprintln(w, colors.Gray("No commits yet"))
	}

	if st.Merge != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s merging %s into %s\n", colors.WarningText("Merge in progress:"), colors.Bold(st.Merge.Branch), colors.Bold(st.Merge.Into))
		fmt.Fprintln(w, "  (fix conflicts and run \"mygit add\" then \"mygit commit\")")
		fmt.Fprintln(w, "  (use \"mygit merge --abort\" to abandon the merge)")
	}

	if st.Clean() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, colors.SuccessText("nothing to commit, working tree clean"))
		return
	}

	if len(st.Staged) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, colors.SectionHeader("Changes to be committed:"))
		for _, e := range st.Staged {
			fmt.Fprintln(w, colors.FileStatus(string(e.Change), e.Path))
		}
	}

	var changed, untracked []repo.Entry
	for _, e := range st.Unstaged {
		if e.Change == repo.Untracked {
			untracked = append(untracked, e)
		} else {
			changed = append(changed, e)
		}
	}

	if len(changed) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, colors.SectionHeader("Changes not staged for commit:"))
		for _, e := range changed {
			fmt.Fprintln(w, colors.FileStatus(string(e.Change), e.Path))
		}
	}

	if len(untracked) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, colors.SectionHeader("Untracked files:"))
		paths := make([]string, len(untracked))
		for i, e := range untracked {
			paths[i] = "  " + e.Path
		}
		fmt.Fprintln(w, colors.Red(strings.Join(paths, "\n")))
	}
}
