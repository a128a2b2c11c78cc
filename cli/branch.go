package cli

import (
	"fmt"
	"io"

	"github.com/javanhut/mygit/internal/colors"
	"github.com/javanhut/mygit/internal/repo"
	"github.com/spf13/cobra"
)

var branchCmd = &cobra.Command{
	Use:   "branch [name]",
	Short: "List or create branches",
	Long: `Without arguments, list every branch and mark the current one.
With a name, create a branch at the current branch's tip.

Examples:
  mygit branch
  mygit branch feature`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBranch,
}

var checkoutCmd = &cobra.Command{
	Use:   "checkout <branch>",
	Short: "Switch the current branch",
	Long: `Point HEAD at another branch. The working tree and the staging index
are left untouched; use "mygit restore" to materialise files.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepository()
		if err != nil {
			return err
		}
		defer r.Close()

		if err := r.Checkout(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Switched to branch %s\n", colors.Bold(args[0]))
		return nil
	},
}

func runBranch(cmd *cobra.Command, args []string) error {
	r, err := openRepository()
	if err != nil {
		return err
	}
	defer r.Close()

	if len(args) == 1 {
		if err := r.CreateBranch(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created branch %s\n", colors.Bold(args[0]))
		return nil
	}

	branches, err := r.Branches()
	if err != nil {
		return err
	}
	displayBranches(cmd.OutOrStdout(), branches)
	return nil
}

func displayBranches(w io.Writer, branches []repo.BranchInfo) {
	for _, b := range branches {
		tip := colors.Gray("(no commits)")
		if b.Tip != nil {
			tip = colors.Yellow(b.Tip.Short())
		}
		if b.Current {
			fmt.Fprintf(w, "* %s %s\n", colors.Green(b.Name), tip)
		} else {
			fmt.Fprintf(w, "  %s %s\n", b.Name, tip)
		}
	}
}
