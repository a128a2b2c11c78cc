package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/javanhut/mygit/internal/colors"
	"github.com/javanhut/mygit/internal/merge"
	"github.com/spf13/cobra"
)

var mergeCmd = &cobra.Command{
	Use:   "merge <branch>",
	Short: "Merge a branch into the current branch",
	Long: `Merge the history of another branch into the current branch.

The merge is a no-op when both tips are equal, a fast-forward when the
current branch has not diverged, and otherwise a whole-file three-way merge
against the common ancestor. Conflicted files receive conflict markers and
stay staged until the resolution is committed.

Examples:
  mygit merge feature                       # Auto strategy
  mygit merge --strategy=theirs feature     # Accept the incoming version on conflict
  mygit merge --strategy=ours feature       # Keep the current version on conflict
  mygit merge --abort                       # Abort a conflicted merge

Strategies:
  auto    - Leave conflicts for manual resolution (default)
  ours    - Keep the current branch's version
  theirs  - Take the incoming branch's version
  union   - Concatenate both versions`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMerge,
}

var (
	mergeAbort    bool
	mergeStrategy string
)

func init() {
	mergeCmd.Flags().BoolVar(&mergeAbort, "abort", false, "Abort the current merge")
	mergeCmd.Flags().StringVar(&mergeStrategy, "strategy", "", "Merge strategy (auto, ours, theirs, union); defaults to merge.strategy")
}

func runMerge(cmd *cobra.Command, args []string) error {
	r, err := openRepository()
	if err != nil {
		return err
	}
	defer r.Close()

	out := cmd.OutOrStdout()

	if mergeAbort {
		if len(args) > 0 {
			return errors.New("--abort takes no branch")
		}
		if err := r.AbortMerge(); err != nil {
			return err
		}
		fmt.Fprintln(out, "Merge aborted.")
		return nil
	}

	if len(args) == 0 {
		return errors.New("branch required. Use: mygit merge <branch>")
	}

	result, err := r.Merge(args[0], mergeStrategy)
	if err != nil {
		return err
	}
	displayMergeResult(out, result)
	return nil
}

func displayMergeResult(w io.Writer, res *merge.Result) {
	switch res.Kind {
	case merge.UpToDate:
		fmt.Fprintln(w, "Already up to date.")

	case merge.FastForward:
		fmt.Fprintf(w, "%s %s into %s\n", colors.Cyan(">>"), colors.Bold(res.Incoming), colors.Bold(res.Current))
		fmt.Fprintf(w, "Fast-forward to %s\n", colors.Yellow(res.Commit.Short()))

	case merge.Merged:
		fmt.Fprintf(w, "%s %s into %s\n", colors.Cyan(">>"), colors.Bold(res.Incoming), colors.Bold(res.Current))
		for _, p := range res.Resolved {
			fmt.Fprintf(w, "  %s %s\n", colors.Yellow("resolved"), p)
		}
		fmt.Fprintf(w, "%s Merge commit %s\n", colors.SuccessText("[OK]"), colors.Yellow(res.Commit.Short()))

	case merge.Conflicted:
		fmt.Fprintf(w, "%s %s into %s\n", colors.Cyan(">>"), colors.Bold(res.Incoming), colors.Bold(res.Current))
		for _, p := range res.Resolved {
			fmt.Fprintf(w, "  %s %s\n", colors.Yellow("resolved"), p)
		}
		for _, p := range res.Conflicts {
			fmt.Fprintf(w, "  %s %s\n", colors.ErrorText("CONFLICT"), p)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Automatic merge failed; fix the conflicts, then run \"mygit add\" and \"mygit commit\".")
		fmt.Fprintln(w, "Use \"mygit merge --abort\" to give up.")
	}
}
