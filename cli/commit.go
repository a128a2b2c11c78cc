package cli

import (
	"errors"
	"fmt"

	"github.com/javanhut/mygit/internal/colors"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <path>...",
	Short: "Stage files for the next commit",
	Long: `Store the named files and stage them for the next commit.
Directories are added recursively; paths matched by .mygitignore are skipped.

Examples:
  mygit add README.md
  mygit add .`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var unstageCmd = &cobra.Command{
	Use:   "unstage <path>...",
	Short: "Drop files from the staging index",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runUnstage,
}

var commitCmd = &cobra.Command{
	Use:   "commit [message]",
	Short: "Record staged changes",
	Long: `Create a commit on the current branch from the staged changes.

Examples:
  mygit commit "Add parser"
  mygit commit -m "Add parser"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCommit,
}

var restoreCmd = &cobra.Command{
	Use:   "restore <path>",
	Short: "Restore a file from the current commit",
	Args:  cobra.ExactArgs(1),
	RunE:  runRestore,
}

var commitMessage string

func init() {
	commitCmd.Flags().StringVarP(&commitMessage, "message", "m", "", "Commit message")
	rootCmd.AddCommand(unstageCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	r, err := openRepository()
	if err != nil {
		return err
	}
	defer r.Close()

	staged, err := r.Add(args...)
	if err != nil {
		return err
	}
	if len(staged) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), colors.Gray("Nothing to add."))
		return nil
	}
	for _, p := range staged {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", colors.Green("staged"), p)
	}
	return nil
}

func runUnstage(cmd *cobra.Command, args []string) error {
	r, err := openRepository()
	if err != nil {
		return err
	}
	defer r.Close()

	if err := r.Unstage(args...); err != nil {
		return err
	}
	for _, p := range args {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", colors.Yellow("unstaged"), p)
	}
	return nil
}

func runCommit(cmd *cobra.Command, args []string) error {
	message := commitMessage
	if len(args) == 1 {
		if message != "" {
			return errors.New("give the message either as an argument or with -m, not both")
		}
		message = args[0]
	}

	r, err := openRepository()
	if err != nil {
		return err
	}
	defer r.Close()

	c, err := r.Commit(message)
	if err != nil {
		return err
	}

	label := c.Branch
	if c.IsMerge {
		label += " merge"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "[%s %s] %s\n", colors.Bold(label), colors.Yellow(c.Hash.Short()), c.Summary())
	fmt.Fprintf(cmd.OutOrStdout(), " %d %s in snapshot\n", len(c.Files), plural(len(c.Files), "file", "files"))
	return nil
}

func runRestore(cmd *cobra.Command, args []string) error {
	r, err := openRepository()
	if err != nil {
		return err
	}
	defer r.Close()

	if err := r.Restore(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", colors.Green("restored"), args[0])
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
