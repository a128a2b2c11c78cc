package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/javanhut/mygit/internal/colors"
	"github.com/spf13/cobra"
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Manage remote repositories",
	Long:  `List, add or remove remotes. A remote is a directory on the local filesystem that receives pushed history.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepository()
		if err != nil {
			return err
		}
		defer r.Close()

		remotes, err := r.Remotes()
		if err != nil {
			return err
		}
		if len(remotes) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No remotes configured.")
			fmt.Fprintln(cmd.OutOrStdout(), "Use 'mygit remote add <name> <path>' to add one.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, rm := range remotes {
			fmt.Fprintf(w, "%s\t%s\n", rm.Name, rm.Path)
		}
		return w.Flush()
	},
}

var remoteAddCmd = &cobra.Command{
	Use:   "add <name> <path>",
	Short: "Add a remote",
	Long: `Register a directory as a push destination. The directory is created on the first push.
Examples:
  mygit remote add origin /srv/backup/project`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepository()
		if err != nil {
			return err
		}
		defer r.Close()

		if err := r.AddRemote(args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Added remote %s\n", colors.SuccessText("[OK]"), colors.Bold(args[0]))
		return nil
	},
}

var remoteRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a remote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepository()
		if err != nil {
			return err
		}
		defer r.Close()

		if err := r.RemoveRemote(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Removed remote %s\n", colors.SuccessText("[OK]"), colors.Bold(args[0]))
		return nil
	},
}

var pushCmd = &cobra.Command{
	Use:   "push [remote] [branch]",
	Short: "Copy a branch's history to a remote",
	Long: `Copy every commit and blob the remote lacks, then move the remote's branch
to the local tip. Defaults to the origin remote and the current branch.

Examples:
  mygit push
  mygit push origin feature`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepository()
		if err != nil {
			return err
		}
		defer r.Close()

		var remoteName, branch string
		if len(args) > 0 {
			remoteName = args[0]
		}
		if len(args) > 1 {
			branch = args[1]
		}

		stats, err := r.Push(cmd.Context(), remoteName, branch)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if stats.UpToDate() {
			fmt.Fprintf(out, "Everything up to date (%s at %s)\n", stats.Branch, colors.Yellow(stats.Tip.Short()))
			return nil
		}
		fmt.Fprintf(out, "Pushed %s: %d %s, %d %s\n", colors.Bold(stats.Branch),
			stats.Commits, plural(stats.Commits, "commit", "commits"),
			stats.Blobs, plural(stats.Blobs, "blob", "blobs"))
		fmt.Fprintf(out, "%s -> %s\n", colors.Yellow(stats.Tip.Short()), stats.Branch)
		return nil
	},
}
