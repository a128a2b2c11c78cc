package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/javanhut/mygit/internal/colors"
	"github.com/javanhut/mygit/internal/commit"
	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log [options] [branch]",
	Short: "Show commit history",
	Long: `Display the first-parent history of a branch, newest first.
Without a branch the current one is shown.

Examples:
  mygit log                  # Show all commits
  mygit log --oneline        # Show concise one-line format
  mygit log --limit 10       # Show only last 10 commits
  mygit log feature          # Show the history of feature`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLog,
}

var (
	logOneline bool
	logLimit   int
)

func init() {
	logCmd.Flags().BoolVar(&logOneline, "oneline", false, "Show one line per commit")
	logCmd.Flags().IntVar(&logLimit, "limit", 0, "Limit number of commits to show")
}

func runLog(cmd *cobra.Command, args []string) error {
	r, err := openRepository()
	if err != nil {
		return err
	}
	defer r.Close()

	var branch string
	if len(args) == 1 {
		branch = args[0]
	}

	commits, err := r.Log(branch, logLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(commits) == 0 {
		fmt.Fprintln(out, "No commits yet.")
		return nil
	}

	if logOneline {
		displayCommitsOneline(out, commits)
	} else {
		displayCommitsFull(out, commits, time.Now())
	}
	return nil
}

// displayCommitsFull displays commits in full format
func displayCommitsFull(w io.Writer, commits []*commit.Commit, now time.Time) {
	for i, c := range commits {
		header := fmt.Sprintf("%s %s", colors.Cyan("commit"), colors.Bold(c.Hash.String()))
		if c.IsMerge {
			header += colors.Gray(" (merge)")
		}
		fmt.Fprintln(w, header)

		if c.IsMerge {
			fmt.Fprintf(w, "Merge:  %s %s\n", c.Parent.Short(), c.MergeParent.Short())
		}
		if c.Author != "" {
			fmt.Fprintf(w, "Author: %s\n", colors.InfoText(c.Author))
		}
		fmt.Fprintf(w, "Date:   %s (%s)\n",
			c.Timestamp.Local().Format("Mon Jan 2 15:04:05 2006"),
			colors.Gray(relativeTime(c.Timestamp, now)))
		fmt.Fprintf(w, "Branch: %s\n", c.Branch)

		fmt.Fprintf(w, "\n    %s\n", c.Message)

		if i < len(commits)-1 {
			fmt.Fprintln(w)
		}
	}
}

// displayCommitsOneline displays commits in one-line format
func displayCommitsOneline(w io.Writer, commits []*commit.Commit) {
	for _, c := range commits {
		message := c.Summary()
		if len(message) > 60 {
			message = message[:57] + "..."
		}
		fmt.Fprintf(w, "%s %s\n", colors.Cyan(c.Hash.Short()), message)
	}
}

// relativeTime returns a human-readable relative time string
func relativeTime(t, now time.Time) string {
	diff := now.Sub(t)

	if diff < time.Minute {
		return "just now"
	}
	if diff < time.Hour {
		return ago(int(diff.Minutes()), "minute")
	}
	if diff < 24*time.Hour {
		return ago(int(diff.Hours()), "hour")
	}
	if diff < 7*24*time.Hour {
		return ago(int(diff.Hours()/24), "day")
	}
	if diff < 30*24*time.Hour {
		return ago(int(diff.Hours()/24/7), "week")
	}
	if diff < 365*24*time.Hour {
		return ago(int(diff.Hours()/24/30), "month")
	}
	return ago(int(diff.Hours()/24/365), "year")
}

func ago(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
