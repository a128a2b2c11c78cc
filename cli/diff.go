package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/javanhut/mygit/internal/colors"
	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff [options] [<path>...]",
	Short: "Show staged changes against the current commit",
	Long: `Show the staged content of files against the current commit as a unified diff.

Examples:
  mygit diff                     # Every staged file
  mygit diff src/main.go         # One file
  mygit diff --stat              # Show summary statistics only`,
	RunE: runDiff,
}

var diffStat bool

func init() {
	diffCmd.Flags().BoolVar(&diffStat, "stat", false, "Show only statistics")
}

func runDiff(cmd *cobra.Command, args []string) error {
	r, err := openRepository()
	if err != nil {
		return err
	}
	defer r.Close()

	patch, err := r.Diff(args...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if patch == "" {
		fmt.Fprintln(out, colors.Gray("No staged changes."))
		return nil
	}
	if diffStat {
		displayDiffStat(out, patch)
		return nil
	}
	fmt.Fprint(out, colors.Diff(patch))
	return nil
}

type fileStat struct {
	path               string
	additions, removed int
	binary             bool
}

// diffStats counts added and removed lines per file in a unified diff.
func diffStats(patch string) []fileStat {
	var stats []fileStat
	lines := strings.Split(patch, "\n")
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		switch {
		case strings.HasPrefix(line, "--- ") && i+1 < len(lines) && strings.HasPrefix(lines[i+1], "+++ "):
			from := strings.TrimPrefix(line, "--- ")
			to := strings.TrimPrefix(lines[i+1], "+++ ")
			stats = append(stats, fileStat{path: headerPath(from, to)})
			i++
		case strings.HasPrefix(line, "Binary files ") && strings.HasSuffix(line, " differ"):
			from, to, _ := strings.Cut(strings.TrimSuffix(strings.TrimPrefix(line, "Binary files "), " differ"), " and ")
			stats = append(stats, fileStat{path: headerPath(from, to), binary: true})
		case len(stats) == 0 || strings.HasPrefix(line, "@@"):
		case strings.HasPrefix(line, "+"):
			stats[len(stats)-1].additions++
		case strings.HasPrefix(line, "-"):
			stats[len(stats)-1].removed++
		}
	}
	return stats
}

func headerPath(from, to string) string {
	if to != "/dev/null" {
		return strings.TrimPrefix(to, "b/")
	}
	return strings.TrimPrefix(from, "a/")
}

func displayDiffStat(w io.Writer, patch string) {
	var adds, dels int
	stats := diffStats(patch)
	for _, s := range stats {
		if s.binary {
			fmt.Fprintf(w, " %s | %s\n", s.path, colors.Gray("Bin"))
			continue
		}
		fmt.Fprintf(w, " %s | %s %s\n", s.path, colors.Green(fmt.Sprintf("+%d", s.additions)), colors.Red(fmt.Sprintf("-%d", s.removed)))
		adds += s.additions
		dels += s.removed
	}
	fmt.Fprintf(w, " %d %s changed, %d insertions(+), %d deletions(-)\n", len(stats), plural(len(stats), "file", "files"), adds, dels)
}
