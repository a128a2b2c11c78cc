package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/javanhut/mygit/internal/colors"
	"github.com/javanhut/mygit/internal/repo"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mygit",
	Short: "mygit is a minimal version control system",
	Long: `mygit tracks snapshots of a working tree in a content-addressed store,
keeps branches of commits and merges them with a whole-file three-way merge.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize",
	Long:  "Creates an empty mygit repository in the working directory",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

var (
	verbose bool
	workDir string

	logger = slog.Default()
)

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug details to stderr")
	rootCmd.PersistentFlags().StringVarP(&workDir, "directory", "C", ".", "Run as if mygit was started in `dir`")

	// Core commands
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(addCmd, commitCmd, statusCmd, logCmd, diffCmd, restoreCmd)

	// Branches and merging
	rootCmd.AddCommand(branchCmd, checkoutCmd, mergeCmd)

	// Remotes
	rootCmd.AddCommand(remoteCmd, pushCmd)
	remoteCmd.AddCommand(remoteAddCmd, remoteRemoveCmd)

	rootCmd.AddCommand(configCmd)
}

func setupLogging(cmd *cobra.Command, args []string) error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

// openRepository opens the repository rooted at the -C directory and applies
// its color preference.
func openRepository() (*repo.Repository, error) {
	r, err := repo.Open(workDir, repo.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if !r.Config.ColorEnabled() {
		colors.SetColorEnabled(false)
	}
	return r, nil
}

func runInit(cmd *cobra.Command, args []string) error {
	r, err := repo.Init(workDir, repo.WithLogger(logger))
	if errors.Is(err, repo.ErrAlreadyInitialized) {
		return fmt.Errorf("%w (in %s)", err, workDir)
	}
	if err != nil {
		return err
	}
	defer r.Close()

	branch, err := r.Refs.CurrentBranch()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Initialized empty mygit repository in %s\n", r.Dir)
	fmt.Fprintf(cmd.OutOrStdout(), "Default branch: %s\n", colors.Bold(branch))
	return nil
}
