package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/javanhut/mygit/internal/colors"
	"github.com/javanhut/mygit/internal/config"
	"github.com/javanhut/mygit/internal/repo"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get and set configuration options",
	Long: `Get and set mygit configuration options.

Configuration can be set at two levels:
- Global (~/.mygitconfig) - applies to all repositories
- Repository (.mygit/config) - applies to current repository only

Keys: user.name, user.email, core.defaultBranch, color.ui, merge.strategy

Examples:
  mygit config user.name "Your Name"
  mygit config user.email "you@example.com"
  mygit config --global user.name "Your Name"
  mygit config --list
  mygit config user.name`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

var (
	configGlobal bool
	configList   bool
)

func init() {
	configCmd.Flags().BoolVar(&configGlobal, "global", false, "Use global config file")
	configCmd.Flags().BoolVar(&configList, "list", false, "List all configuration")
}

func runConfig(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if configList {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return listConfig(out, cfg)
	}

	switch len(args) {
	case 1:
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		value, err := cfg.Get(args[0])
		if err != nil {
			return err
		}
		if value == "" {
			fmt.Fprintf(out, "%s is %s\n", args[0], colors.Gray("(not set)"))
		} else {
			fmt.Fprintln(out, value)
		}
		return nil

	case 2:
		return setConfigValue(out, args[0], args[1])
	}

	return fmt.Errorf("invalid usage. See: mygit config --help")
}

// repoDir returns the repository directory under the -C directory, or "" when
// there is none.
func repoDir() string {
	dir := filepath.Join(workDir, repo.DirName)
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir
	}
	return ""
}

// loadConfig reads the global config and, inside a repository, the
// repository config on top of it.
func loadConfig() (*config.Config, error) {
	return config.Load(config.DefaultFiles(repoDir()))
}

func listConfig(w io.Writer, cfg *config.Config) error {
	fmt.Fprintln(w, colors.SectionHeader("Configuration:"))
	for _, key := range config.Keys() {
		value, err := cfg.Get(key)
		if err != nil {
			return err
		}
		if value == "" {
			fmt.Fprintf(w, "  %s = %s\n", key, colors.Gray("(not set)"))
		} else {
			fmt.Fprintf(w, "  %s = %s\n", key, colors.InfoText(value))
		}
	}
	return nil
}

func setConfigValue(w io.Writer, key, value string) error {
	scope := "repository"
	var path string
	if configGlobal {
		scope = "global"
		p, err := config.GlobalPath()
		if err != nil {
			return err
		}
		path = p
	} else {
		dir := repoDir()
		if dir == "" {
			return errors.Join(repo.ErrNotInitialized, errors.New("use --global outside a repository"))
		}
		path = config.RepoPath(dir)
	}

	if err := config.SetValue(path, key, value); err != nil {
		return err
	}

	fmt.Fprintf(w, "%s %s config: %s = %s\n",
		colors.SuccessText("Set"),
		scope,
		colors.Bold(key),
		colors.InfoText(value))

	// Nudge towards a complete identity
	if key == "user.name" || key == "user.email" {
		cfg, err := loadConfig()
		if err == nil && (cfg.User.Name == "" || cfg.User.Email == "") {
			fmt.Fprintln(w)
			fmt.Fprintln(w, colors.Dim("Hint: Make sure to also set:"))
			if cfg.User.Name == "" {
				fmt.Fprintf(w, "  %s\n", colors.InfoText("mygit config user.name \"Your Name\""))
			}
			if cfg.User.Email == "" {
				fmt.Fprintf(w, "  %s\n", colors.InfoText("mygit config user.email \"you@example.com\""))
			}
		}
	}
	return nil
}
