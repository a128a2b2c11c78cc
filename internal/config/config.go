package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GlobalFileName is the per-user config file in the home directory.
const GlobalFileName = ".mygitconfig"

// DefaultBranch is used when core.defaultBranch is unset.
const DefaultBranch = "main"

// Config represents mygit configuration
type Config struct {
	User  UserConfig  `json:"user"`
	Core  CoreConfig  `json:"core"`
	Color ColorConfig `json:"color"`
	Merge MergeConfig `json:"merge"`
}

// UserConfig holds user identity information
type UserConfig struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// CoreConfig holds repository defaults
type CoreConfig struct {
	DefaultBranch string `json:"default_branch,omitempty"`
}

// ColorConfig holds color settings. UI is "true" or "false"; empty means unset.
type ColorConfig struct {
	UI string `json:"ui,omitempty"`
}

// MergeConfig holds merge defaults
type MergeConfig struct {
	Strategy string `json:"strategy,omitempty"`
}

// Files names the config files consulted by Load. Empty paths are skipped.
type Files struct {
	Global string
	Repo   string
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Core:  CoreConfig{DefaultBranch: DefaultBranch},
		Color: ColorConfig{UI: "true"},
		Merge: MergeConfig{Strategy: "auto"},
	}
}

// GlobalPath returns the path to the global config file
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, GlobalFileName), nil
}

// RepoPath returns the path to the config file inside a repository directory
func RepoPath(repoDir string) string {
	return filepath.Join(repoDir, "config")
}

// DefaultFiles returns the global file and, when repoDir is non-empty, the
// repository file under it.
func DefaultFiles(repoDir string) Files {
	var f Files
	if p, err := GlobalPath(); err == nil {
		f.Global = p
	}
	if repoDir != "" {
		f.Repo = RepoPath(repoDir)
	}
	return f
}

// Load reads the global file, then the repository file on top of it.
// Missing files are ignored; malformed ones are an error.
func Load(files Files) (*Config, error) {
	cfg := DefaultConfig()
	for _, path := range []string{files.Global, files.Repo} {
		if path == "" {
			continue
		}
		fileCfg, err := readFile(path)
		if err != nil {
			return nil, err
		}
		if fileCfg != nil {
			mergeConfig(cfg, fileCfg)
		}
	}
	return cfg, nil
}

// SetValue writes key=value into the single config file at path, leaving
// other keys in that file untouched.
func SetValue(path, key, value string) error {
	cfg, err := readFile(path)
	if err != nil {
		return err
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	return save(path, cfg)
}

// Keys lists every supported key.
func Keys() []string {
	return []string{"user.name", "user.email", "core.defaultBranch", "color.ui", "merge.strategy"}
}

// Get retrieves a configuration value by key (e.g., "user.name")
func (c *Config) Get(key string) (string, error) {
	field, err := c.field(key)
	if err != nil {
		return "", err
	}
	return *field, nil
}

// Set sets a configuration value by key (e.g., "user.name", "Your Name")
func (c *Config) Set(key, value string) error {
	field, err := c.field(key)
	if err != nil {
		return err
	}
	if key == "color.ui" && value != "true" && value != "false" {
		return fmt.Errorf("color.ui must be true or false, got %q", value)
	}
	*field = value
	return nil
}

func (c *Config) field(key string) (*string, error) {
	section, name, ok := strings.Cut(key, ".")
	if !ok || name == "" {
		return nil, fmt.Errorf("invalid config key: %s (expected format: section.key)", key)
	}

	switch section {
	case "user":
		switch name {
		case "name":
			return &c.User.Name, nil
		case "email":
			return &c.User.Email, nil
		}
	case "core":
		if strings.EqualFold(name, "defaultBranch") {
			return &c.Core.DefaultBranch, nil
		}
	case "color":
		if name == "ui" {
			return &c.Color.UI, nil
		}
	case "merge":
		if name == "strategy" {
			return &c.Merge.Strategy, nil
		}
	default:
		return nil, fmt.Errorf("unknown config section: %s", section)
	}
	return nil, fmt.Errorf("unknown %s config field: %s", section, name)
}

// Author returns the formatted author string "Name <email>", or "" when no
// identity is configured.
func (c *Config) Author() string {
	switch {
	case c.User.Name != "" && c.User.Email != "":
		return fmt.Sprintf("%s <%s>", c.User.Name, c.User.Email)
	case c.User.Name != "":
		return c.User.Name
	case c.User.Email != "":
		return "<" + c.User.Email + ">"
	default:
		return ""
	}
}

// ColorEnabled reports whether CLI output should be colored.
func (c *Config) ColorEnabled() bool {
	return c.Color.UI != "false"
}

func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

func save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// mergeConfig merges source config into destination config
// Only non-empty values from source override destination
func mergeConfig(dst, src *Config) {
	if src.User.Name != "" {
		dst.User.Name = src.User.Name
	}
	if src.User.Email != "" {
		dst.User.Email = src.User.Email
	}
	if src.Core.DefaultBranch != "" {
		dst.Core.DefaultBranch = src.Core.DefaultBranch
	}
	if src.Color.UI != "" {
		dst.Color.UI = src.Color.UI
	}
	if src.Merge.Strategy != "" {
		dst.Merge.Strategy = src.Merge.Strategy
	}
}
