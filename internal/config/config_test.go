package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load(Files{})
	require.NoError(t, err)

	assert.Equal(t, "main", cfg.Core.DefaultBranch)
	assert.True(t, cfg.ColorEnabled())
	assert.Equal(t, "auto", cfg.Merge.Strategy)
	assert.Empty(t, cfg.Author())
}

func TestRepoOverridesGlobal(t *testing.T) {
	dir := t.TempDir()
	files := Files{
		Global: filepath.Join(dir, GlobalFileName),
		Repo:   filepath.Join(dir, "repo", "config"),
	}

	require.NoError(t, SetValue(files.Global, "user.name", "Global Name"))
	require.NoError(t, SetValue(files.Global, "user.email", "global@example.com"))
	require.NoError(t, SetValue(files.Repo, "user.name", "Repo Name"))
	require.NoError(t, SetValue(files.Repo, "color.ui", "false"))

	cfg, err := Load(files)
	require.NoError(t, err)

	assert.Equal(t, "Repo Name <global@example.com>", cfg.Author())
	assert.False(t, cfg.ColorEnabled())
	assert.Equal(t, "main", cfg.Core.DefaultBranch, "unset keys keep defaults")
}

func TestGetSet(t *testing.T) {
	cfg := DefaultConfig()

	for _, key := range Keys() {
		_, err := cfg.Get(key)
		assert.NoError(t, err, key)
	}

	require.NoError(t, cfg.Set("core.defaultBranch", "trunk"))
	v, err := cfg.Get("core.defaultBranch")
	require.NoError(t, err)
	assert.Equal(t, "trunk", v)

	assert.Error(t, cfg.Set("color.ui", "sometimes"))
	_, err = cfg.Get("nosection")
	assert.Error(t, err)
	_, err = cfg.Get("user.phone")
	assert.Error(t, err)
	_, err = cfg.Get("bogus.key")
	assert.Error(t, err)
}

func TestSetValueKeepsOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, SetValue(path, "user.name", "A"))
	require.NoError(t, SetValue(path, "merge.strategy", "theirs"))

	cfg, err := Load(Files{Repo: path})
	require.NoError(t, err)
	assert.Equal(t, "A", cfg.User.Name)
	assert.Equal(t, "theirs", cfg.Merge.Strategy)
}

func TestMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := Load(Files{Repo: path})
	assert.Error(t, err)
}
