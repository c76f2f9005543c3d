package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nydauron/whistledger/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, resolved, exists, err := config.Load("")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, filepath.Join(home, ".config", "whistledger", "config.toml"), resolved)

	assert.Equal(t, "local", cfg.Source.SheetID)
	assert.Equal(t, 30, cfg.Source.FetchTimeout)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, filepath.Join(home, ".cache", "whistledger", "cache.db"), cfg.Cache.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "table", cfg.Output.Format)

	assert.ErrorContains(t, cfg.RequireSources(), "source.players")
}

func TestLoadFileAndEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("WHISTLEDGER_LOG_LEVEL", "DEBUG")
	t.Setenv("WHISTLEDGER_CACHE_ENABLED", "false")

	path := writeConfig(t, `
[source]
sheet_id = "club"
players = "~/whist/players.csv"
tournaments = "https://example.com/sheet/pub?gid=1&output=csv"
scorecards = ["~/whist/a.csv", "", "b.tsv"]

[output]
format = "JSON"
`)

	cfg, resolved, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, path, resolved)

	assert.Equal(t, "club", cfg.Source.SheetID)
	assert.Equal(t, filepath.Join(home, "whist", "players.csv"), cfg.Source.Players)
	assert.Equal(t, "https://example.com/sheet/pub?gid=1&output=csv", cfg.Source.Tournaments)
	require.Len(t, cfg.Source.Scorecards, 2)
	assert.Equal(t, filepath.Join(home, "whist", "a.csv"), cfg.Source.Scorecards[0])
	assert.True(t, filepath.IsAbs(cfg.Source.Scorecards[1]))

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.NoError(t, cfg.RequireSources())
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeConfig(t, "[source]\nsheet = \"typo\"\n")

	_, _, _, err := config.Load(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestLoadValidates(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeConfig(t, `
[source]
fetch_timeout = 0

[logging]
level = "loud"
`)

	_, _, _, err := config.Load(path)
	require.Error(t, err)
	assert.ErrorContains(t, err, "source.fetch_timeout")
	assert.ErrorContains(t, err, "logging.level")
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, _, _, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestCreateSampleLoads(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "conf", "config.toml")

	require.NoError(t, config.CreateSample(path))
	cfg, _, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, filepath.Join(home, "whist", "tournaments.csv"), cfg.Source.Tournaments)
	assert.Empty(t, cfg.Source.TieBreakers)
}

func TestIsURL(t *testing.T) {
	assert.True(t, config.IsURL("https://docs.example.com/x"))
	assert.True(t, config.IsURL("http://localhost:8080/a.csv"))
	assert.False(t, config.IsURL("/tmp/a.csv"))
	assert.False(t, config.IsURL("ftp://host/a.csv"))
}
