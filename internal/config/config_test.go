package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, "git", cfg.Tracker.Type)
	require.Equal(t, "merge", cfg.Merge.MarkerStyle)
	require.Equal(t, "info", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())
}

func TestConfig_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".thalo", "config.yaml")

	cfg := DefaultConfig()
	cfg.Tracker.Type = "ts"
	cfg.Merge.MarkerStyle = "diff3"
	cfg.RulesOff = []string{"unknown-field"}
	cfg.RuleSeverities = map[string]string{"unresolved-link": "warning"}

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "ts", loaded.Tracker.Type)
	require.Equal(t, "diff3", loaded.Merge.MarkerStyle)
	require.Equal(t, []string{"unknown-field"}, loaded.RulesOff)
	require.Equal(t, "warning", loaded.RuleSeverities["unresolved-link"])
}

func TestConfig_LoadMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tracker.Type = "bogus"
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Merge.MarkerStyle = "bogus"
	require.Error(t, cfg.Validate())
}

func TestConfig_EffectiveSeverity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RulesOff = []string{"unknown-field"}
	cfg.RuleSeverities = map[string]string{"unresolved-link": "warning"}

	require.Equal(t, SeverityOff, cfg.EffectiveSeverity("unknown-field", SeverityError))
	require.Equal(t, SeverityWarning, cfg.EffectiveSeverity("unresolved-link", SeverityError))
	require.Equal(t, SeverityError, cfg.EffectiveSeverity("missing-title", SeverityError))
}

func TestFindWorkspaceRoot_PrefersThaloDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".thalo"), 0755))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	require.Equal(t, root, FindWorkspaceRoot(nested))
}

func TestFindWorkspaceRoot_FallsBackToGoMod(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module x\n"), 0644))
	nested := filepath.Join(root, "a")
	require.NoError(t, os.MkdirAll(nested, 0755))

	require.Equal(t, root, FindWorkspaceRoot(nested))
}

func TestFindWorkspaceRoot_NoMarkerReturnsOriginalDir(t *testing.T) {
	dir := t.TempDir()
	require.Equal(t, dir, FindWorkspaceRoot(dir))
}

func TestDefaultConfigPath(t *testing.T) {
	require.Equal(t, filepath.Join("root", ".thalo", "config.yaml"), DefaultConfigPath("root"))
}
