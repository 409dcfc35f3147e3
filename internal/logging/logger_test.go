package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func resetState() {
	CloseAll()
	loggers = make(map[Category]*Logger)
	logsDir = ""
	workspaceDir = ""
	cfg = loggingConfig{}
}

func TestAllCategoriesLog(t *testing.T) {
	tempDir := t.TempDir()

	configDir := filepath.Join(tempDir, ".thalo")
	require.NoError(t, os.MkdirAll(configDir, 0755))

	configContent := `{
		"logging": {
			"level": "debug",
			"debug_mode": true,
			"categories": {
				"boot": true,
				"grammar": true,
				"ast": true,
				"fence": true,
				"workspace": true,
				"schema": true,
				"rules": true,
				"checker": true,
				"query": true,
				"tracker": true,
				"actualize": true,
				"merge": true,
				"services": true,
				"format": true,
				"cli": true
			}
		}
	}`
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "logging.json"), []byte(configContent), 0644))

	resetState()
	require.NoError(t, Initialize(tempDir))
	require.True(t, IsDebugMode())

	categories := []Category{
		CategoryBoot, CategoryGrammar, CategoryAST, CategoryFence, CategoryWorkspace,
		CategorySchema, CategoryRules, CategoryChecker, CategoryQuery,
		CategoryTracker, CategoryActualize, CategoryMerge, CategoryServices,
		CategoryFormat, CategoryCLI,
	}
	for _, cat := range categories {
		Get(cat).Info("hello from %s", cat)
	}
	CloseAll()

	entries, err := os.ReadDir(filepath.Join(tempDir, ".thalo", "logs"))
	require.NoError(t, err)
	require.Len(t, entries, len(categories))
}

func TestDisabledCategoryIsNoOp(t *testing.T) {
	tempDir := t.TempDir()
	resetState()
	require.NoError(t, Initialize(tempDir)) // no config file -> debug_mode false

	require.False(t, IsDebugMode())
	require.False(t, IsCategoryEnabled(CategoryGrammar))

	// Should not panic and should not create a logs directory.
	Get(CategoryGrammar).Info("should be silently dropped")
	_, err := os.Stat(filepath.Join(tempDir, ".thalo", "logs"))
	require.True(t, os.IsNotExist(err))
}

func TestCategoryFilterRespectsExplicitFalse(t *testing.T) {
	tempDir := t.TempDir()
	configDir := filepath.Join(tempDir, ".thalo")
	require.NoError(t, os.MkdirAll(configDir, 0755))

	configContent := `{"logging": {"level": "debug", "debug_mode": true, "categories": {"grammar": false}}}`
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "logging.json"), []byte(configContent), 0644))

	resetState()
	require.NoError(t, Initialize(tempDir))

	require.False(t, IsCategoryEnabled(CategoryGrammar))
	require.True(t, IsCategoryEnabled(CategoryAST)) // unlisted categories default enabled
}

func TestTimerStopWithThreshold(t *testing.T) {
	tempDir := t.TempDir()
	resetState()
	require.NoError(t, Initialize(tempDir))

	timer := StartTimer(CategoryChecker, "check-run")
	d := timer.StopWithThreshold(0)
	require.GreaterOrEqual(t, d.Nanoseconds(), int64(0))
}

func TestStructuredLogJSONFormat(t *testing.T) {
	tempDir := t.TempDir()
	configDir := filepath.Join(tempDir, ".thalo")
	require.NoError(t, os.MkdirAll(configDir, 0755))
	configContent := `{"logging": {"level": "debug", "debug_mode": true, "json_format": true}}`
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "logging.json"), []byte(configContent), 0644))

	resetState()
	require.NoError(t, Initialize(tempDir))

	l := Get(CategoryMerge)
	l.StructuredLog("info", "conflict detected", map[string]interface{}{"entity": "lore"})
	CloseAll()

	data, err := os.ReadFile(filepath.Join(tempDir, ".thalo", "logs", logFileName(CategoryMerge)))
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), "conflict detected"))
}

func logFileName(cat Category) string {
	entries, _ := os.ReadDir(filepath.Join(workspaceDir, ".thalo", "logs"))
	for _, e := range entries {
		if strings.Contains(e.Name(), string(cat)) {
			return e.Name()
		}
	}
	return ""
}
