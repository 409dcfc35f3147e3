package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rejot-dev/thalo/internal/logging"
	"gopkg.in/yaml.v3"
)

// Severity is the effective severity of a diagnostic produced by a rule.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityOff     Severity = "off"
)

// TrackerConfig selects and configures the change tracker used by
// actualize to detect pending synthesis work.
type TrackerConfig struct {
	// Type is "git" or "ts". DefaultConfig sets "git"; no check for a
	// .git directory is made.
	Type string `yaml:"type" json:"type,omitempty"`
}

// MergeConfig configures the three-way structural merge driver.
type MergeConfig struct {
	// MarkerStyle is "merge" (classic <<<<<<< / ======= / >>>>>>>) or
	// "diff3" (adds the common-ancestor ||||||| section).
	MarkerStyle string `yaml:"marker_style" json:"marker_style,omitempty"`
}

// Config holds Thalo's workspace configuration, conventionally loaded
// from .thalo/config.yaml.
type Config struct {
	// RuleSeverities overrides the default severity of a rule, keyed by
	// rule code (e.g. "unresolved-link": "warning").
	RuleSeverities map[string]string `yaml:"rule_severities" json:"rule_severities,omitempty"`

	// RulesOff lists rule codes that are disabled entirely.
	RulesOff []string `yaml:"rules_off" json:"rules_off,omitempty"`

	Tracker TrackerConfig `yaml:"tracker" json:"tracker"`
	Merge   MergeConfig   `yaml:"merge" json:"merge"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		RuleSeverities: map[string]string{},
		RulesOff:       []string{},
		Tracker: TrackerConfig{
			Type: "git",
		},
		Merge: MergeConfig{
			MarkerStyle: "merge",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file, falling back to
// DefaultConfig when the file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	logging.BootDebug("loading config from: %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Boot("config file not found, using defaults: %s", path)
			return cfg, nil
		}
		logging.BootError("failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		logging.BootError("failed to parse config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	logging.Boot("config loaded: tracker=%s marker_style=%s", cfg.Tracker.Type, cfg.Merge.MarkerStyle)
	return cfg, nil
}

// Save saves configuration to a YAML file, creating parent directories
// as needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	switch c.Tracker.Type {
	case "", "git", "ts":
	default:
		return fmt.Errorf("invalid tracker type: %s (valid: git, ts)", c.Tracker.Type)
	}

	switch c.Merge.MarkerStyle {
	case "", "merge", "diff3":
	default:
		return fmt.Errorf("invalid merge marker style: %s (valid: merge, diff3)", c.Merge.MarkerStyle)
	}

	return nil
}

// IsRuleOff returns whether a rule code has been disabled entirely.
func (c *Config) IsRuleOff(code string) bool {
	for _, off := range c.RulesOff {
		if off == code {
			return true
		}
	}
	return false
}

// EffectiveSeverity resolves the severity a rule should report at,
// applying the rules_off list and rule_severities overrides on top of
// the rule's own default severity.
func (c *Config) EffectiveSeverity(code string, defaultSeverity Severity) Severity {
	if c.IsRuleOff(code) {
		return SeverityOff
	}
	if override, ok := c.RuleSeverities[code]; ok {
		switch Severity(override) {
		case SeverityError, SeverityWarning, SeverityOff:
			return Severity(override)
		}
	}
	return defaultSeverity
}

// FindWorkspaceRoot walks upward from dir looking for a .thalo
// directory or a go.mod file, returning the first directory found to
// contain either. Falls back to dir itself if neither is found.
func FindWorkspaceRoot(dir string) string {
	current := dir
	for {
		if _, err := os.Stat(filepath.Join(current, ".thalo")); err == nil {
			return current
		}
		if _, err := os.Stat(filepath.Join(current, "go.mod")); err == nil {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return dir
		}
		current = parent
	}
}

// DefaultConfigPath returns the conventional config path within a
// workspace root.
func DefaultConfigPath(workspaceRoot string) string {
	return filepath.Join(workspaceRoot, ".thalo", "config.yaml")
}
