// Package logging provides config-driven categorized file-based logging for
// the Thalo toolchain. Logs are written to .thalo/logs/ with one file per
// category. Logging is controlled by debug_mode in .thalo/logging.json -
// when false, no logs are written.
package logging

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category represents a log category/subsystem.
type Category string

const (
	// CategoryBoot covers process startup and workspace initialization.
	CategoryBoot Category = "boot"
	// CategoryGrammar covers the scanner/parser (concrete syntax tree construction).
	CategoryGrammar Category = "grammar"
	// CategoryAST covers AST projection from the concrete syntax tree.
	CategoryAST Category = "ast"
	// CategoryFence covers fenced-block extraction and source mapping.
	CategoryFence Category = "fence"
	// CategoryWorkspace covers document lifecycle and cross-document cache invalidation.
	CategoryWorkspace Category = "workspace"
	// CategorySchema covers schema-registry resolution (define/alter-entity replay).
	CategorySchema Category = "schema"
	// CategoryRules covers rule-visitor dispatch.
	CategoryRules Category = "rules"
	// CategoryChecker covers the checker driver (whole-workspace or incremental runs).
	CategoryChecker Category = "checker"
	// CategoryQuery covers query parsing and execution.
	CategoryQuery Category = "query"
	// CategoryTracker covers change-tracker strategies (timestamp, git).
	CategoryTracker Category = "tracker"
	// CategoryActualize covers the actualize command.
	CategoryActualize Category = "actualize"
	// CategoryMerge covers the three-way merge driver.
	CategoryMerge Category = "merge"
	// CategoryServices covers hover/definition/references/semantic-token services.
	CategoryServices Category = "services"
	// CategoryFormat covers canonical source re-serialization.
	CategoryFormat Category = "format"
	// CategoryCLI covers command-line frontend activity.
	CategoryCLI Category = "cli"
)

// loggingConfig mirrors the relevant parts of config.LoggingConfig
// to avoid circular imports.
type loggingConfig struct {
	DebugMode  bool            `json:"debug_mode"`
	Categories map[string]bool `json:"categories"`
	Level      string          `json:"level"`
	JSONFormat bool            `json:"json_format"`
}

// configFile structure for reading .thalo/logging.json.
type configFile struct {
	Logging loggingConfig `json:"logging"`
}

// StructuredLogEntry represents a JSON log entry.
type StructuredLogEntry struct {
	Timestamp int64                  `json:"ts"`
	Category  string                 `json:"cat"`
	Level     string                 `json:"lvl"`
	Message   string                 `json:"msg"`
	RequestID string                 `json:"req,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Logger wraps a standard logger with category and file output.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	loggers      = make(map[Category]*Logger)
	loggersMu    sync.RWMutex
	logsDir      string
	workspaceDir string
	cfg          loggingConfig
	configMu     sync.RWMutex
	logLevel     int
)

// Log levels.
const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// Initialize sets up the logging directory and loads config. Should be
// called once at startup with the workspace root.
func Initialize(root string) error {
	if root == "" {
		return fmt.Errorf("workspace root required")
	}

	workspaceDir = root
	logsDir = filepath.Join(workspaceDir, ".thalo", "logs")

	if err := loadConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "[logging] warning: could not load config: %v\n", err)
		cfg.DebugMode = false
	}

	if !cfg.DebugMode {
		return nil
	}

	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	bootLogger := Get(CategoryBoot)
	bootLogger.Info("=== thalo logging initialized ===")
	bootLogger.Info("workspace: %s", workspaceDir)
	bootLogger.Info("log level: %s", cfg.Level)
	return nil
}

// loadConfig reads the logging config from .thalo/logging.json.
func loadConfig() error {
	configMu.Lock()
	defer configMu.Unlock()

	configPath := filepath.Join(workspaceDir, ".thalo", "logging.json")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.DebugMode = false
			return nil
		}
		return err
	}

	var cf configFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return fmt.Errorf("failed to parse logging config: %w", err)
	}
	cfg = cf.Logging

	switch cfg.Level {
	case "debug":
		logLevel = LevelDebug
	case "warn", "warning":
		logLevel = LevelWarn
	case "error":
		logLevel = LevelError
	default:
		logLevel = LevelInfo
	}
	return nil
}

// ReloadConfig reloads the config from disk. Call this if config changes at runtime.
func ReloadConfig() error {
	return loadConfig()
}

// IsDebugMode returns whether debug logging is enabled.
func IsDebugMode() bool {
	configMu.RLock()
	defer configMu.RUnlock()
	return cfg.DebugMode
}

// IsCategoryEnabled returns whether a specific category is enabled.
func IsCategoryEnabled(category Category) bool {
	configMu.RLock()
	defer configMu.RUnlock()

	if !cfg.DebugMode {
		return false
	}
	if cfg.Categories == nil {
		return true
	}
	enabled, exists := cfg.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category. Returns a no-op
// logger if debug mode is disabled or the category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) {
		return &Logger{category: category}
	}
	if logsDir == "" {
		return &Logger{category: category}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()

	if l, ok := loggers[category]; ok {
		return l
	}

	date := time.Now().Format("2006-01-02")
	filename := fmt.Sprintf("%s_%s.log", date, category)
	logPath := filepath.Join(logsDir, filename)

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] warning: could not open log file %s: %v\n", logPath, err)
		return &Logger{category: category}
	}

	l := &Logger{
		category: category,
		file:     file,
		logger:   log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
	loggers[category] = l
	return l
}

func (l *Logger) logJSON(level, msg string) {
	entry := StructuredLogEntry{
		Timestamp: time.Now().UnixMilli(),
		Category:  string(l.category),
		Level:     level,
		Message:   msg,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		l.logger.Printf("[%s] %s", level, msg)
		return
	}
	l.logger.Printf("%s", data)
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelDebug {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if cfg.JSONFormat {
		l.logJSON("debug", msg)
	} else {
		l.logger.Printf("[DEBUG] %s", msg)
	}
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelInfo {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if cfg.JSONFormat {
		l.logJSON("info", msg)
	} else {
		l.logger.Printf("[INFO] %s", msg)
	}
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelWarn {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if cfg.JSONFormat {
		l.logJSON("warn", msg)
	} else {
		l.logger.Printf("[WARN] %s", msg)
	}
}

// Error logs an error message; unlike Debug/Info/Warn this is always emitted
// when the category is enabled, regardless of configured level.
func (l *Logger) Error(format string, args ...interface{}) {
	if l.logger == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if cfg.JSONFormat {
		l.logJSON("error", msg)
	} else {
		l.logger.Printf("[ERROR] %s", msg)
	}
}

// StructuredLog writes a fully structured log entry with custom fields.
func (l *Logger) StructuredLog(level string, msg string, fields map[string]interface{}) {
	if l.logger == nil {
		return
	}
	entry := StructuredLogEntry{
		Timestamp: time.Now().UnixMilli(),
		Category:  string(l.category),
		Level:     level,
		Message:   msg,
		Fields:    fields,
	}
	if cfg.JSONFormat {
		if data, err := json.Marshal(entry); err == nil {
			l.logger.Printf("%s", data)
			return
		}
	}
	l.logger.Printf("[%s] %s | fields=%v", level, msg, fields)
}

// IsJSONFormat returns whether JSON logging is enabled.
func IsJSONFormat() bool {
	configMu.RLock()
	defer configMu.RUnlock()
	return cfg.JSONFormat
}

// CloseAll closes all open log files. Call at shutdown.
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	for _, l := range loggers {
		if l.file != nil {
			l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
}

// =============================================================================
// CONVENIENCE FUNCTIONS - quick logging without fetching a logger first.
// No-ops when the category is disabled.
// =============================================================================

func Boot(format string, args ...interface{})      { Get(CategoryBoot).Info(format, args...) }
func BootDebug(format string, args ...interface{}) { Get(CategoryBoot).Debug(format, args...) }
func BootError(format string, args ...interface{}) { Get(CategoryBoot).Error(format, args...) }

func Grammar(format string, args ...interface{})      { Get(CategoryGrammar).Info(format, args...) }
func GrammarDebug(format string, args ...interface{}) { Get(CategoryGrammar).Debug(format, args...) }

func AST(format string, args ...interface{})      { Get(CategoryAST).Info(format, args...) }
func ASTDebug(format string, args ...interface{}) { Get(CategoryAST).Debug(format, args...) }

func Fence(format string, args ...interface{})      { Get(CategoryFence).Info(format, args...) }
func FenceDebug(format string, args ...interface{}) { Get(CategoryFence).Debug(format, args...) }

func Workspace(format string, args ...interface{})      { Get(CategoryWorkspace).Info(format, args...) }
func WorkspaceDebug(format string, args ...interface{}) { Get(CategoryWorkspace).Debug(format, args...) }
func WorkspaceError(format string, args ...interface{}) { Get(CategoryWorkspace).Error(format, args...) }

func Schema(format string, args ...interface{})      { Get(CategorySchema).Info(format, args...) }
func SchemaDebug(format string, args ...interface{}) { Get(CategorySchema).Debug(format, args...) }

func Rules(format string, args ...interface{})      { Get(CategoryRules).Info(format, args...) }
func RulesDebug(format string, args ...interface{}) { Get(CategoryRules).Debug(format, args...) }

func Checker(format string, args ...interface{})      { Get(CategoryChecker).Info(format, args...) }
func CheckerDebug(format string, args ...interface{}) { Get(CategoryChecker).Debug(format, args...) }

func Query(format string, args ...interface{})      { Get(CategoryQuery).Info(format, args...) }
func QueryDebug(format string, args ...interface{}) { Get(CategoryQuery).Debug(format, args...) }

func Tracker(format string, args ...interface{})      { Get(CategoryTracker).Info(format, args...) }
func TrackerDebug(format string, args ...interface{}) { Get(CategoryTracker).Debug(format, args...) }
func TrackerError(format string, args ...interface{}) { Get(CategoryTracker).Error(format, args...) }

func Actualize(format string, args ...interface{})      { Get(CategoryActualize).Info(format, args...) }
func ActualizeDebug(format string, args ...interface{}) { Get(CategoryActualize).Debug(format, args...) }

func Merge(format string, args ...interface{})      { Get(CategoryMerge).Info(format, args...) }
func MergeDebug(format string, args ...interface{}) { Get(CategoryMerge).Debug(format, args...) }

func Services(format string, args ...interface{})      { Get(CategoryServices).Info(format, args...) }
func ServicesDebug(format string, args ...interface{}) { Get(CategoryServices).Debug(format, args...) }

func Format(format string, args ...interface{})      { Get(CategoryFormat).Info(format, args...) }
func FormatDebug(format string, args ...interface{}) { Get(CategoryFormat).Debug(format, args...) }

func CLI(format string, args ...interface{})      { Get(CategoryCLI).Info(format, args...) }
func CLIDebug(format string, args ...interface{}) { Get(CategoryCLI).Debug(format, args...) }

// =============================================================================
// TIMING HELPERS
// =============================================================================

// Timer helps measure operation duration.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation.
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration at debug level.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs a warning if duration exceeds threshold, else debug.
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
