// Package main implements the thalo CLI: lint, format, query, and
// actualize thalo knowledge-capture files, plus a merge driver and a
// minimal language-service mode.
//
// Command implementations are split across cmd_*.go files:
//   - cmd_check.go     - checkCmd, runCheck()
//   - cmd_format.go    - formatCmd, runFormat()
//   - cmd_query.go     - queryCmd, runQuery()
//   - cmd_rules.go     - rulesCmd, rulesListCmd
//   - cmd_actualize.go - actualizeCmd, runActualize()
//   - cmd_merge.go     - mergeCmd, runMerge()
//   - cmd_lsp.go       - lspCmd, runLSP()
//   - files.go         - workspace file collection helpers
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rejot-dev/thalo/internal/config"
	"github.com/rejot-dev/thalo/internal/logging"
)

// Exit codes per the CLI contract.
const (
	exitOK    = 0
	exitFound = 1
	exitUsage = 2
)

var (
	// Global flags
	verbose    bool
	jsonLogs   bool
	configPath string

	logger *zap.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "thalo",
	Short: "thalo - structured plain-text knowledge capture",
	Long: `thalo lints, formats, queries, merges, and actualizes thalo files:
timestamped entries with typed metadata, schemas, and synthesis prompts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if !jsonLogs {
			zapCfg.Encoding = "console"
			zapCfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		}
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cwd, _ := os.Getwd()
		root := config.FindWorkspaceRoot(cwd)
		if err := logging.Initialize(root); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize file logging: %v\n", err)
		}

		path := configPath
		if path == "" {
			path = config.DefaultConfigPath(root)
		}
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
		return cfg.Validate()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Emit logs as JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: .thalo/config.yaml at workspace root)")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(formatCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(actualizeCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(lspCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitUsage)
	}
}
