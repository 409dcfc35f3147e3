package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rejot-dev/thalo/internal/checker"
	"github.com/rejot-dev/thalo/internal/rules"
)

var (
	checkJSON        bool
	checkMaxWarnings int
)

var checkCmd = &cobra.Command{
	Use:   "check [paths]",
	Short: "Check thalo files against the rule library",
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Emit diagnostics as JSON")
	checkCmd.Flags().IntVar(&checkMaxWarnings, "max-warnings", -1, "Fail when more than N warnings are reported")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ws, files, err := loadWorkspace(args)
	if err != nil {
		return err
	}
	logger.Debug("checking workspace", zap.Int("files", len(files)))

	diags := checker.Check(ws, rules.All(), checker.Options{Config: cfg})

	if checkJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(diags); err != nil {
			return err
		}
	} else {
		for _, d := range diags {
			fmt.Printf("%s:%d:%d: %s [%s] %s\n", d.File, d.Line, d.Column, d.Severity, d.Code, d.Message)
		}
	}

	counts := checker.Count(diags)
	if !checkJSON {
		fmt.Printf("%d errors, %d warnings in %d files\n", counts.Errors, counts.Warnings, len(files))
	}
	if counts.Errors > 0 || (checkMaxWarnings >= 0 && counts.Warnings > checkMaxWarnings) {
		os.Exit(exitFound)
	}
	return nil
}
