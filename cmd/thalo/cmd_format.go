package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rejot-dev/thalo/internal/format"
)

var (
	formatCheck bool
	formatWrite bool
)

var formatCmd = &cobra.Command{
	Use:   "format [paths]",
	Short: "Rewrite thalo files in canonical form",
	RunE:  runFormat,
}

func init() {
	formatCmd.Flags().BoolVar(&formatCheck, "check", false, "Report files that are not canonically formatted, without writing")
	formatCmd.Flags().BoolVar(&formatWrite, "write", false, "Write formatted output back to the files")
}

func runFormat(cmd *cobra.Command, args []string) error {
	ws, files, err := loadWorkspace(args)
	if err != nil {
		return err
	}

	dirty := 0
	for _, f := range files {
		model := ws.GetModel(f)
		if model == nil {
			continue
		}
		formatted := format.Format(model.AST)
		if bytes.Equal(formatted, model.Source) {
			continue
		}
		dirty++
		switch {
		case formatCheck:
			fmt.Println(f)
		case formatWrite:
			if err := os.WriteFile(f, formatted, 0644); err != nil {
				return fmt.Errorf("cannot write %s: %w", f, err)
			}
			fmt.Println("formatted", f)
		default:
			os.Stdout.Write(formatted)
		}
	}
	if formatCheck && dirty > 0 {
		os.Exit(exitFound)
	}
	return nil
}
