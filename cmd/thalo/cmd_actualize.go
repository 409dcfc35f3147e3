package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rejot-dev/thalo/internal/actualize"
	"github.com/rejot-dev/thalo/internal/config"
	"github.com/rejot-dev/thalo/internal/tracker"
)

var (
	actualizeIDs  []string
	actualizeJSON bool
)

var actualizeCmd = &cobra.Command{
	Use:   "actualize [paths]",
	Short: "Report synthesis entries with new source material since their last checkpoint",
	RunE:  runActualize,
}

func init() {
	actualizeCmd.Flags().StringSliceVar(&actualizeIDs, "synthesis", nil, "Restrict to the given synthesis link ids")
	actualizeCmd.Flags().BoolVar(&actualizeJSON, "json", false, "Emit records as JSON")
}

func runActualize(cmd *cobra.Command, args []string) error {
	ws, _, err := loadWorkspace(args)
	if err != nil {
		return err
	}

	cwd, _ := os.Getwd()
	tr, err := tracker.New(cfg.Tracker.Type, config.FindWorkspaceRoot(cwd))
	if err != nil {
		return err
	}

	result, err := actualize.Run(ws, tr, actualizeIDs)
	if err != nil {
		var cpErr *tracker.CheckpointError
		if errors.As(err, &cpErr) {
			return fmt.Errorf("checkpoint error: %s", cpErr.Message)
		}
		return err
	}

	if actualizeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	for _, r := range result.Records {
		status := "pending"
		if r.IsUpToDate {
			status = "up to date"
		}
		fmt.Printf("^%s %q (%s) — %s, %d new entries\n", r.LinkID, r.Title, r.File, status, len(r.Entries))
		for _, e := range r.Entries {
			fmt.Printf("  %s %s %q (%s)\n", e.Timestamp, e.Entity, e.Title, e.File)
		}
	}
	for _, id := range result.UnknownIDs {
		fmt.Fprintf(os.Stderr, "no synthesis with link id ^%s\n", id)
	}
	return nil
}
