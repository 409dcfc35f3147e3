package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rejot-dev/thalo/internal/merge"
)

var mergeMarkerStyle string

var mergeCmd = &cobra.Command{
	Use:   "merge <base> <ours> <theirs> [out]",
	Short: "Three-way structural merge of thalo files",
	Long: `Merges ours and theirs against their common ancestor base, writing the
result to out (or ours, matching git merge-driver conventions). Exits 1
when conflicts were written.`,
	Args: cobra.RangeArgs(3, 4),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVar(&mergeMarkerStyle, "marker-style", "", "Conflict marker style: merge or diff3 (default from config)")
}

func runMerge(cmd *cobra.Command, args []string) error {
	read := func(path string) ([]byte, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", path, err)
		}
		return data, nil
	}
	base, err := read(args[0])
	if err != nil {
		return err
	}
	ours, err := read(args[1])
	if err != nil {
		return err
	}
	theirs, err := read(args[2])
	if err != nil {
		return err
	}

	style := mergeMarkerStyle
	if style == "" {
		style = cfg.Merge.MarkerStyle
	}
	result, err := merge.Merge(base, ours, theirs, merge.Options{MarkerStyle: style})
	if err != nil {
		return err
	}

	out := args[1]
	if len(args) == 4 {
		out = args[3]
	}
	if err := os.WriteFile(out, result.Output, 0644); err != nil {
		return fmt.Errorf("cannot write %s: %w", out, err)
	}

	s := result.Stats
	fmt.Fprintf(os.Stderr, "merged %d entries: %d auto-merged, %d conflicts\n", s.TotalEntries, s.AutoMerged, s.Conflicts)
	if !result.Success {
		os.Exit(exitFound)
	}
	return nil
}
