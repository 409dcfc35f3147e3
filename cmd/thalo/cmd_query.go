package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rejot-dev/thalo/internal/query"
	"github.com/rejot-dev/thalo/internal/tracker"
)

var (
	querySince string
	queryLimit int
	queryJSON  bool
	queryRaw   bool
)

var queryCmd = &cobra.Command{
	Use:   "query \"<q>\" [paths]",
	Short: "Filter entries by entity, tags, links, and metadata",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&querySince, "since", "", "Checkpoint string (ts:... or git:...); a ts: checkpoint limits results to newer entries, a git: checkpoint is accepted but does not filter")
	queryCmd.Flags().IntVar(&queryLimit, "limit", 0, "Keep at most N results")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "Emit results as JSON")
	queryCmd.Flags().BoolVar(&queryRaw, "raw", false, "One plain line per matched entry")
}

// queryResult is the JSON shape of one match.
type queryResult struct {
	File      string   `json:"file"`
	Timestamp string   `json:"timestamp"`
	Entity    string   `json:"entity"`
	Title     string   `json:"title"`
	LinkID    string   `json:"linkId,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	queries, err := query.ParseQueryString(args[0])
	if err != nil {
		return err
	}
	ws, _, err := loadWorkspace(args[1:])
	if err != nil {
		return err
	}

	opts := query.ExecuteOptions{}
	if querySince != "" {
		marker := tracker.ParseCheckpoint(querySince)
		if marker == nil {
			return fmt.Errorf("invalid checkpoint %q", querySince)
		}
		if marker.Type == "ts" {
			opts.AfterTimestamp = marker.Value
		}
	}

	matches := query.ExecuteQueries(ws, queries, opts)
	if queryLimit > 0 && len(matches) > queryLimit {
		matches = matches[:queryLimit]
	}

	if queryJSON {
		results := make([]queryResult, 0, len(matches))
		for _, m := range matches {
			r := queryResult{
				File:      m.File,
				Timestamp: m.Timestamp(),
				Entity:    m.Instance.Header.Entity,
				Title:     m.Instance.Header.Title,
				Tags:      m.Instance.Header.Tags,
			}
			if m.Instance.Header.HasLink {
				r.LinkID = m.Instance.Header.Link
			}
			results = append(results, r)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	for _, m := range matches {
		h := m.Instance.Header
		line := fmt.Sprintf("%s %s %q", m.Timestamp(), h.Entity, h.Title)
		if h.HasLink {
			line += " ^" + h.Link
		}
		if !queryRaw {
			line += "  (" + m.File + ")"
		}
		fmt.Println(line)
	}
	return nil
}
