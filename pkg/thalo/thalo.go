// Package thalo re-exports the library surface embedding hosts consume:
// the workspace, the checker, queries, the merge driver, and the shared
// diagnostic record, without reaching into internal packages directly.
package thalo

import (
	"github.com/rejot-dev/thalo/internal/checker"
	"github.com/rejot-dev/thalo/internal/config"
	"github.com/rejot-dev/thalo/internal/diagnostic"
	"github.com/rejot-dev/thalo/internal/merge"
	"github.com/rejot-dev/thalo/internal/query"
	"github.com/rejot-dev/thalo/internal/rules"
	"github.com/rejot-dev/thalo/internal/visitor"
	"github.com/rejot-dev/thalo/internal/workspace"
)

// Workspace is the multi-document store owning every loaded thalo file.
type Workspace = workspace.Workspace

// AddOptions configures document loading.
type AddOptions = workspace.AddOptions

// Diagnostic is one reported finding.
type Diagnostic = diagnostic.Diagnostic

// Severity is a diagnostic's level.
type Severity = diagnostic.Severity

// Config is the workspace configuration.
type Config = config.Config

// Query is one parsed entity selector.
type Query = query.Query

// MergeResult is the outcome of a three-way merge.
type MergeResult = merge.Result

// MergeOptions configures conflict-marker serialization.
type MergeOptions = merge.Options

// NewWorkspace creates an empty workspace.
func NewWorkspace() *Workspace { return workspace.New() }

// Check runs the full rule library over ws.
func Check(ws *Workspace, cfg *Config) []Diagnostic {
	return checker.Check(ws, rules.All(), checker.Options{Config: cfg})
}

// Rules returns the full rule library.
func Rules() []visitor.Rule { return rules.All() }

// ParseQueryString parses a comma-separated query string.
func ParseQueryString(s string) ([]Query, error) { return query.ParseQueryString(s) }

// ExecuteQueries runs queries over ws.
func ExecuteQueries(ws *Workspace, queries []Query) []query.Match {
	return query.ExecuteQueries(ws, queries, query.ExecuteOptions{})
}

// Merge three-way merges ours and theirs against base.
func Merge(base, ours, theirs []byte, opts MergeOptions) (*MergeResult, error) {
	return merge.Merge(base, ours, theirs, opts)
}
