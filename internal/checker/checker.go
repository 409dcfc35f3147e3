// Package checker drives rule runs: whole-workspace, single-model, or an
// explicit entry subset (incremental mode), applying configured severity
// overrides and sorting diagnostics deterministically.
package checker

import (
	"sort"

	"github.com/rejot-dev/thalo/internal/ast"
	"github.com/rejot-dev/thalo/internal/config"
	"github.com/rejot-dev/thalo/internal/diagnostic"
	"github.com/rejot-dev/thalo/internal/logging"
	"github.com/rejot-dev/thalo/internal/semantic"
	"github.com/rejot-dev/thalo/internal/visitor"
	"github.com/rejot-dev/thalo/internal/workspace"
)

// Options configures one checker run.
type Options struct {
	// Config supplies rule severity overrides and off suppressions; nil
	// uses every rule's default severity.
	Config *config.Config
	// MinSeverity drops diagnostics below the given level from the
	// result: error > warning > info.
	MinSeverity diagnostic.Severity
}

func severityFunc(cfg *config.Config) visitor.SeverityFunc {
	if cfg == nil {
		return func(code string, def diagnostic.Severity) diagnostic.Severity { return def }
	}
	return func(code string, def diagnostic.Severity) diagnostic.Severity {
		effective := cfg.EffectiveSeverity(code, config.Severity(def))
		return diagnostic.Severity(effective)
	}
}

// Check runs rules over every entry in ws and returns the filtered,
// sorted diagnostics.
func Check(ws *workspace.Workspace, rules []visitor.Rule, opts Options) []diagnostic.Diagnostic {
	timer := logging.StartTimer(logging.CategoryChecker, "workspace check")
	defer timer.Stop()

	idx := visitor.BuildIndex(ws)
	report := visitor.RunVisitors(rules, ws, idx, severityFunc(opts.Config))
	return finish(report, opts)
}

// CheckModel restricts the run to one model's entries.
func CheckModel(ws *workspace.Workspace, m *semantic.Model, rules []visitor.Rule, opts Options) []diagnostic.Diagnostic {
	idx := visitor.BuildIndex(ws)
	report := visitor.RunVisitorsOnModel(rules, ws, idx, m, severityFunc(opts.Config))
	return finish(report, opts)
}

// CheckEntries restricts the run to an explicit subset of entries within
// one model; workspace-level aggregation rules do not fire (incremental
// mode).
func CheckEntries(ws *workspace.Workspace, m *semantic.Model, entries []*ast.Entry, rules []visitor.Rule, opts Options) []diagnostic.Diagnostic {
	idx := visitor.BuildIndex(ws)
	report := visitor.RunVisitorsOnEntries(rules, ws, idx, m, entries, severityFunc(opts.Config))
	return finish(report, opts)
}

func finish(report *visitor.Report, opts Options) []diagnostic.Diagnostic {
	out := filterSeverity(report.Diagnostics, opts.MinSeverity)
	sort.SliceStable(out, func(i, j int) bool { return diagnostic.Less(out[i], out[j]) })
	logging.Checker("check produced %d diagnostics", len(out))
	return out
}

func rank(s diagnostic.Severity) int {
	switch s {
	case diagnostic.SeverityError:
		return 3
	case diagnostic.SeverityWarning:
		return 2
	case diagnostic.SeverityInfo:
		return 1
	default:
		return 0
	}
}

func filterSeverity(ds []diagnostic.Diagnostic, min diagnostic.Severity) []diagnostic.Diagnostic {
	if min == "" {
		out := make([]diagnostic.Diagnostic, len(ds))
		copy(out, ds)
		return out
	}
	out := make([]diagnostic.Diagnostic, 0, len(ds))
	for _, d := range ds {
		if rank(d.Severity) >= rank(min) {
			out = append(out, d)
		}
	}
	return out
}

// Counts tallies diagnostics by severity for CLI exit-code decisions.
type Counts struct {
	Errors   int
	Warnings int
	Infos    int
}

// Count tallies ds by severity.
func Count(ds []diagnostic.Diagnostic) Counts {
	var c Counts
	for _, d := range ds {
		switch d.Severity {
		case diagnostic.SeverityError:
			c.Errors++
		case diagnostic.SeverityWarning:
			c.Warnings++
		case diagnostic.SeverityInfo:
			c.Infos++
		}
	}
	return c
}
