// Package visitor defines the rule-dispatch framework: the Rule
// interface, SortRules for a deterministic rule order, and the three
// entry points that run rules
// over a workspace, a single model, or an explicit subset of entries.
package visitor

import (
	"sort"

	"github.com/rejot-dev/thalo/internal/ast"
	"github.com/rejot-dev/thalo/internal/diagnostic"
	"github.com/rejot-dev/thalo/internal/semantic"
	"github.com/rejot-dev/thalo/internal/workspace"
)

// Category groups rules by the kind of construct they inspect.
type Category string

const (
	CategoryInstance Category = "instance"
	CategoryLink     Category = "link"
	CategorySchema   Category = "schema"
	CategoryMetadata Category = "metadata"
	CategoryContent  Category = "content"
)

// Report collects diagnostics as rules run. Callers append via Emit; the
// checker driver is responsible for sorting and severity filtering after
// the run completes.
type Report struct {
	Diagnostics []diagnostic.Diagnostic
}

// Emit appends d to the report.
func (r *Report) Emit(d diagnostic.Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
}

// Rule is implemented by every concrete check. Entry-visit methods
// default to no-ops by embedding NoopEntryVisitor; only BeforeCheck/
// AfterCheck-driven rules (e.g. duplicate-link-id) need workspace-level
// aggregation.
type Rule interface {
	Code() string
	Name() string
	Description() string
	Category() Category
	DefaultSeverity() diagnostic.Severity

	VisitInstance(ctx *Context, e *ast.Entry, ie *ast.InstanceEntry)
	VisitSchema(ctx *Context, e *ast.Entry, se *ast.SchemaEntry)
	VisitSynthesis(ctx *Context, e *ast.Entry, se *ast.SynthesisEntry)
	VisitActualize(ctx *Context, e *ast.Entry, ae *ast.ActualizeEntry)

	BeforeCheck(ctx *Context)
	AfterCheck(ctx *Context)
}

// NoopEntryVisitor gives every Rule a default no-op implementation of the
// four entry-visit methods and the two workspace hooks; concrete rules
// embed it and override only what they need.
type NoopEntryVisitor struct{}

func (NoopEntryVisitor) VisitInstance(*Context, *ast.Entry, *ast.InstanceEntry)   {}
func (NoopEntryVisitor) VisitSchema(*Context, *ast.Entry, *ast.SchemaEntry)       {}
func (NoopEntryVisitor) VisitSynthesis(*Context, *ast.Entry, *ast.SynthesisEntry) {}
func (NoopEntryVisitor) VisitActualize(*Context, *ast.Entry, *ast.ActualizeEntry) {}
func (NoopEntryVisitor) BeforeCheck(*Context)                                    {}
func (NoopEntryVisitor) AfterCheck(*Context)                                     {}

// Context is threaded through every visit call: the workspace, the
// prebuilt index, the current model/file, the severity a rule should
// report at (after config overrides), and the report sink.
type Context struct {
	Workspace *workspace.Workspace
	Index     *Index
	Model     *semantic.Model
	File      string
	Severity  diagnostic.Severity
	Report    *Report
}

// Emit reports a diagnostic at loc using ctx's current rule severity.
func (ctx *Context) Emit(code string, loc ast.Location, message string, data map[string]any) {
	if ctx.Severity == diagnostic.SeverityOff {
		return
	}
	d := diagnostic.New(ctx.File, toDiagLoc(loc), ctx.Severity, code, message)
	if data != nil {
		d = d.WithData(data)
	}
	ctx.Report.Emit(d)
}

func toDiagLoc(loc ast.Location) diagnostic.Location {
	return diagnostic.Location{
		StartIndex: loc.StartIndex,
		EndIndex:   loc.EndIndex,
		StartPosition: diagnostic.Position{
			Line: loc.StartPosition.Line, Column: loc.StartPosition.Column,
		},
		EndPosition: diagnostic.Position{
			Line: loc.EndPosition.Line, Column: loc.EndPosition.Column,
		},
	}
}

// SeverityFunc resolves the effective severity for a rule, typically
// internal/config.Config.EffectiveSeverity.
type SeverityFunc func(code string, defaultSeverity diagnostic.Severity) diagnostic.Severity

// RunVisitors runs every rule over every entry of every document in ws,
// calling BeforeCheck/AfterCheck once per document model.
func RunVisitors(rules []Rule, ws *workspace.Workspace, idx *Index, severity SeverityFunc) *Report {
	report := &Report{}
	for _, m := range ws.AllModels() {
		runBeforeAfter(rules, ws, idx, m, severity, report, true, nil)
	}
	return report
}

// RunVisitorsOnModel restricts the run to one model's entries, still
// calling BeforeCheck/AfterCheck.
func RunVisitorsOnModel(rules []Rule, ws *workspace.Workspace, idx *Index, m *semantic.Model, severity SeverityFunc) *Report {
	report := &Report{}
	runBeforeAfter(rules, ws, idx, m, severity, report, true, nil)
	return report
}

// RunVisitorsOnEntries restricts the run to an explicit subset of entries
// within model m, and does NOT call BeforeCheck/AfterCheck (incremental
// mode).
func RunVisitorsOnEntries(rules []Rule, ws *workspace.Workspace, idx *Index, m *semantic.Model, entries []*ast.Entry, severity SeverityFunc) *Report {
	report := &Report{}
	runBeforeAfter(rules, ws, idx, m, severity, report, false, entries)
	return report
}

func runBeforeAfter(rules []Rule, ws *workspace.Workspace, idx *Index, m *semantic.Model, severity SeverityFunc, report *Report, hooks bool, only []*ast.Entry) {
	ctxFor := func(rule Rule) *Context {
		sev := diagnostic.SeverityError
		if severity != nil {
			sev = severity(rule.Code(), rule.DefaultSeverity())
		} else {
			sev = rule.DefaultSeverity()
		}
		return &Context{Workspace: ws, Index: idx, Model: m, File: m.File, Severity: sev, Report: report}
	}

	if hooks {
		for _, rule := range rules {
			rule.BeforeCheck(ctxFor(rule))
		}
	}

	entries := only
	if entries == nil {
		entries = make([]*ast.Entry, len(m.AST.Entries))
		for i := range m.AST.Entries {
			entries[i] = &m.AST.Entries[i]
		}
	}

	for _, e := range entries {
		for _, rule := range rules {
			ctx := ctxFor(rule)
			if ctx.Severity == diagnostic.SeverityOff {
				continue
			}
			switch e.Variant {
			case ast.VariantInstance:
				rule.VisitInstance(ctx, e, e.Instance)
			case ast.VariantSchema:
				rule.VisitSchema(ctx, e, e.Schema)
			case ast.VariantSynthesis:
				rule.VisitSynthesis(ctx, e, e.Synthesis)
			case ast.VariantActualize:
				rule.VisitActualize(ctx, e, e.Actualize)
			}
		}
	}

	if hooks {
		for _, rule := range rules {
			rule.AfterCheck(ctxFor(rule))
		}
	}
}

// SortRules returns rules sorted by code, for deterministic iteration in
// "rules list" output.
func SortRules(rules []Rule) []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	sort.Slice(out, func(i, j int) bool { return out[i].Code() < out[j].Code() })
	return out
}
