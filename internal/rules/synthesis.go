package rules

import (
	"fmt"

	"github.com/rejot-dev/thalo/internal/ast"
	"github.com/rejot-dev/thalo/internal/query"
	"github.com/rejot-dev/thalo/internal/tracker"
	"github.com/rejot-dev/thalo/internal/visitor"
)

// synthesisRequiresLinkRule reports define-synthesis headers with no ^id
// to target later actualize entries at.
type synthesisRequiresLinkRule struct{ ruleInfo }

func (r *synthesisRequiresLinkRule) VisitSynthesis(ctx *visitor.Context, e *ast.Entry, se *ast.SynthesisEntry) {
	if se.Header.HasLink {
		return
	}
	ctx.Emit(r.code, se.Header.Location, "Synthesis entry declares no link id.", nil)
}

// synthesisRequiresSourcesRule reports define-synthesis entries whose
// sources metadata is missing or does not parse as one or more queries.
type synthesisRequiresSourcesRule struct{ ruleInfo }

func (r *synthesisRequiresSourcesRule) VisitSynthesis(ctx *visitor.Context, e *ast.Entry, se *ast.SynthesisEntry) {
	md := findMetadata(se.Metadata, "sources")
	if md == nil {
		ctx.Emit(r.code, se.Header.Location, "Synthesis entry has no 'sources' metadata.", nil)
		return
	}
	if _, err := query.ParseSourcesValue(md.Value); err != nil {
		ctx.Emit(r.code, md.Value.Location,
			fmt.Sprintf("Sources value '%s' does not parse as a query.", md.Value.Raw), nil)
	}
}

// synthesisUnknownEntityRule reports source queries that select entity
// types with no schema.
type synthesisUnknownEntityRule struct{ ruleInfo }

func (r *synthesisUnknownEntityRule) VisitSynthesis(ctx *visitor.Context, e *ast.Entry, se *ast.SynthesisEntry) {
	md := findMetadata(se.Metadata, "sources")
	if md == nil {
		return
	}
	queries, err := query.ParseSourcesValue(md.Value)
	if err != nil {
		return
	}
	for _, q := range queries {
		if ctx.Workspace.SchemaRegistry().Get(q.Entity) == nil {
			ctx.Emit(r.code, md.Value.Location,
				fmt.Sprintf("Source query selects unknown entity type '%s'.", q.Entity),
				map[string]any{"entity": q.Entity})
		}
	}
}

// actualizeUnknownTargetRule reports actualize-synthesis entries whose
// target link id is not defined by any synthesis entry.
type actualizeUnknownTargetRule struct{ ruleInfo }

func (r *actualizeUnknownTargetRule) VisitActualize(ctx *visitor.Context, e *ast.Entry, ae *ast.ActualizeEntry) {
	if !ae.Header.HasLink {
		ctx.Emit(r.code, ae.Header.Location, "Actualize entry declares no target link.", nil)
		return
	}
	def, ok := ctx.Workspace.GetLinkDefinition(ae.Header.Link)
	if !ok || def.Entry.Variant != ast.VariantSynthesis {
		ctx.Emit(r.code, ae.Header.Location,
			fmt.Sprintf("Actualize target '^%s' is not a synthesis entry.", ae.Header.Link),
			map[string]any{"link": ae.Header.Link})
	}
}

// invalidCheckpointRule reports actualize checkpoint values that do not
// parse under the ts:/git: checkpoint format.
type invalidCheckpointRule struct{ ruleInfo }

func (r *invalidCheckpointRule) VisitActualize(ctx *visitor.Context, e *ast.Entry, ae *ast.ActualizeEntry) {
	md := findMetadata(ae.Metadata, "checkpoint")
	if md == nil {
		return
	}
	raw := trimQuotes(md.Value.Raw)
	if tracker.ParseCheckpoint(raw) == nil {
		ctx.Emit(r.code, md.Value.Location,
			fmt.Sprintf("Checkpoint '%s' does not parse.", raw), nil)
	}
}

func trimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
