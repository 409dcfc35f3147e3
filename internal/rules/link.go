package rules

import (
	"fmt"
	"strings"

	"github.com/rejot-dev/thalo/internal/ast"
	"github.com/rejot-dev/thalo/internal/visitor"
)

// unresolvedLinkRule reports metadata link values (including array
// elements) with no definition anywhere in the workspace.
type unresolvedLinkRule struct{ ruleInfo }

func (r *unresolvedLinkRule) checkMetadata(ctx *visitor.Context, meta []ast.Metadata) {
	for _, md := range meta {
		r.checkValue(ctx, md.Value)
	}
}

func (r *unresolvedLinkRule) checkValue(ctx *visitor.Context, v ast.ValueContent) {
	if v.Kind == ast.ValueArray {
		for _, el := range v.Elements {
			r.checkValue(ctx, el)
		}
		return
	}
	if v.Kind != ast.ValueLink {
		return
	}
	id := strings.TrimPrefix(v.Raw, "^")
	if _, ok := ctx.Workspace.GetLinkDefinition(id); !ok {
		ctx.Emit(r.code, v.Location,
			fmt.Sprintf("Unresolved link '^%s'.", id),
			map[string]any{"link": id})
	}
}

func (r *unresolvedLinkRule) VisitInstance(ctx *visitor.Context, e *ast.Entry, ie *ast.InstanceEntry) {
	r.checkMetadata(ctx, ie.Metadata)
}
func (r *unresolvedLinkRule) VisitSynthesis(ctx *visitor.Context, e *ast.Entry, se *ast.SynthesisEntry) {
	r.checkMetadata(ctx, se.Metadata)
}
func (r *unresolvedLinkRule) VisitActualize(ctx *visitor.Context, e *ast.Entry, ae *ast.ActualizeEntry) {
	r.checkMetadata(ctx, ae.Metadata)
}

// duplicateLinkIDRule reports every definition of a link id that is
// defined more than once across the workspace. It aggregates at the
// workspace level, emitting only the definitions that live in the model
// currently being checked so a whole-workspace run reports each site
// exactly once.
type duplicateLinkIDRule struct{ ruleInfo }

func (r *duplicateLinkIDRule) BeforeCheck(ctx *visitor.Context) {
	if ctx.Model == nil {
		return
	}
	for id, defs := range ctx.Workspace.DuplicateLinkDefinitions() {
		for _, def := range defs {
			if def.File != ctx.Model.File {
				continue
			}
			ctx.Emit(r.code, def.Location,
				fmt.Sprintf("Duplicate link id '^%s' (defined %d times).", id, len(defs)),
				map[string]any{"link": id, "count": len(defs)})
		}
	}
}
