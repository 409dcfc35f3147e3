package rules

import (
	"fmt"

	"github.com/rejot-dev/thalo/internal/ast"
	"github.com/rejot-dev/thalo/internal/visitor"
)

// unknownEntityRule reports instance entries whose entity name has no
// resolved schema.
type unknownEntityRule struct{ ruleInfo }

func (r *unknownEntityRule) VisitInstance(ctx *visitor.Context, e *ast.Entry, ie *ast.InstanceEntry) {
	if ctx.Workspace.SchemaRegistry().Get(ie.Header.Entity) != nil {
		return
	}
	ctx.Emit(r.code, ie.Header.Location,
		fmt.Sprintf("Unknown entity type '%s'.", ie.Header.Entity),
		map[string]any{"entity": ie.Header.Entity})
}

// missingTitleRule reports headers with an empty title, across all four
// entry variants.
type missingTitleRule struct{ ruleInfo }

func (r *missingTitleRule) checkHeader(ctx *visitor.Context, h *ast.Header) {
	if h.Title != "" {
		return
	}
	ctx.Emit(r.code, h.Location, "Entry has an empty title.", nil)
}

func (r *missingTitleRule) VisitInstance(ctx *visitor.Context, e *ast.Entry, ie *ast.InstanceEntry) {
	r.checkHeader(ctx, &ie.Header)
}
func (r *missingTitleRule) VisitSchema(ctx *visitor.Context, e *ast.Entry, se *ast.SchemaEntry) {
	r.checkHeader(ctx, &se.Header)
}
func (r *missingTitleRule) VisitSynthesis(ctx *visitor.Context, e *ast.Entry, se *ast.SynthesisEntry) {
	r.checkHeader(ctx, &se.Header)
}
func (r *missingTitleRule) VisitActualize(ctx *visitor.Context, e *ast.Entry, ae *ast.ActualizeEntry) {
	r.checkHeader(ctx, &ae.Header)
}

// parseErrorRule reports entries whose header failed to parse and
// headers whose timestamp is a syntax-error child. It runs in the
// per-model BeforeCheck hook because error-variant entries are never
// dispatched to the per-variant visit methods.
type parseErrorRule struct{ ruleInfo }

func (r *parseErrorRule) BeforeCheck(ctx *visitor.Context) {
	if ctx.Model == nil {
		return
	}
	for i := range ctx.Model.AST.Entries {
		e := &ctx.Model.AST.Entries[i]
		if e.Variant == ast.VariantError {
			ctx.Emit(r.code, e.Error.Location, "Entry could not be parsed.", map[string]any{"raw": e.Error.Raw})
			continue
		}
		if h := headerOf(e); h != nil && !h.Timestamp.Valid {
			ctx.Emit(r.code, h.Location,
				fmt.Sprintf("Malformed timestamp '%s'.", h.Timestamp.Raw), nil)
		}
	}
}

func headerOf(e *ast.Entry) *ast.Header {
	switch e.Variant {
	case ast.VariantInstance:
		return &e.Instance.Header
	case ast.VariantSchema:
		return &e.Schema.Header
	case ast.VariantSynthesis:
		return &e.Synthesis.Header
	case ast.VariantActualize:
		return &e.Actualize.Header
	default:
		return nil
	}
}
