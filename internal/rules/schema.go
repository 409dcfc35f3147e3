package rules

import (
	"fmt"

	"github.com/rejot-dev/thalo/internal/ast"
	"github.com/rejot-dev/thalo/internal/visitor"
)

// defineEntityRequiresSectionRule reports define-entity entries whose
// resolved schema declares zero sections.
type defineEntityRequiresSectionRule struct{ ruleInfo }

func (r *defineEntityRequiresSectionRule) VisitSchema(ctx *visitor.Context, e *ast.Entry, se *ast.SchemaEntry) {
	if se.Header.Directive != "define-entity" {
		return
	}
	resolved := ctx.Workspace.SchemaRegistry().Get(se.Header.Entity)
	if resolved != nil && len(resolved.SectionOrder) > 0 {
		return
	}
	ctx.Emit(r.code, se.Header.Location,
		fmt.Sprintf("Entity '%s' declares no sections.", se.Header.Entity),
		map[string]any{"entity": se.Header.Entity})
}

// duplicateEntityRule surfaces the registry's duplicate-entity findings,
// emitting only the ones located in the model currently being checked.
type duplicateEntityRule struct{ ruleInfo }

func (r *duplicateEntityRule) BeforeCheck(ctx *visitor.Context) {
	if ctx.Model == nil {
		return
	}
	for _, d := range ctx.Workspace.SchemaRegistry().Diagnostics() {
		if d.Code != "duplicate-entity" || d.File != ctx.Model.File {
			continue
		}
		ctx.Emit(r.code, d.Location,
			fmt.Sprintf("Entity '%s' is defined more than once.", d.Entity),
			map[string]any{"entity": d.Entity})
	}
}

// invalidTypeExpressionRule reports field definitions whose type text
// failed to parse.
type invalidTypeExpressionRule struct{ ruleInfo }

func (r *invalidTypeExpressionRule) VisitSchema(ctx *visitor.Context, e *ast.Entry, se *ast.SchemaEntry) {
	for _, f := range se.Fields {
		if hasTypeError(f.Type) {
			ctx.Emit(r.code, f.Location,
				fmt.Sprintf("Type '%s' of field '%s' does not parse.", f.Type.Raw, f.Name),
				map[string]any{"field": f.Name, "type": f.Type.Raw})
		}
	}
}

func hasTypeError(t ast.TypeExpression) bool {
	switch t.Kind {
	case ast.TypeError:
		return true
	case ast.TypeUnion:
		for _, m := range t.Members {
			if hasTypeError(m) {
				return true
			}
		}
	case ast.TypeArray:
		return hasTypeError(*t.Element)
	}
	return false
}

// invalidDefaultValueRule reports field defaults that do not satisfy the
// field's own type.
type invalidDefaultValueRule struct{ ruleInfo }

func (r *invalidDefaultValueRule) VisitSchema(ctx *visitor.Context, e *ast.Entry, se *ast.SchemaEntry) {
	for _, f := range se.Fields {
		if !f.HasDefault || hasTypeError(f.Type) {
			continue
		}
		if !DefaultMatches(f.Default, f.Type) {
			ctx.Emit(r.code, f.Location,
				fmt.Sprintf("Default '%s' does not satisfy type '%s' of field '%s'.", f.Default, f.Type.Raw, f.Name),
				map[string]any{"field": f.Name, "default": f.Default})
		}
	}
}
