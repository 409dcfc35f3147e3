package rules

import (
	"fmt"

	"github.com/rejot-dev/thalo/internal/ast"
	"github.com/rejot-dev/thalo/internal/visitor"
)

// missingRequiredFieldRule reports schema-declared non-optional fields
// without a default that are absent from an instance, at the entry's
// header location.
type missingRequiredFieldRule struct{ ruleInfo }

func (r *missingRequiredFieldRule) VisitInstance(ctx *visitor.Context, e *ast.Entry, ie *ast.InstanceEntry) {
	resolved := ctx.Workspace.SchemaRegistry().Get(ie.Header.Entity)
	if resolved == nil {
		return
	}
	for _, name := range resolved.FieldOrder {
		field := resolved.Fields[name]
		if field.Optional || field.HasDefault {
			continue
		}
		if findMetadata(ie.Metadata, name) == nil {
			ctx.Emit(r.code, ie.Header.Location,
				fmt.Sprintf("Missing required field '%s' on entity '%s'.", name, ie.Header.Entity),
				map[string]any{"field": name, "entity": ie.Header.Entity})
		}
	}
}

// unknownFieldRule reports fields an instance supplies that the schema
// does not declare.
type unknownFieldRule struct{ ruleInfo }

func (r *unknownFieldRule) VisitInstance(ctx *visitor.Context, e *ast.Entry, ie *ast.InstanceEntry) {
	resolved := ctx.Workspace.SchemaRegistry().Get(ie.Header.Entity)
	if resolved == nil {
		return
	}
	for _, md := range ie.Metadata {
		if _, ok := resolved.Fields[md.Key]; !ok {
			ctx.Emit(r.code, md.Location,
				fmt.Sprintf("Unknown field '%s' on entity '%s'.", md.Key, ie.Header.Entity),
				map[string]any{"field": md.Key, "entity": ie.Header.Entity})
		}
	}
}

// invalidFieldTypeRule reports metadata values that do not satisfy the
// schema field's declared type.
type invalidFieldTypeRule struct{ ruleInfo }

func (r *invalidFieldTypeRule) VisitInstance(ctx *visitor.Context, e *ast.Entry, ie *ast.InstanceEntry) {
	resolved := ctx.Workspace.SchemaRegistry().Get(ie.Header.Entity)
	if resolved == nil {
		return
	}
	for _, md := range ie.Metadata {
		field, ok := resolved.Fields[md.Key]
		if !ok {
			continue
		}
		if md.Value.Kind == ast.ValueError || field.Type.Kind == ast.TypeError {
			continue
		}
		if !TypeMatches(md.Value, field.Type) {
			ctx.Emit(r.code, md.Value.Location,
				fmt.Sprintf("Value '%s' does not satisfy type '%s' of field '%s'.", md.Value.Raw, field.Type.Raw, md.Key),
				map[string]any{"field": md.Key, "type": field.Type.Raw})
		}
	}
}
