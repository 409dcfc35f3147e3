package rules

import (
	"fmt"

	"github.com/rejot-dev/thalo/internal/ast"
	"github.com/rejot-dev/thalo/internal/visitor"
)

func contentSectionNames(c *ast.Content) []string {
	if c == nil {
		return nil
	}
	var names []string
	for _, child := range c.Children {
		if child.Kind == ast.ContentMDHeader {
			names = append(names, child.Name)
		}
	}
	return names
}

// missingRequiredSectionRule reports schema-declared non-optional
// sections absent from an instance's content.
type missingRequiredSectionRule struct{ ruleInfo }

func (r *missingRequiredSectionRule) VisitInstance(ctx *visitor.Context, e *ast.Entry, ie *ast.InstanceEntry) {
	resolved := ctx.Workspace.SchemaRegistry().Get(ie.Header.Entity)
	if resolved == nil {
		return
	}
	present := map[string]bool{}
	for _, name := range contentSectionNames(ie.Content) {
		present[name] = true
	}
	for _, name := range resolved.SectionOrder {
		section := resolved.Sections[name]
		if section.Optional || present[name] {
			continue
		}
		ctx.Emit(r.code, ie.Header.Location,
			fmt.Sprintf("Missing required section '%s' on entity '%s'.", name, ie.Header.Entity),
			map[string]any{"section": name, "entity": ie.Header.Entity})
	}
}

// unknownSectionRule reports markdown headers whose name is not declared
// by the schema.
type unknownSectionRule struct{ ruleInfo }

func (r *unknownSectionRule) VisitInstance(ctx *visitor.Context, e *ast.Entry, ie *ast.InstanceEntry) {
	resolved := ctx.Workspace.SchemaRegistry().Get(ie.Header.Entity)
	if resolved == nil || ie.Content == nil {
		return
	}
	for _, child := range ie.Content.Children {
		if child.Kind != ast.ContentMDHeader {
			continue
		}
		if _, ok := resolved.Sections[child.Name]; !ok {
			ctx.Emit(r.code, child.Location,
				fmt.Sprintf("Unknown section '%s' on entity '%s'.", child.Name, ie.Header.Entity),
				map[string]any{"section": child.Name, "entity": ie.Header.Entity})
		}
	}
}

// emptyContentSectionRule reports a markdown header with no non-blank
// body line before the next header or the end of the entry.
type emptyContentSectionRule struct{ ruleInfo }

func (r *emptyContentSectionRule) checkContent(ctx *visitor.Context, c *ast.Content) {
	if c == nil {
		return
	}
	for i, child := range c.Children {
		if child.Kind != ast.ContentMDHeader {
			continue
		}
		empty := true
		for j := i + 1; j < len(c.Children); j++ {
			next := c.Children[j]
			if next.Kind == ast.ContentMDHeader {
				break
			}
			if next.Kind != ast.ContentBlank {
				empty = false
				break
			}
		}
		if empty {
			ctx.Emit(r.code, child.Location,
				fmt.Sprintf("Section '%s' has no content.", child.Name),
				map[string]any{"section": child.Name})
		}
	}
}

func (r *emptyContentSectionRule) VisitInstance(ctx *visitor.Context, e *ast.Entry, ie *ast.InstanceEntry) {
	r.checkContent(ctx, ie.Content)
}

func (r *emptyContentSectionRule) VisitSynthesis(ctx *visitor.Context, e *ast.Entry, se *ast.SynthesisEntry) {
	r.checkContent(ctx, se.Content)
}
