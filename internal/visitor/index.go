package visitor

import (
	"github.com/rejot-dev/thalo/internal/ast"
	"github.com/rejot-dev/thalo/internal/workspace"
)

// Index aggregates workspace-wide facts so individual rules can be
// O(entries) instead of re-scanning the whole workspace per rule.
type Index struct {
	// TagCounts maps tag name -> number of headers carrying it.
	TagCounts map[string]int
	// EntityUseCounts maps entity name -> number of instance entries
	// using it.
	EntityUseCounts map[string]int
}

// BuildIndex scans every document in ws once and tallies tag and
// entity-use counts.
func BuildIndex(ws *workspace.Workspace) *Index {
	idx := &Index{TagCounts: map[string]int{}, EntityUseCounts: map[string]int{}}
	for _, m := range ws.AllModels() {
		for i := range m.AST.Entries {
			e := &m.AST.Entries[i]
			header := headerFor(e)
			if header == nil {
				continue
			}
			for _, tag := range header.Tags {
				idx.TagCounts[tag]++
			}
			if e.Variant == ast.VariantInstance {
				idx.EntityUseCounts[header.Entity]++
			}
		}
	}
	return idx
}

func headerFor(e *ast.Entry) *ast.Header {
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
