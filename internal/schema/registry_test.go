package schema

import (
	"testing"

	"github.com/rejot-dev/thalo/internal/ast"
	"github.com/rejot-dev/thalo/internal/cst"
	"github.com/stretchr/testify/require"
)

func schemaEntries(t *testing.T, src string) []*ast.Entry {
	t.Helper()
	root := cst.Parse([]byte(src))
	sf := ast.Project(root, []byte(src))
	var out []*ast.Entry
	for i := range sf.Entries {
		if sf.Entries[i].Variant == ast.VariantSchema {
			out = append(out, &sf.Entries[i])
		}
	}
	return out
}

func TestBuild_DefineThenAlter(t *testing.T) {
	define := schemaEntries(t, `2026-01-01T00:00Z define-entity lore "A fact"
  # Metadata
  subject: string
  # Sections
  Summary
`)
	alter := schemaEntries(t, `2026-01-02T00:00Z alter-entity lore "A fact"
  # Metadata
  confidence?: string
  # Remove Sections
  Summary
  # Sections
  Detail
`)
	r := Build(map[string][]*ast.Entry{"a.thalo": {define[0]}, "b.thalo": {alter[0]}})
	resolved := r.Get("lore")
	require.NotNil(t, resolved)
	require.Contains(t, resolved.Fields, "subject")
	require.Contains(t, resolved.Fields, "confidence")
	require.NotContains(t, resolved.Sections, "Summary")
	require.Contains(t, resolved.Sections, "Detail")
}

func TestBuild_DuplicateDefineEntity(t *testing.T) {
	a := schemaEntries(t, `2026-01-01T00:00Z define-entity lore "First"
  # Sections
  Summary
`)
	b := schemaEntries(t, `2026-01-02T00:00Z define-entity lore "Second"
  # Sections
  Detail
`)
	r := Build(map[string][]*ast.Entry{"a.thalo": {a[0]}, "b.thalo": {b[0]}})
	require.Len(t, r.Diagnostics(), 1)
	require.Equal(t, "duplicate-entity", r.Diagnostics()[0].Code)
	resolved := r.Get("lore")
	require.Equal(t, "Second", resolved.Description)
}

func TestGet_UndefinedEntity(t *testing.T) {
	r := Build(map[string][]*ast.Entry{})
	require.Nil(t, r.Get("journal"))
}

func TestBuild_AlterUndefinedEntityStillContributes(t *testing.T) {
	alter := schemaEntries(t, `2026-01-01T00:00Z alter-entity ghost "desc"
  # Sections
  Summary
`)
	r := Build(map[string][]*ast.Entry{"a.thalo": {alter[0]}})
	resolved := r.Get("ghost")
	require.NotNil(t, resolved)
	require.Contains(t, resolved.Sections, "Summary")
}
