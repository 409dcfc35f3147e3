package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rejot-dev/thalo/internal/checker"
	"github.com/rejot-dev/thalo/internal/rules"
	"github.com/rejot-dev/thalo/internal/workspace"
)

func buildServiceWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()
	ws := workspace.New()
	require.NoError(t, ws.AddDocument("a.thalo", []byte(
		"2026-01-05T18:00Z create lore \"E\" ^x #travel\n  k: \"v\"\n"), workspace.AddOptions{}))
	require.NoError(t, ws.AddDocument("b.thalo", []byte(
		"2026-01-06T18:00Z create lore \"F\" #travel\n  ref: ^x\n"), workspace.AddOptions{}))
	return ws
}

func TestFindDefinition_CrossFile(t *testing.T) {
	ws := buildServiceWorkspace(t)
	def := FindDefinition(ws, "x")
	require.NotNil(t, def)
	require.Equal(t, "a.thalo", def.File)
	require.Equal(t, 0, def.Location.StartPosition.Line)

	require.Nil(t, FindDefinition(ws, "missing"))
}

func TestFindReferences_IncludeDeclaration(t *testing.T) {
	ws := buildServiceWorkspace(t)
	refs := FindReferences(ws, "x", true)
	require.Len(t, refs.Locations, 2)
	require.Equal(t, "a.thalo", refs.Locations[0].File)
	require.True(t, refs.Locations[0].IsDefinition)
	require.Equal(t, "b.thalo", refs.Locations[1].File)
	require.False(t, refs.Locations[1].IsDefinition)

	withoutDecl := FindReferences(ws, "x", false)
	require.Len(t, withoutDecl.Locations, 1)
}

func TestFindTagReferences(t *testing.T) {
	ws := buildServiceWorkspace(t)
	refs := FindTagReferences(ws, "travel")
	require.Len(t, refs.Locations, 2)
	require.Equal(t, "a.thalo", refs.Locations[0].File)
	require.Equal(t, "b.thalo", refs.Locations[1].File)
}

func TestFindEntityReferences(t *testing.T) {
	ws := buildServiceWorkspace(t)
	require.NoError(t, ws.AddDocument("schema.thalo", []byte(
		"2026-01-01T00:00Z define-entity lore \"A fact\"\n  # Sections\n    Summary\n"), workspace.AddOptions{}))

	refs := FindEntityReferences(ws, "lore")
	require.Len(t, refs.Locations, 3)
	var defs int
	for _, l := range refs.Locations {
		if l.IsDefinition {
			defs++
			require.Equal(t, "schema.thalo", l.File)
		}
	}
	require.Equal(t, 1, defs)
}

func TestFindFieldAndSectionReferences(t *testing.T) {
	ws := workspace.New()
	require.NoError(t, ws.AddDocument("schema.thalo", []byte(
		"2026-01-01T00:00Z define-entity lore \"A fact\"\n"+
			"  # Metadata\n    subject: string\n  # Sections\n    Summary\n"), workspace.AddOptions{}))
	require.NoError(t, ws.AddDocument("a.thalo", []byte(
		"2026-01-05T18:00Z create lore \"E\"\n  subject: \"x\"\n\n  # Summary\n  body.\n"), workspace.AddOptions{}))

	fieldRefs := FindFieldReferences(ws, "lore", "subject")
	require.Len(t, fieldRefs.Locations, 2)
	require.True(t, fieldRefs.Locations[1].IsDefinition) // schema.thalo sorts after a.thalo

	secRefs := FindSectionReferences(ws, "lore", "Summary")
	require.Len(t, secRefs.Locations, 2)
}

func TestHover(t *testing.T) {
	ws := buildServiceWorkspace(t)
	text := Hover(ws, NodeContext{Kind: ContextLink, Name: "x"})
	require.Contains(t, text, "E")
	require.Contains(t, text, "a.thalo")

	text = Hover(ws, NodeContext{Kind: ContextLink, Name: "ghost"})
	require.Contains(t, text, "Unresolved")
}

func TestMarkdownEmbedding_FileCoordinates(t *testing.T) {
	src := "# Notes\n\n" +
		"```thalo\n" +
		"2026-01-05T18:00Z create lore \"A\" ^x\n" +
		"  k: \"v\"\n" +
		"```\n\n" +
		"text between\n\n" +
		"```thalo\n" +
		"2026-01-06T18:00Z create journal \"B\"\n" +
		"  a: ^x\n" +
		"```\n"
	ws := workspace.New()
	require.NoError(t, ws.AddDocument("notes.md", []byte(src), workspace.AddOptions{}))

	ds := checker.Check(ws, rules.All(), checker.Options{})
	var unknownLine int
	for _, d := range ds {
		if d.Code == "unknown-entity" {
			unknownLine = d.Line
		}
	}
	// the journal entry's header sits on physical line 10 (1-based: 11)
	require.Equal(t, 11, unknownLine)

	def := FindDefinition(ws, "x")
	require.NotNil(t, def)
	require.Equal(t, 3, def.Location.StartPosition.Line)
}
