package format

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rejot-dev/thalo/internal/ast"
	"github.com/rejot-dev/thalo/internal/cst"
)

func parse(src string) *ast.SourceFile {
	return ast.Project(cst.Parse([]byte(src)), []byte(src))
}

func TestFormatHeader(t *testing.T) {
	sf := parse("2026-01-05T18:00Z create lore \"E\" ^rome #travel #history\n  k: \"v\"\n")
	require.Len(t, sf.Entries, 1)
	got := FormatHeader(&sf.Entries[0].Instance.Header)
	require.Equal(t, `2026-01-05T18:00Z create lore "E" ^rome #travel #history`, got)
}

func TestFormatEntry_InstanceWithContent(t *testing.T) {
	src := "2026-01-05T18:00Z create lore \"E\" #t\n" +
		"  type: \"fact\"\n\n" +
		"  # Summary\n" +
		"  body line.\n" +
		"  - a bullet\n"
	sf := parse(src)
	got := FormatEntry(&sf.Entries[0])
	require.Equal(t, src, got)
}

func TestFormatEntry_Schema(t *testing.T) {
	src := "2026-01-01T00:00Z define-entity lore \"A fact\"\n" +
		"  # Metadata\n" +
		"    type: \"fact\" | \"insight\"\n" +
		"    subject?: string = \"none\" ; \"what it concerns\"\n" +
		"  # Sections\n" +
		"    Summary\n" +
		"    Details? ; \"optional depth\"\n"
	sf := parse(src)
	got := FormatEntry(&sf.Entries[0])
	require.Equal(t, src, got)
}

// Round-trip property: formatting a parsed source re-parses to a tree
// that formats identically (locations may differ, payloads must not).
func TestFormat_RoundTripStable(t *testing.T) {
	sources := []string{
		"2026-01-05T18:00Z create lore \"E\" ^x #t\n  type: \"fact\"\n  refs: ^a, ^b\n\n  # Summary\n  body.\n",
		"2026-01-01T00:00Z define-entity lore \"A\"\n  # Metadata\n    type: string\n  # Sections\n    Summary\n",
		"2026-01-02T00:00Z define-synthesis digest \"D\" ^s\n  sources: lore\n\n  # Prompt\n  Summarize.\n",
		"2026-01-03T00:00Z actualize-synthesis digest \"Run\" ^s\n  checkpoint: \"ts:2026-01-01T00:00Z\"\n",
		"2026-01-05T18:00Z create lore \"A\"\n  k: \"1\"\n\n2026-01-06T18:00Z create lore \"B\"\n  k: \"2\"\n",
	}
	for _, src := range sources {
		once := Format(parse(src))
		twice := Format(parse(string(once)))
		require.Equal(t, string(once), string(twice), "source: %q", src)
	}
}

func TestFormat_AlterEntityWithRemoveBlocks(t *testing.T) {
	src := "2026-02-01T00:00Z alter-entity lore \"Trim\"\n" +
		"  # Remove Metadata\n" +
		"    subject\n" +
		"  # Remove Sections\n" +
		"    Details\n"
	sf := parse(src)
	got := FormatEntry(&sf.Entries[0])
	require.Equal(t, src, got)
}
