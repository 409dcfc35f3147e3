package rules_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rejot-dev/thalo/internal/checker"
	"github.com/rejot-dev/thalo/internal/diagnostic"
	"github.com/rejot-dev/thalo/internal/rules"
	"github.com/rejot-dev/thalo/internal/workspace"
)

const loreSchema = "2026-01-01T00:00Z define-entity lore \"A captured fact\"\n" +
	"  # Metadata\n" +
	"    type: \"fact\" | \"insight\"\n" +
	"    subject: string\n" +
	"    when?: datetime\n" +
	"    refs?: link[]\n" +
	"  # Sections\n" +
	"    Summary\n" +
	"    Details?\n"

func check(t *testing.T, docs map[string]string) []diagnostic.Diagnostic {
	t.Helper()
	ws := workspace.New()
	for name, src := range docs {
		require.NoError(t, ws.AddDocument(name, []byte(src), workspace.AddOptions{}))
	}
	return checker.Check(ws, rules.All(), checker.Options{})
}

func byCode(ds []diagnostic.Diagnostic, code string) []diagnostic.Diagnostic {
	var out []diagnostic.Diagnostic
	for _, d := range ds {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

func errorCount(ds []diagnostic.Diagnostic) int {
	n := 0
	for _, d := range ds {
		if d.Severity == diagnostic.SeverityError {
			n++
		}
	}
	return n
}

func TestValidEntryPasses(t *testing.T) {
	ds := check(t, map[string]string{
		"schema.thalo": loreSchema,
		"a.thalo": "2026-01-05T18:00Z create lore \"E\" #t\n" +
			"  type: \"fact\"\n" +
			"  subject: \"x\"\n\n" +
			"  # Summary\n" +
			"  body.\n",
	})
	require.Zero(t, errorCount(ds), "diagnostics: %v", ds)
}

func TestMissingRequiredField(t *testing.T) {
	ds := check(t, map[string]string{
		"schema.thalo": loreSchema,
		"a.thalo": "2026-01-05T18:00Z create lore \"E\" #t\n" +
			"  type: \"fact\"\n\n" +
			"  # Summary\n" +
			"  body.\n",
	})
	found := byCode(ds, "missing-required-field")
	require.Len(t, found, 1)
	require.Equal(t, "a.thalo", found[0].File)
	require.Equal(t, 1, found[0].Line)
	require.Contains(t, found[0].Message, "subject")
}

func TestUnknownEntity(t *testing.T) {
	ds := check(t, map[string]string{
		"a.thalo": "2026-01-05T18:00Z create journal \"x\" #t\n  a: \"v\"\n",
	})
	found := byCode(ds, "unknown-entity")
	require.Len(t, found, 1)
	require.Contains(t, found[0].Message, "journal")
}

func TestUnknownField(t *testing.T) {
	ds := check(t, map[string]string{
		"schema.thalo": loreSchema,
		"a.thalo": "2026-01-05T18:00Z create lore \"E\"\n" +
			"  type: \"fact\"\n  subject: \"x\"\n  mystery: \"v\"\n\n  # Summary\n  body.\n",
	})
	found := byCode(ds, "unknown-field")
	require.Len(t, found, 1)
	require.Equal(t, diagnostic.SeverityWarning, found[0].Severity)
	require.Contains(t, found[0].Message, "mystery")
}

func TestInvalidFieldType(t *testing.T) {
	ds := check(t, map[string]string{
		"schema.thalo": loreSchema,
		"a.thalo": "2026-01-05T18:00Z create lore \"E\"\n" +
			"  type: \"guess\"\n  subject: \"x\"\n\n  # Summary\n  body.\n",
	})
	found := byCode(ds, "invalid-field-type")
	require.Len(t, found, 1)
	require.Contains(t, found[0].Message, "guess")
}

func TestDatetimeAndLinkArrayFields(t *testing.T) {
	ds := check(t, map[string]string{
		"schema.thalo": loreSchema,
		"a.thalo": "2026-01-05T18:00Z create lore \"E\" ^rome\n" +
			"  type: \"fact\"\n  subject: \"x\"\n  when: 2026-01-04\n  refs: ^rome\n\n  # Summary\n  body.\n",
	})
	require.Zero(t, errorCount(ds), "diagnostics: %v", ds)
}

func TestMissingRequiredSection(t *testing.T) {
	ds := check(t, map[string]string{
		"schema.thalo": loreSchema,
		"a.thalo": "2026-01-05T18:00Z create lore \"E\"\n" +
			"  type: \"fact\"\n  subject: \"x\"\n",
	})
	found := byCode(ds, "missing-required-section")
	require.Len(t, found, 1)
	require.Contains(t, found[0].Message, "Summary")
}

func TestUnknownSection(t *testing.T) {
	ds := check(t, map[string]string{
		"schema.thalo": loreSchema,
		"a.thalo": "2026-01-05T18:00Z create lore \"E\"\n" +
			"  type: \"fact\"\n  subject: \"x\"\n\n  # Summary\n  body.\n\n  # Rumors\n  more.\n",
	})
	found := byCode(ds, "unknown-section")
	require.Len(t, found, 1)
	require.Contains(t, found[0].Message, "Rumors")
}

func TestEmptyContentSection(t *testing.T) {
	ds := check(t, map[string]string{
		"schema.thalo": loreSchema,
		"a.thalo": "2026-01-05T18:00Z create lore \"E\"\n" +
			"  type: \"fact\"\n  subject: \"x\"\n\n  # Summary\n",
	})
	found := byCode(ds, "empty-content-section")
	require.Len(t, found, 1)
}

func TestUnresolvedLink(t *testing.T) {
	ds := check(t, map[string]string{
		"schema.thalo": loreSchema,
		"a.thalo": "2026-01-05T18:00Z create lore \"E\"\n" +
			"  type: \"fact\"\n  subject: \"x\"\n  refs: ^nowhere\n\n  # Summary\n  body.\n",
	})
	found := byCode(ds, "unresolved-link")
	require.Len(t, found, 1)
	require.Contains(t, found[0].Message, "nowhere")
}

func TestDuplicateLinkID(t *testing.T) {
	ds := check(t, map[string]string{
		"schema.thalo": loreSchema,
		"a.thalo": "2026-01-05T18:00Z create lore \"A\" ^dup\n" +
			"  type: \"fact\"\n  subject: \"x\"\n\n  # Summary\n  a.\n",
		"b.thalo": "2026-01-06T18:00Z create lore \"B\" ^dup\n" +
			"  type: \"fact\"\n  subject: \"x\"\n\n  # Summary\n  b.\n",
	})
	found := byCode(ds, "duplicate-link-id")
	require.Len(t, found, 2)
	require.Equal(t, "a.thalo", found[0].File)
	require.Equal(t, "b.thalo", found[1].File)
}

func TestDefineEntityRequiresSection(t *testing.T) {
	ds := check(t, map[string]string{
		"schema.thalo": "2026-01-01T00:00Z define-entity note \"Bare\"\n  # Metadata\n    body: string\n",
	})
	found := byCode(ds, "define-entity-requires-section")
	require.Len(t, found, 1)
	require.Contains(t, found[0].Message, "note")
}

func TestDuplicateEntity(t *testing.T) {
	ds := check(t, map[string]string{
		"a.thalo": loreSchema,
		"b.thalo": "2026-02-01T00:00Z define-entity lore \"Again\"\n  # Sections\n    Summary\n",
	})
	found := byCode(ds, "duplicate-entity")
	require.Len(t, found, 1)
	require.Equal(t, "b.thalo", found[0].File)
}

func TestInvalidDefaultValue(t *testing.T) {
	ds := check(t, map[string]string{
		"schema.thalo": "2026-01-01T00:00Z define-entity note \"N\"\n" +
			"  # Metadata\n    kind: \"a\" | \"b\" = \"c\"\n  # Sections\n    Body\n",
	})
	found := byCode(ds, "invalid-default-value")
	require.Len(t, found, 1)
}

func TestSynthesisRules(t *testing.T) {
	ds := check(t, map[string]string{
		"schema.thalo": loreSchema,
		"s.thalo": "2026-01-02T00:00Z define-synthesis digest \"Digest\" ^s\n" +
			"  sources: journal\n\n  # Prompt\n  Summarize.\n",
	})
	found := byCode(ds, "synthesis-unknown-entity")
	require.Len(t, found, 1)
	require.Contains(t, found[0].Message, "journal")
}

func TestSynthesisRequiresLinkAndSources(t *testing.T) {
	ds := check(t, map[string]string{
		"s.thalo": "2026-01-02T00:00Z define-synthesis digest \"Digest\"\n  note: \"no sources\"\n",
	})
	require.Len(t, byCode(ds, "synthesis-requires-link"), 1)
	require.Len(t, byCode(ds, "synthesis-requires-sources"), 1)
}

func TestActualizeUnknownTarget(t *testing.T) {
	ds := check(t, map[string]string{
		"a.thalo": "2026-01-03T00:00Z actualize-synthesis digest \"Run\" ^ghost\n  checkpoint: \"ts:2026-01-01T00:00Z\"\n",
	})
	found := byCode(ds, "actualize-unknown-target")
	require.Len(t, found, 1)
	require.Contains(t, found[0].Message, "ghost")
}

func TestInvalidCheckpoint(t *testing.T) {
	ds := check(t, map[string]string{
		"s.thalo": "2026-01-02T00:00Z define-synthesis digest \"Digest\" ^s\n  sources: lore\n\n  # Prompt\n  p.\n",
		"a.thalo": "2026-01-03T00:00Z actualize-synthesis digest \"Run\" ^s\n  checkpoint: \"svn:123\"\n",
	})
	found := byCode(ds, "invalid-checkpoint")
	require.Len(t, found, 1)
}

func TestMissingTitle(t *testing.T) {
	ds := check(t, map[string]string{
		"schema.thalo": loreSchema,
		"a.thalo": "2026-01-05T18:00Z create lore \"\"\n" +
			"  type: \"fact\"\n  subject: \"x\"\n\n  # Summary\n  body.\n",
	})
	require.Len(t, byCode(ds, "missing-title"), 1)
}

func TestParseErrorRule(t *testing.T) {
	ds := check(t, map[string]string{
		"a.thalo": "not a header at all\n",
	})
	require.NotEmpty(t, byCode(ds, "parse-error"))
}
