package ast

import (
	"testing"

	"github.com/rejot-dev/thalo/internal/cst"
	"github.com/stretchr/testify/require"
)

func project(t *testing.T, src string) *SourceFile {
	t.Helper()
	root := cst.Parse([]byte(src))
	return Project(root, []byte(src))
}

func TestProject_InstanceEntry(t *testing.T) {
	sf := project(t, "2026-01-05T18:00+02:00 create lore \"E\" ^abc #t1 #t2\n  subject: \"x\"\n  refs: \"a\", \"b\"\n\n  # Summary\n  notes here\n")
	require.Len(t, sf.Entries, 1)
	e := sf.Entries[0]
	require.Equal(t, VariantInstance, e.Variant)
	h := e.Instance.Header
	require.True(t, h.Timestamp.Valid)
	require.Equal(t, 2026, h.Timestamp.Year)
	require.Equal(t, 1, h.Timestamp.Month)
	require.Equal(t, 5, h.Timestamp.Day)
	require.Equal(t, 18, h.Timestamp.Hour)
	require.Equal(t, "+02:00", h.Timestamp.Timezone)
	require.True(t, h.HasLink)
	require.Equal(t, "abc", h.Link)
	require.Equal(t, []string{"t1", "t2"}, h.Tags)

	require.Len(t, e.Instance.Metadata, 2)
	require.Equal(t, "subject", e.Instance.Metadata[0].Key)
	require.Equal(t, ValueQuotedString, e.Instance.Metadata[0].Value.Kind)

	refs := e.Instance.Metadata[1]
	require.Equal(t, ValueArray, refs.Value.Kind)
	require.Len(t, refs.Value.Elements, 2)

	sec := e.Instance.Content.Section("Summary")
	require.NotNil(t, sec)
}

func TestProject_TimestampZ(t *testing.T) {
	sf := project(t, "2026-01-05T18:00Z create lore \"E\"\n  k: \"v\"\n")
	ts := sf.Entries[0].Instance.Header.Timestamp
	require.True(t, ts.Valid)
	require.Equal(t, "Z", ts.Timezone)
}

func TestProject_SchemaEntry(t *testing.T) {
	sf := project(t, `2026-01-05T18:00Z define-entity lore "A fact"
  # Metadata
  type?: "fact"|"insight" = "fact"; "kind"
  refs: link[]
  # Sections
  Summary
  Detail?
`)
	e := sf.Entries[0]
	require.Equal(t, VariantSchema, e.Variant)
	se := e.Schema
	require.Len(t, se.Fields, 2)

	typeField := se.Fields[0]
	require.Equal(t, "type", typeField.Name)
	require.True(t, typeField.Optional)
	require.Equal(t, TypeUnion, typeField.Type.Kind)
	require.Len(t, typeField.Type.Members, 2)
	require.Equal(t, "fact", typeField.Type.Members[0].Literal)
	require.True(t, typeField.HasDefault)
	require.Equal(t, `"fact"`, typeField.Default)
	require.Equal(t, "kind", typeField.Description)

	refsField := se.Fields[1]
	require.Equal(t, TypeArray, refsField.Type.Kind)
	require.Equal(t, PrimitiveLink, refsField.Type.Element.Primitive)

	require.Len(t, se.Sections, 2)
	require.Equal(t, "Summary", se.Sections[0].Name)
	require.False(t, se.Sections[0].Optional)
	require.True(t, se.Sections[1].Optional)
}

func TestProject_MalformedHeaderYieldsSyntaxError(t *testing.T) {
	sf := project(t, "garbage line\n  k: \"v\"\n")
	require.Len(t, sf.Entries, 1)
	require.Equal(t, VariantError, sf.Entries[0].Variant)
	require.NotNil(t, sf.Entries[0].Error)
}

func TestProject_ActualizeEntry(t *testing.T) {
	sf := project(t, "2026-01-05T18:00Z actualize-synthesis synth \"Weekly\" ^weekly-1\n")
	e := sf.Entries[0]
	require.Equal(t, VariantActualize, e.Variant)
	require.Equal(t, "weekly-1", e.Actualize.Header.Link)
}
