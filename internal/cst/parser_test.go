package cst

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_InstanceEntry(t *testing.T) {
	src := []byte("2026-01-05T18:00Z create lore \"E\" #t\n  type: \"fact\"\n  subject: \"x\"\n\n  # Summary\n  body.\n")
	root := Parse(src)
	require.Equal(t, "source_file", root.Kind())
	require.Len(t, root.NamedChildren(), 1)

	entry := root.Child(0)
	require.Equal(t, "instance_entry", entry.Kind())

	header := entry.ChildByFieldName("header")
	ts, directive, entity, title, link, tags, ok := header.HeaderValues()
	require.True(t, ok)
	require.Equal(t, "2026-01-05T18:00Z", ts)
	require.Equal(t, "create", directive)
	require.Equal(t, "lore", entity)
	require.Equal(t, "E", title)
	require.Empty(t, link)
	require.Equal(t, []string{"t"}, tags)

	var metaCount int
	var content *Node
	for _, c := range entry.NamedChildren() {
		if c.Kind() == "metadata" {
			metaCount++
		}
		if c.Kind() == "content" {
			content = c
		}
	}
	require.Equal(t, 2, metaCount)
	require.NotNil(t, content)

	var sawHeader bool
	for _, c := range content.NamedChildren() {
		if c.Kind() == "md_header" {
			sawHeader = true
			require.Contains(t, c.Content(src), "Summary")
		}
	}
	require.True(t, sawHeader)
}

func TestParse_UnknownEntityStillParses(t *testing.T) {
	src := []byte("2026-01-05T18:00Z create journal \"x\" #t\n  a: \"v\"\n")
	root := Parse(src)
	require.Len(t, root.NamedChildren(), 1)
	entry := root.Child(0)
	require.Equal(t, "instance_entry", entry.Kind())
}

func TestParse_SchemaEntry(t *testing.T) {
	src := []byte(`2026-01-05T18:00Z define-entity lore "A lore fact"
  # Metadata
  type?: "fact"|"insight"
  subject: string; "who this is about"
  # Sections
  Summary
  Detail?; "extra context"
`)
	root := Parse(src)
	entry := root.Child(0)
	require.Equal(t, "schema_entry", entry.Kind())

	var metaBlock, sectionsBlock *Node
	for _, c := range entry.NamedChildren() {
		switch c.Kind() {
		case "metadata_block":
			metaBlock = c
		case "sections_block":
			sectionsBlock = c
		}
	}
	require.NotNil(t, metaBlock)
	require.NotNil(t, sectionsBlock)
	require.Len(t, metaBlock.NamedChildren(), 2)
	require.Len(t, sectionsBlock.NamedChildren(), 2)

	fv, ok := metaBlock.Child(0).FieldValues()
	require.True(t, ok)
	require.Equal(t, "type", fv.Name)
	require.True(t, fv.Optional)
	require.Equal(t, `"fact"|"insight"`, fv.Type)

	sv, ok := sectionsBlock.Child(1).SectionValues()
	require.True(t, ok)
	require.Equal(t, "Detail", sv.Name)
	require.True(t, sv.Optional)
	require.Equal(t, "extra context", sv.Desc)
}

func TestParse_MalformedHeaderBecomesError(t *testing.T) {
	src := []byte("not a valid header line\n  k: \"v\"\n")
	root := Parse(src)
	entry := root.Child(0)
	header := entry.ChildByFieldName("header")
	_, _, _, _, _, _, ok := header.HeaderValues()
	require.False(t, ok)
	require.Len(t, header.NamedChildren(), 1)
	require.True(t, header.Child(0).IsError())
}

func TestParse_MultipleEntries(t *testing.T) {
	src := []byte("2026-01-05T18:00Z create lore \"A\"\n  k: \"1\"\n2026-01-06T09:00Z create lore \"B\"\n  k: \"2\"\n")
	root := Parse(src)
	require.Len(t, root.NamedChildren(), 2)
}

func TestParse_ValueArray(t *testing.T) {
	src := []byte("2026-01-05T18:00Z create lore \"E\"\n  tags: \"a\", \"b\", \"c\"\n")
	root := Parse(src)
	entry := root.Child(0)
	var meta *Node
	for _, c := range entry.NamedChildren() {
		if c.Kind() == "metadata" {
			meta = c
		}
	}
	require.NotNil(t, meta)
	value := meta.ChildByFieldName("value")
	require.Equal(t, "value_array", value.Kind())
	require.Len(t, value.NamedChildren(), 3)
}
