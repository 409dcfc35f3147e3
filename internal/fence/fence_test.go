package fence

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectFileType(t *testing.T) {
	require.Equal(t, FileTypeMarkdown, DetectFileType("notes.md", nil))
	require.Equal(t, FileTypeThalo, DetectFileType("entries.thalo", nil))
	require.Equal(t, FileTypeMarkdown, DetectFileType("entries", []byte("intro\n```thalo\nx\n```\n")))
	require.Equal(t, FileTypeThalo, DetectFileType("entries", []byte("plain text")))
}

func TestExtractBlocks_ThaloIdentity(t *testing.T) {
	src := []byte("2026-01-05T18:00Z create lore \"E\"\n  k: \"v\"\n")
	blocks := ExtractBlocks(src, FileTypeThalo)
	require.Len(t, blocks, 1)
	require.Equal(t, src, blocks[0].Content)
	require.Equal(t, 0, blocks[0].CharOffset)
}

func TestExtractBlocks_MarkdownFences(t *testing.T) {
	src := []byte("# Notes\n\n```thalo\n2026-01-05T18:00Z create lore \"A\"\n  k: \"1\"\n```\n\nmore prose\n\n```thalo\n2026-01-06T09:00Z create lore \"B\"\n  k: \"2\"\n```\n")
	blocks := ExtractBlocks(src, FileTypeMarkdown)
	require.Len(t, blocks, 2)

	require.Contains(t, string(blocks[0].Content), `"A"`)
	require.Contains(t, string(blocks[1].Content), `"B"`)

	idx := NewLineIndex(src)
	blockPos := Position{Line: 0, Column: 0}
	filePos := blocks[0].SourceMap.ToFileAbsolutePosition(blockPos)
	require.Equal(t, 3, filePos.Line)

	absOffset := blocks[0].SourceMap.ToFileAbsoluteOffset(0)
	require.Equal(t, idx.PositionToOffset(Position{Line: 3, Column: 0}), absOffset)
}

func TestExtractBlocks_IgnoresNonThaloFences(t *testing.T) {
	src := []byte("```go\nfunc main() {}\n```\n")
	blocks := ExtractBlocks(src, FileTypeMarkdown)
	require.Empty(t, blocks)
}

func TestLineIndex_RoundTrip(t *testing.T) {
	src := []byte("abc\ndef\nghi")
	idx := NewLineIndex(src)
	for _, offset := range []int{0, 3, 4, 7, 10} {
		pos := idx.OffsetToPosition(offset)
		require.Equal(t, offset, idx.PositionToOffset(pos))
	}
}
