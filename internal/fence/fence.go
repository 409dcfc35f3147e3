// Package fence extracts thalo source blocks from either a standalone
// ".thalo" file or fenced ```thalo code blocks inside a markdown file, and
// builds the per-block source map that translates block-relative
// positions back to file-absolute ones.
package fence

import (
	"bytes"
	"strings"
)

// FileType selects how a source is scanned for blocks.
type FileType int

const (
	FileTypeThalo FileType = iota
	FileTypeMarkdown
)

// DetectFileType applies the extension-then-content fallback: markdown iff
// the source contains the literal substring "```thalo", else thalo.
func DetectFileType(filename string, source []byte) FileType {
	switch {
	case strings.HasSuffix(filename, ".md"), strings.HasSuffix(filename, ".markdown"):
		return FileTypeMarkdown
	case strings.HasSuffix(filename, ".thalo"):
		return FileTypeThalo
	}
	if bytes.Contains(source, []byte("```thalo")) {
		return FileTypeMarkdown
	}
	return FileTypeThalo
}

// Block is one extracted thalo region.
type Block struct {
	Content    []byte
	CharOffset int // byte offset of Content[0] within the enclosing file
	SourceMap  SourceMap
}

// ExtractBlocks splits source into one or more thalo blocks.
func ExtractBlocks(source []byte, fileType FileType) []Block {
	if fileType == FileTypeThalo {
		return []Block{{
			Content:    source,
			CharOffset: 0,
			SourceMap:  SourceMap{LineOffset: 0, ColumnOffset: 0, CharOffset: 0},
		}}
	}
	return extractFencedBlocks(source)
}

const fenceMarker = "```"
const fenceLang = "thalo"

// extractFencedBlocks scans top-level (not nested) fenced code blocks whose
// info string is exactly "thalo".
func extractFencedBlocks(source []byte) []Block {
	lines := bytes.Split(source, []byte("\n"))
	var blocks []Block

	offset := 0
	i := 0
	for i < len(lines) {
		line := lines[i]
		lineStart := offset
		lineLen := len(line) + 1 // account for the '\n' we split on
		trimmed := strings.TrimSpace(string(line))
		if strings.HasPrefix(trimmed, fenceMarker) && strings.TrimSpace(trimmed[len(fenceMarker):]) == fenceLang {
			openLineEnd := lineStart + lineLen
			contentStart := openLineEnd
			contentLineOffset := i + 1
			// indentation of the opening fence becomes the block's column offset
			colOffset := len(line) - len(strings.TrimLeft(string(line), " \t"))

			j := i + 1
			var contentLines [][]byte
			for j < len(lines) {
				candidate := strings.TrimSpace(string(lines[j]))
				if strings.HasPrefix(candidate, fenceMarker) {
					break
				}
				contentLines = append(contentLines, lines[j])
				j++
			}
			content := bytes.Join(contentLines, []byte("\n"))
			blocks = append(blocks, Block{
				Content:    content,
				CharOffset: contentStart,
				SourceMap: SourceMap{
					LineOffset:   contentLineOffset,
					ColumnOffset: colOffset,
					CharOffset:   contentStart,
				},
			})
			// advance past the closing fence line, if found
			if j < len(lines) {
				i = j + 1
			} else {
				i = j
			}
			offset = sumLineLengths(lines, i)
			continue
		}
		offset += lineLen
		i++
	}
	return blocks
}

func sumLineLengths(lines [][]byte, upTo int) int {
	total := 0
	for i := 0; i < upTo && i < len(lines); i++ {
		total += len(lines[i]) + 1
	}
	return total
}
