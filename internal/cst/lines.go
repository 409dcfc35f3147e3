package cst

// splitLines classifies every physical line of src, matching the
// scanner's line-at-a-time view of the source. The trailing line (after
// the last newline, even if empty) is included so EOF-adjacent content
// is still classified.
func splitLines(src []byte) []line {
	var lines []line
	start := 0
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			lines = append(lines, classifyLine(src, start, i))
			start = i + 1
		}
	}
	lines = append(lines, classifyLine(src, start, len(src)))
	return lines
}

// pointAt converts a byte offset into a (row, column) Point given the
// physical lines already computed. Row/column are 0-based, matching
// tree-sitter convention; column is a byte offset within the line.
func pointAt(lines []line, offset int) Point {
	for row, l := range lines {
		end := l.end
		// Each line (except possibly the last) is followed by a '\n' that
		// belongs to no line's content; offsets pointing at or before the
		// newline belong to this line.
		if offset <= end {
			return Point{Row: uint32(row), Column: uint32(offset - l.start)}
		}
		_ = end
	}
	if len(lines) == 0 {
		return Point{}
	}
	last := lines[len(lines)-1]
	return Point{Row: uint32(len(lines) - 1), Column: uint32(offset - last.start)}
}
