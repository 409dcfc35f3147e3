// Package diff computes line-level diffs over sergi/go-diff. The merge
// driver uses it to decide whether an entry's serialization changed
// against the common ancestor, and the formatter's tests use it to
// report round-trip divergences readably.
package diff

import (
	"strings"
	"sync"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineType classifies one line of a diff.
type LineType int

const (
	LineContext LineType = iota
	LineAdded
	LineRemoved
)

// Line is a single classified line.
type Line struct {
	LineNum int
	Content string
	Type    LineType
}

// Hunk groups nearby changes with surrounding context.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// FileDiff is the diff between two versions of one text.
type FileDiff struct {
	OldPath  string
	NewPath  string
	Hunks    []Hunk
	IsNew    bool
	IsDelete bool
}

// Engine wraps a diffmatchpatch instance with a result cache keyed on
// the input pair; merge runs diff the same entry texts repeatedly while
// walking triples.
type Engine struct {
	dmp   *diffmatchpatch.DiffMatchPatch
	cache sync.Map
}

type cacheKey struct {
	oldHash uint64
	newHash uint64
}

// NewEngine creates an Engine. The timeout is disabled: entry texts are
// small and accuracy matters more than bounding pathological inputs.
func NewEngine() *Engine {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	return &Engine{dmp: dmp}
}

// DefaultEngine is the shared engine package-level callers use.
var DefaultEngine = NewEngine()

// ComputeDiff diffs oldContent against newContent, grouping changes into
// hunks with three lines of context. Identical input pairs hit the
// cache; only the paths are re-stamped.
func (e *Engine) ComputeDiff(oldPath, newPath, oldContent, newContent string) *FileDiff {
	fd := &FileDiff{
		OldPath:  oldPath,
		NewPath:  newPath,
		Hunks:    []Hunk{},
		IsNew:    oldContent == "",
		IsDelete: newContent == "",
	}

	key := cacheKey{hash(oldContent), hash(newContent)}
	if cached, ok := e.cache.Load(key); ok {
		if cachedDiff, ok := cached.(*FileDiff); ok {
			result := *cachedDiff
			result.OldPath = oldPath
			result.NewPath = newPath
			result.IsNew = fd.IsNew
			result.IsDelete = fd.IsDelete
			return &result
		}
	}

	// Line-level reduction avoids newline-boundary artifacts when the
	// character diff is mapped back to line operations.
	a, b, lineArray := e.dmp.DiffLinesToChars(oldContent, newContent)
	diffs := e.dmp.DiffMain(a, b, false)
	diffs = e.dmp.DiffCleanupSemantic(diffs)
	diffs = e.dmp.DiffCharsToLines(diffs, lineArray)

	fd.Hunks = groupIntoHunks(diffsToOperations(diffs), 3)

	e.cache.Store(key, fd)
	return fd
}

// ComputeDiff runs on the shared DefaultEngine.
func ComputeDiff(oldPath, newPath, oldContent, newContent string) *FileDiff {
	return DefaultEngine.ComputeDiff(oldPath, newPath, oldContent, newContent)
}

// ComputeWordLevelDiff diffs within a single line, for highlighting the
// changed span of a conflicting metadata value.
func (e *Engine) ComputeWordLevelDiff(oldLine, newLine string) []diffmatchpatch.Diff {
	diffs := e.dmp.DiffMain(oldLine, newLine, false)
	return e.dmp.DiffCleanupSemantic(diffs)
}

// ClearCache drops every cached result.
func (e *Engine) ClearCache() {
	e.cache = sync.Map{}
}

// operation is one line operation with its position in each version.
type operation struct {
	typ     LineType
	oldLine int
	newLine int
	content string
}

func diffsToOperations(diffs []diffmatchpatch.Diff) []operation {
	var ops []operation
	oldLine, newLine := 0, 0

	for _, d := range diffs {
		lines := strings.Split(d.Text, "\n")
		if len(lines) == 1 && lines[0] == "" && d.Type != diffmatchpatch.DiffEqual {
			continue
		}
		// the split leaves a trailing empty element for \n-terminated text
		if len(lines) > 0 && lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}

		for i, content := range lines {
			if i == len(lines)-1 && content == "" && len(lines) > 1 {
				continue
			}
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				ops = append(ops, operation{typ: LineContext, oldLine: oldLine, newLine: newLine, content: content})
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				ops = append(ops, operation{typ: LineRemoved, oldLine: oldLine, newLine: -1, content: content})
				oldLine++
			case diffmatchpatch.DiffInsert:
				ops = append(ops, operation{typ: LineAdded, oldLine: -1, newLine: newLine, content: content})
				newLine++
			}
		}
	}
	return ops
}

func groupIntoHunks(ops []operation, contextLines int) []Hunk {
	if len(ops) == 0 {
		return nil
	}

	var hunks []Hunk
	var current *Hunk
	lastChangeIdx := -1

	for i, op := range ops {
		if op.typ != LineContext {
			if current == nil {
				current = &Hunk{}
				start := i - contextLines
				if start < 0 {
					start = 0
				}
				for j := start; j < i; j++ {
					if ops[j].typ == LineContext {
						current.Lines = append(current.Lines, Line{
							LineNum: ops[j].oldLine + 1,
							Content: ops[j].content,
							Type:    LineContext,
						})
					}
				}
				current.OldStart = ops[start].oldLine + 1
				current.NewStart = ops[start].newLine + 1
				if ops[start].oldLine < 0 {
					current.OldStart = 0
				}
				if ops[start].newLine < 0 {
					current.NewStart = 0
				}
			}
			lastChangeIdx = i
		}

		if current == nil {
			continue
		}
		lineNum := op.oldLine + 1
		if op.typ == LineAdded {
			lineNum = op.newLine + 1
		}
		current.Lines = append(current.Lines, Line{LineNum: lineNum, Content: op.content, Type: op.typ})

		// close the hunk once the trailing context exceeds the window
		if op.typ == LineContext && i-lastChangeIdx > contextLines {
			trimTo := len(current.Lines) - (i - lastChangeIdx - contextLines)
			if trimTo > 0 && trimTo < len(current.Lines) {
				current.Lines = current.Lines[:trimTo]
			}
			computeHunkCounts(current)
			hunks = append(hunks, *current)
			current = nil
		}
	}

	if current != nil && len(current.Lines) > 0 {
		computeHunkCounts(current)
		hunks = append(hunks, *current)
	}
	return hunks
}

func computeHunkCounts(h *Hunk) {
	for _, line := range h.Lines {
		if line.Type == LineRemoved || line.Type == LineContext {
			h.OldCount++
		}
		if line.Type == LineAdded || line.Type == LineContext {
			h.NewCount++
		}
	}
}

// hash is FNV-1a, enough to key the cache on content identity.
func hash(s string) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	h := uint64(offset64)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime64
	}
	return h
}
