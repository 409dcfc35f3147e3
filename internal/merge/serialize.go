package merge

import (
	"strings"

	"github.com/rejot-dev/thalo/internal/ast"
	"github.com/rejot-dev/thalo/internal/format"
)

const (
	markerOurs   = "<<<<<<< ours"
	markerBase   = "||||||| base"
	markerSplit  = "======="
	markerTheirs = ">>>>>>> theirs"
)

// serialize prints the merged slots in order, separated by blank lines,
// interleaving conflict markers around the rival representations of
// conflicted entries.
func serialize(slots []merged, opts Options) []byte {
	diff3 := opts.MarkerStyle == "diff3"
	parts := make([]string, 0, len(slots))
	for _, s := range slots {
		if s.conflict != nil {
			parts = append(parts, serializeConflict(s.conflict, diff3))
			continue
		}
		parts = append(parts, format.FormatEntry(s.entry))
	}
	out := strings.Join(parts, "\n")
	if out != "" && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return []byte(out)
}

func serializeConflict(c *Conflict, diff3 bool) string {
	entryText := func(e *ast.Entry) string {
		if e == nil {
			return ""
		}
		return format.FormatEntry(e)
	}
	var sb strings.Builder
	sb.WriteString(markerOurs)
	sb.WriteString("\n")
	sb.WriteString(entryText(c.Ours))
	if diff3 {
		sb.WriteString(markerBase)
		sb.WriteString("\n")
		sb.WriteString(entryText(c.Base))
	}
	sb.WriteString(markerSplit)
	sb.WriteString("\n")
	sb.WriteString(entryText(c.Theirs))
	sb.WriteString(markerTheirs)
	sb.WriteString("\n")
	return sb.String()
}
