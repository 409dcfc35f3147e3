// Package query parses and executes thalo queries: entity selectors with
// ANDed field/tag/link conditions, combined across comma-separated
// queries with OR semantics.
package query

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rejot-dev/thalo/internal/ast"
	"github.com/rejot-dev/thalo/internal/logging"
	"github.com/rejot-dev/thalo/internal/workspace"
)

// ConditionKind tags the Condition sum type.
type ConditionKind int

const (
	ConditionField ConditionKind = iota
	ConditionTag
	ConditionLink
)

// Condition is one ANDed predicate in a query's where clause.
type Condition struct {
	Kind ConditionKind
	// Name is the field name (ConditionField), tag name (ConditionTag),
	// or link id without the leading caret (ConditionLink).
	Name string
	// RawValue is the field's expected raw textual value, quotes
	// included as written. Only set for ConditionField.
	RawValue string
}

// Query selects instance entries of one entity type, optionally narrowed
// by conditions.
type Query struct {
	Entity     string
	Conditions []Condition
}

var (
	queryRe     = regexp.MustCompile(`^([a-z][a-z0-9-]*)(?:\s+where\s+(.+))?$`)
	fieldCondRe = regexp.MustCompile(`^([a-z][a-zA-Z0-9_-]*)\s*=\s*(.+)$`)
)

// ParseQueryString parses a comma-separated list of queries, e.g.
// `lore, opinion where subject = "x"`. The comma is an OR across
// queries; `and` is an AND within one query's where clause.
func ParseQueryString(s string) ([]Query, error) {
	var queries []Query
	for _, part := range splitTopLevel(s, ',') {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		q, err := parseOne(part)
		if err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("query: empty query string")
	}
	return queries, nil
}

func parseOne(s string) (Query, error) {
	m := queryRe.FindStringSubmatch(s)
	if m == nil {
		return Query{}, fmt.Errorf("query: cannot parse %q", s)
	}
	q := Query{Entity: m[1]}
	if m[2] == "" {
		return q, nil
	}
	for _, cond := range splitOnAnd(m[2]) {
		cond = strings.TrimSpace(cond)
		switch {
		case strings.HasPrefix(cond, "#"):
			q.Conditions = append(q.Conditions, Condition{Kind: ConditionTag, Name: cond[1:]})
		case strings.HasPrefix(cond, "^"):
			q.Conditions = append(q.Conditions, Condition{Kind: ConditionLink, Name: cond[1:]})
		default:
			fm := fieldCondRe.FindStringSubmatch(cond)
			if fm == nil {
				return Query{}, fmt.Errorf("query: cannot parse condition %q", cond)
			}
			q.Conditions = append(q.Conditions, Condition{Kind: ConditionField, Name: fm[1], RawValue: strings.TrimSpace(fm[2])})
		}
	}
	return q, nil
}

// splitOnAnd splits a where clause on the keyword "and" outside quotes.
func splitOnAnd(s string) []string {
	var parts []string
	inQuote := false
	last := 0
	for i := 0; i+5 <= len(s); i++ {
		if s[i] == '"' {
			inQuote = !inQuote
			continue
		}
		if !inQuote && s[i] == ' ' && strings.HasPrefix(s[i:], " and ") {
			parts = append(parts, s[last:i])
			last = i + 5
			i += 4
		}
	}
	parts = append(parts, s[last:])
	return parts
}

// splitTopLevel splits s on sep occurrences outside double-quoted spans.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	inQuote := false
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case sep:
			if !inQuote {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	parts = append(parts, s[last:])
	return parts
}

// FormatQuery regenerates the canonical textual form of q, used in
// messages and actualize output.
func FormatQuery(q Query) string {
	var sb strings.Builder
	sb.WriteString(q.Entity)
	for i, c := range q.Conditions {
		if i == 0 {
			sb.WriteString(" where ")
		} else {
			sb.WriteString(" and ")
		}
		switch c.Kind {
		case ConditionTag:
			sb.WriteString("#" + c.Name)
		case ConditionLink:
			sb.WriteString("^" + c.Name)
		default:
			sb.WriteString(c.Name + " = " + c.RawValue)
		}
	}
	return sb.String()
}

// Match is one instance entry selected by a query run.
type Match struct {
	File     string
	Entry    *ast.Entry
	Instance *ast.InstanceEntry
}

// Timestamp returns the match's canonical formatted timestamp.
func (m Match) Timestamp() string {
	return m.Instance.Header.Timestamp.Formatted()
}

// ExecuteOptions narrows a query run.
type ExecuteOptions struct {
	// AfterTimestamp, when non-empty, keeps only entries whose formatted
	// timestamp is strictly greater.
	AfterTimestamp string
}

// ExecuteQueries runs queries over every instance entry in ws with OR
// semantics across queries, deduplicated by (file, start position) and
// sorted ascending by formatted timestamp (ties broken by file then
// start position).
func ExecuteQueries(ws *workspace.Workspace, queries []Query, opts ExecuteOptions) []Match {
	type matchKey struct {
		file  string
		start int
	}
	seen := map[matchKey]bool{}
	var matches []Match

	for _, m := range ws.AllModels() {
		for i := range m.AST.Entries {
			e := &m.AST.Entries[i]
			if e.Variant != ast.VariantInstance {
				continue
			}
			key := matchKey{m.File, e.Location.StartIndex}
			if seen[key] {
				continue
			}
			if !anyMatches(queries, e.Instance) {
				continue
			}
			if opts.AfterTimestamp != "" && e.Instance.Header.Timestamp.Formatted() <= opts.AfterTimestamp {
				continue
			}
			seen[key] = true
			matches = append(matches, Match{File: m.File, Entry: e, Instance: e.Instance})
		}
	}

	sortMatches(matches)
	logging.Query("executed %d queries, %d matches", len(queries), len(matches))
	return matches
}

func anyMatches(queries []Query, ie *ast.InstanceEntry) bool {
	for _, q := range queries {
		if Matches(q, ie) {
			return true
		}
	}
	return false
}

// Matches reports whether one instance entry satisfies every condition
// of q.
func Matches(q Query, ie *ast.InstanceEntry) bool {
	if ie.Header.Entity != q.Entity {
		return false
	}
	for _, c := range q.Conditions {
		if !conditionHolds(c, ie) {
			return false
		}
	}
	return true
}

func conditionHolds(c Condition, ie *ast.InstanceEntry) bool {
	switch c.Kind {
	case ConditionTag:
		for _, t := range ie.Header.Tags {
			if t == c.Name {
				return true
			}
		}
		return false
	case ConditionLink:
		return linkMatches(c.Name, ie)
	default:
		for _, md := range ie.Metadata {
			if md.Key == c.Name && md.Value.Raw == c.RawValue {
				return true
			}
		}
		return false
	}
}

// linkMatches inspects the header link, single-value link metadata, and
// every array-element link.
func linkMatches(id string, ie *ast.InstanceEntry) bool {
	if ie.Header.HasLink && ie.Header.Link == id {
		return true
	}
	for _, md := range ie.Metadata {
		if valueHasLink(md.Value, id) {
			return true
		}
	}
	return false
}

func valueHasLink(v ast.ValueContent, id string) bool {
	if v.Kind == ast.ValueArray {
		for _, el := range v.Elements {
			if valueHasLink(el, id) {
				return true
			}
		}
		return false
	}
	return v.Kind == ast.ValueLink && strings.TrimPrefix(v.Raw, "^") == id
}

func sortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		ta, tb := a.Timestamp(), b.Timestamp()
		if ta != tb {
			return ta < tb
		}
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Entry.Location.StartIndex < b.Entry.Location.StartIndex
	})
}

// ParseSourcesValue converts a synthesis entry's `sources` metadata value
// into queries: a single query value or an array of query values.
func ParseSourcesValue(v ast.ValueContent) ([]Query, error) {
	raws := collectQueryRaws(v)
	if len(raws) == 0 {
		return nil, fmt.Errorf("query: sources value holds no queries")
	}
	var queries []Query
	for _, raw := range raws {
		qs, err := ParseQueryString(raw)
		if err != nil {
			return nil, err
		}
		queries = append(queries, qs...)
	}
	return queries, nil
}

func collectQueryRaws(v ast.ValueContent) []string {
	if v.Kind == ast.ValueArray {
		var raws []string
		for _, el := range v.Elements {
			raws = append(raws, collectQueryRaws(el)...)
		}
		return raws
	}
	if v.Kind == ast.ValueQuery {
		return []string{v.Raw}
	}
	return nil
}
