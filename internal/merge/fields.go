package merge

import (
	"strings"

	"github.com/rejot-dev/thalo/internal/ast"
	"github.com/rejot-dev/thalo/internal/format"
)

// fieldMerge attempts a field-wise merge of a triple where both sides
// changed (or both added differently). The conflict rules apply in
// priority order and short-circuit on the first match.
func fieldMerge(t triple) (*ast.Entry, *Conflict, tripleStats) {
	o, th := t.ours, t.theirs
	if o.Variant != th.Variant {
		return nil, &Conflict{Kind: ConflictSchemaChange, Identity: t.identity, Base: t.base, Ours: o, Theirs: th}, tripleStats{}
	}
	switch o.Variant {
	case ast.VariantSchema:
		return schemaMerge(t)
	case ast.VariantInstance, ast.VariantSynthesis, ast.VariantActualize:
		return bodyMerge(t)
	default:
		return nil, &Conflict{Kind: ConflictContentEdit, Identity: t.identity, Base: t.base, Ours: o, Theirs: th}, tripleStats{}
	}
}

func metadataOf(e *ast.Entry) []ast.Metadata {
	if e == nil {
		return nil
	}
	switch e.Variant {
	case ast.VariantInstance:
		return e.Instance.Metadata
	case ast.VariantSynthesis:
		return e.Synthesis.Metadata
	case ast.VariantActualize:
		return e.Actualize.Metadata
	default:
		return nil
	}
}

func contentOf(e *ast.Entry) *ast.Content {
	if e == nil {
		return nil
	}
	switch e.Variant {
	case ast.VariantInstance:
		return e.Instance.Content
	case ast.VariantSynthesis:
		return e.Synthesis.Content
	default:
		return nil
	}
}

// bodyMerge merges an instance/synthesis/actualize triple: title,
// metadata (key-level three-way), and content.
func bodyMerge(t triple) (*ast.Entry, *Conflict, tripleStats) {
	b, o, th := t.base, t.ours, t.theirs

	conflictOf := func(kind ConflictKind) (*ast.Entry, *Conflict, tripleStats) {
		return nil, &Conflict{Kind: kind, Identity: t.identity, Base: b, Ours: o, Theirs: th}, tripleStats{}
	}

	meta, ok := mergeMetadataMaps(metadataOf(b), metadataOf(o), metadataOf(th))
	if !ok {
		return conflictOf(ConflictMetadataUpdate)
	}

	content, ok := mergeContent(contentOf(b), contentOf(o), contentOf(th))
	if !ok {
		return conflictOf(ConflictContentEdit)
	}

	title, ok := mergeScalar(titleOf(b), titleOf(o), titleOf(th))
	if !ok {
		return conflictOf(ConflictTitleChange)
	}

	out := cloneEntry(o)
	h := headerOf(out)
	h.Title = title
	switch out.Variant {
	case ast.VariantInstance:
		out.Instance.Metadata = meta
		out.Instance.Content = content
	case ast.VariantSynthesis:
		out.Synthesis.Metadata = meta
		out.Synthesis.Content = content
	case ast.VariantActualize:
		out.Actualize.Metadata = meta
	}
	return out, nil, tripleStats{autoMerged: true}
}

func titleOf(e *ast.Entry) string {
	if h := headerOf(e); h != nil {
		return h.Title
	}
	return ""
}

// mergeScalar is the three-way rule for a single string: unchanged sides
// yield, identical changes agree, divergent changes conflict.
func mergeScalar(base, ours, theirs string) (string, bool) {
	if ours == theirs {
		return ours, true
	}
	if ours == base {
		return theirs, true
	}
	if theirs == base {
		return ours, true
	}
	return "", false
}

// mergeMetadataMaps performs a key-level three-way merge: per-key
// add/delete/edit, conflicting on concurrent divergent edits. Key order
// is ours' order, then theirs-only keys in theirs' order.
func mergeMetadataMaps(base, ours, theirs []ast.Metadata) ([]ast.Metadata, bool) {
	baseByKey := metadataByKey(base)
	oursByKey := metadataByKey(ours)
	theirsByKey := metadataByKey(theirs)

	present := func(m map[string]*ast.Metadata, key string) (string, bool) {
		md, ok := m[key]
		if !ok {
			return "", false
		}
		return md.Value.Raw, true
	}

	var out []ast.Metadata
	emit := func(md *ast.Metadata) { out = append(out, *md) }

	resolve := func(key string) bool {
		bv, bok := present(baseByKey, key)
		ov, ook := present(oursByKey, key)
		tv, tok := present(theirsByKey, key)

		switch {
		case ook && tok:
			if ov == tv {
				emit(oursByKey[key])
				return true
			}
			if bok && ov == bv {
				emit(theirsByKey[key])
				return true
			}
			if bok && tv == bv {
				emit(oursByKey[key])
				return true
			}
			return false // divergent edits (or both added differently)
		case ook: // deleted in theirs (or added in ours)
			if !bok || ov != bv {
				if bok && ov != bv {
					return false // edit in ours vs delete in theirs
				}
				emit(oursByKey[key])
				return true
			}
			return true // unchanged in ours, deleted in theirs: delete
		case tok: // deleted in ours (or added in theirs)
			if !bok || tv != bv {
				if bok && tv != bv {
					return false
				}
				emit(theirsByKey[key])
				return true
			}
			return true
		default:
			return true // deleted on both sides
		}
	}

	seen := map[string]bool{}
	for i := range ours {
		key := ours[i].Key
		if seen[key] {
			continue
		}
		seen[key] = true
		if !resolve(key) {
			return nil, false
		}
	}
	for i := range theirs {
		key := theirs[i].Key
		if seen[key] {
			continue
		}
		seen[key] = true
		if !resolve(key) {
			return nil, false
		}
	}
	return out, true
}

func metadataByKey(meta []ast.Metadata) map[string]*ast.Metadata {
	m := make(map[string]*ast.Metadata, len(meta))
	for i := range meta {
		if _, ok := m[meta[i].Key]; !ok {
			m[meta[i].Key] = &meta[i]
		}
	}
	return m
}

// mergeContent applies the three-way rule to whole content blocks: both
// deleted yields none, one-sided edits win, divergent kept-but-different
// edits conflict.
func mergeContent(base, ours, theirs *ast.Content) (*ast.Content, bool) {
	ctext := func(c *ast.Content) string {
		if c == nil {
			return ""
		}
		var sb strings.Builder
		for _, child := range c.Children {
			sb.WriteString(child.Text)
			sb.WriteString("\n")
		}
		return sb.String()
	}
	bt, ot, tt := ctext(base), ctext(ours), ctext(theirs)
	if ot == tt {
		return ours, true
	}
	if ot == bt {
		return theirs, true
	}
	if tt == bt {
		return ours, true
	}
	if ours == nil || theirs == nil {
		// one side deleted, the other edited: the edit wins
		if ours != nil {
			return ours, true
		}
		return theirs, true
	}
	return nil, false
}

func cloneEntry(e *ast.Entry) *ast.Entry {
	out := *e
	switch e.Variant {
	case ast.VariantInstance:
		i := *e.Instance
		out.Instance = &i
	case ast.VariantSchema:
		s := *e.Schema
		out.Schema = &s
	case ast.VariantSynthesis:
		s := *e.Synthesis
		out.Synthesis = &s
	case ast.VariantActualize:
		a := *e.Actualize
		out.Actualize = &a
	}
	return &out
}

// schemaMerge merges a schema triple with field/section/remove maps
// under the same three-way logic; any divergence conflicts as an
// incompatible schema change.
func schemaMerge(t triple) (*ast.Entry, *Conflict, tripleStats) {
	b, o, th := t.base, t.ours, t.theirs
	var bs *ast.SchemaEntry
	if b != nil {
		bs = b.Schema
	}
	ourSchema, theirSchema := o.Schema, th.Schema

	conflict := func() (*ast.Entry, *Conflict, tripleStats) {
		return nil, &Conflict{Kind: ConflictSchemaChange, Identity: t.identity, Base: b, Ours: o, Theirs: th}, tripleStats{}
	}

	fields, ok := mergeFieldDefs(fieldsOf(bs), ourSchema.Fields, theirSchema.Fields)
	if !ok {
		return conflict()
	}
	sections, ok := mergeSectionDefs(sectionsOf(bs), ourSchema.Sections, theirSchema.Sections)
	if !ok {
		return conflict()
	}
	removeFields, ok := mergeNameSets(removeFieldsOf(bs), ourSchema.RemoveFields, theirSchema.RemoveFields)
	if !ok {
		return conflict()
	}
	removeSections, ok := mergeNameSets(removeSectionsOf(bs), ourSchema.RemoveSections, theirSchema.RemoveSections)
	if !ok {
		return conflict()
	}
	title, ok := mergeScalar(titleOf(b), titleOf(o), titleOf(th))
	if !ok {
		return nil, &Conflict{Kind: ConflictTitleChange, Identity: t.identity, Base: b, Ours: o, Theirs: th}, tripleStats{}
	}

	out := cloneEntry(o)
	out.Schema.Header.Title = title
	out.Schema.Description = title
	out.Schema.Fields = fields
	out.Schema.Sections = sections
	out.Schema.RemoveFields = removeFields
	out.Schema.RemoveSections = removeSections
	return out, nil, tripleStats{autoMerged: true}
}

func fieldsOf(s *ast.SchemaEntry) []ast.FieldDefinition {
	if s == nil {
		return nil
	}
	return s.Fields
}
func sectionsOf(s *ast.SchemaEntry) []ast.SectionDefinition {
	if s == nil {
		return nil
	}
	return s.Sections
}
func removeFieldsOf(s *ast.SchemaEntry) []string {
	if s == nil {
		return nil
	}
	return s.RemoveFields
}
func removeSectionsOf(s *ast.SchemaEntry) []string {
	if s == nil {
		return nil
	}
	return s.RemoveSections
}

// mergeFieldDefs is the key-level three-way merge over field
// definitions, compared by their canonical printed form.
func mergeFieldDefs(base, ours, theirs []ast.FieldDefinition) ([]ast.FieldDefinition, bool) {
	repr := func(f *ast.FieldDefinition) string { return format.FormatFieldDefinition(f) }
	bm := map[string]string{}
	for i := range base {
		bm[base[i].Name] = repr(&base[i])
	}
	om := map[string]*ast.FieldDefinition{}
	for i := range ours {
		om[ours[i].Name] = &ours[i]
	}
	tm := map[string]*ast.FieldDefinition{}
	for i := range theirs {
		tm[theirs[i].Name] = &theirs[i]
	}

	var out []ast.FieldDefinition
	seen := map[string]bool{}
	resolve := func(name string) bool {
		bv, bok := bm[name]
		of, ook := om[name]
		tf, took := tm[name]
		switch {
		case ook && took:
			ov, tv := repr(of), repr(tf)
			if ov == tv {
				out = append(out, *of)
				return true
			}
			if bok && ov == bv {
				out = append(out, *tf)
				return true
			}
			if bok && tv == bv {
				out = append(out, *of)
				return true
			}
			return false
		case ook:
			if bok && repr(of) != bv {
				return false
			}
			if !bok {
				out = append(out, *of)
			}
			return true
		case took:
			if bok && repr(tf) != bv {
				return false
			}
			if !bok {
				out = append(out, *tf)
			}
			return true
		default:
			return true
		}
	}
	for i := range ours {
		if !seen[ours[i].Name] {
			seen[ours[i].Name] = true
			if !resolve(ours[i].Name) {
				return nil, false
			}
		}
	}
	for i := range theirs {
		if !seen[theirs[i].Name] {
			seen[theirs[i].Name] = true
			if !resolve(theirs[i].Name) {
				return nil, false
			}
		}
	}
	return out, true
}

// mergeSectionDefs mirrors mergeFieldDefs for section definitions.
func mergeSectionDefs(base, ours, theirs []ast.SectionDefinition) ([]ast.SectionDefinition, bool) {
	repr := func(s *ast.SectionDefinition) string { return format.FormatSectionDefinition(s) }
	bm := map[string]string{}
	for i := range base {
		bm[base[i].Name] = repr(&base[i])
	}
	om := map[string]*ast.SectionDefinition{}
	for i := range ours {
		om[ours[i].Name] = &ours[i]
	}
	tm := map[string]*ast.SectionDefinition{}
	for i := range theirs {
		tm[theirs[i].Name] = &theirs[i]
	}

	var out []ast.SectionDefinition
	seen := map[string]bool{}
	resolve := func(name string) bool {
		bv, bok := bm[name]
		of, ook := om[name]
		tf, took := tm[name]
		switch {
		case ook && took:
			ov, tv := repr(of), repr(tf)
			if ov == tv {
				out = append(out, *of)
				return true
			}
			if bok && ov == bv {
				out = append(out, *tf)
				return true
			}
			if bok && tv == bv {
				out = append(out, *of)
				return true
			}
			return false
		case ook:
			if bok && repr(of) != bv {
				return false
			}
			if !bok {
				out = append(out, *of)
			}
			return true
		case took:
			if bok && repr(tf) != bv {
				return false
			}
			if !bok {
				out = append(out, *tf)
			}
			return true
		default:
			return true
		}
	}
	for i := range ours {
		if !seen[ours[i].Name] {
			seen[ours[i].Name] = true
			if !resolve(ours[i].Name) {
				return nil, false
			}
		}
	}
	for i := range theirs {
		if !seen[theirs[i].Name] {
			seen[theirs[i].Name] = true
			if !resolve(theirs[i].Name) {
				return nil, false
			}
		}
	}
	return out, true
}

// mergeNameSets merges remove-metadata/remove-sections name lists: the
// union of additions, minus names removed on a side that base carried.
func mergeNameSets(base, ours, theirs []string) ([]string, bool) {
	inBase := toSet(base)
	inOurs := toSet(ours)
	inTheirs := toSet(theirs)

	var out []string
	seen := map[string]bool{}
	keep := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, name := range ours {
		if inBase[name] && !inTheirs[name] {
			continue // theirs removed it
		}
		keep(name)
	}
	for _, name := range theirs {
		if inBase[name] && !inOurs[name] {
			continue // ours removed it
		}
		keep(name)
	}
	return out, true
}

func toSet(names []string) map[string]bool {
	s := make(map[string]bool, len(names))
	for _, n := range names {
		s[n] = true
	}
	return s
}
