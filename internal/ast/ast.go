package ast

// EntryVariant tags which of the four entry grammars an Entry holds.
type EntryVariant int

const (
	VariantInstance EntryVariant = iota
	VariantSchema
	VariantSynthesis
	VariantActualize
	// VariantError marks an entry whose header itself failed to parse; no
	// directive could be determined, so none of the variant-specific
	// fields below are populated.
	VariantError
)

// SourceFile is the root of a projected thalo document.
type SourceFile struct {
	Entries  []Entry
	Location Location
}

// Entry is the tagged union of the four entry grammars.
type Entry struct {
	Variant   EntryVariant
	Location  Location
	Instance  *InstanceEntry
	Schema    *SchemaEntry
	Synthesis *SynthesisEntry
	Actualize *ActualizeEntry
	Error     *SyntaxErrorNode
}

// Header is the shared shape of every entry variant's first line.
type Header struct {
	Timestamp Timestamp
	Directive string
	Entity    string // entity name for instance/synthesis, entity-name for schema
	Title     string
	HasLink   bool
	Link      string
	Tags      []string
	Location  Location
}

// Timestamp is the decoded header timestamp. Valid is false when the
// grammar matched a token in timestamp position but it failed the
// YYYY-MM-DDTHH:MM(tz)? shape; Raw always holds the original text so
// formatters can round-trip it.
type Timestamp struct {
	Year, Month, Day   int
	Hour, Minute       int
	Timezone           string
	Valid              bool
	Raw                string
}

// InstanceEntry is a `create`/`update` entry.
type InstanceEntry struct {
	Header   Header
	Metadata []Metadata
	Content  *Content
	Location Location
}

// SchemaEntry is a `define-entity`/`alter-entity` entry.
type SchemaEntry struct {
	Header         Header
	Description    string // the header's title, conventionally a description of the entity
	Fields         []FieldDefinition
	Sections       []SectionDefinition
	RemoveFields   []string
	RemoveSections []string
	Location       Location
}

// SynthesisEntry is a `define-synthesis` entry; Header.Link is mandatory.
type SynthesisEntry struct {
	Header   Header
	Metadata []Metadata
	Content  *Content
	Location Location
}

// ActualizeEntry is an `actualize-synthesis` entry; Header.Link carries
// the mandatory target link id.
type ActualizeEntry struct {
	Header   Header
	Metadata []Metadata
	Location Location
}

// Metadata is one key/value pair in an instance/synthesis/actualize
// entry's body.
type Metadata struct {
	Key      string
	Value    ValueContent
	Location Location
}

// ValueKind tags the ValueContent sum type.
type ValueKind int

const (
	ValueQuotedString ValueKind = iota
	ValueLink
	ValueDatetime
	ValueDateRange
	ValueQuery
	ValueArray
	ValueError
)

// ValueContent is a metadata value's parsed form. Raw always holds the
// original text. Elements is populated only when Kind == ValueArray.
type ValueContent struct {
	Kind     ValueKind
	Raw      string
	Elements []ValueContent
	Location Location
}

// ContentChildKind tags a line within a Content block.
type ContentChildKind int

const (
	ContentMDHeader ContentChildKind = iota
	ContentBullet
	ContentPlainText
	ContentBlank
)

// ContentChild is one classified line of a Content block.
type ContentChild struct {
	Kind Kind
	// Name is the header text with the leading "# " stripped, populated
	// only for ContentMDHeader.
	Name     string
	Text     string
	Location Location
}

// Kind is an alias so ContentChild.Kind reads naturally at call sites
// without shadowing the ContentChildKind type name.
type Kind = ContentChildKind

// Content is an entry's optional trailing markdown-like body.
type Content struct {
	Children []ContentChild
	Location Location
}

// Section returns the first markdown-header child named name, or nil.
func (c *Content) Section(name string) *ContentChild {
	if c == nil {
		return nil
	}
	for i := range c.Children {
		if c.Children[i].Kind == ContentMDHeader && c.Children[i].Name == name {
			return &c.Children[i]
		}
	}
	return nil
}

// FieldDefinition is one entry of a schema's Metadata block.
type FieldDefinition struct {
	Name        string
	Optional    bool
	Type        TypeExpression
	Default     string
	HasDefault  bool
	Description string
	Location    Location
}

// SectionDefinition is one entry of a schema's Sections block.
type SectionDefinition struct {
	Name        string
	Optional    bool
	Description string
	Location    Location
}

// TypeKind tags the TypeExpression sum type.
type TypeKind int

const (
	TypePrimitive TypeKind = iota
	TypeLiteral
	TypeUnion
	TypeArray
	TypeError
)

// Primitive type names.
const (
	PrimitiveString    = "string"
	PrimitiveDatetime  = "datetime"
	PrimitiveDateRange = "date-range"
	PrimitiveLink      = "link"
)

// TypeExpression is a field's declared type.
type TypeExpression struct {
	Kind      TypeKind
	Primitive string           // valid when Kind == TypePrimitive
	Literal   string           // valid when Kind == TypeLiteral (unquoted)
	Members   []TypeExpression // valid when Kind == TypeUnion
	Element   *TypeExpression  // valid when Kind == TypeArray
	Raw       string
}
