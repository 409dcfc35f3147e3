// Package rules implements the concrete checks the checker driver runs
// over a workspace: instance, metadata, content, link, schema, and
// synthesis category rules, each reporting typed diagnostics and never
// failing the run.
package rules

import (
	"github.com/rejot-dev/thalo/internal/ast"
	"github.com/rejot-dev/thalo/internal/diagnostic"
	"github.com/rejot-dev/thalo/internal/visitor"
)

// ruleInfo carries the static metadata every rule declares; concrete
// rules embed it together with the no-op visitor defaults.
type ruleInfo struct {
	visitor.NoopEntryVisitor
	code        string
	name        string
	description string
	category    visitor.Category
	severity    diagnostic.Severity
}

func (r ruleInfo) Code() string                         { return r.code }
func (r ruleInfo) Name() string                         { return r.name }
func (r ruleInfo) Description() string                  { return r.description }
func (r ruleInfo) Category() visitor.Category           { return r.category }
func (r ruleInfo) DefaultSeverity() diagnostic.Severity { return r.severity }

// All returns one instance of every rule, sorted by code.
func All() []visitor.Rule {
	return visitor.SortRules([]visitor.Rule{
		// instance
		&unknownEntityRule{ruleInfo{
			code: "unknown-entity", name: "Unknown entity",
			description: "An instance entry's entity name has no schema.",
			category:    visitor.CategoryInstance, severity: diagnostic.SeverityError,
		}},
		&missingTitleRule{ruleInfo{
			code: "missing-title", name: "Missing title",
			description: "A header's title is empty or absent.",
			category:    visitor.CategoryInstance, severity: diagnostic.SeverityError,
		}},
		&parseErrorRule{ruleInfo{
			code: "parse-error", name: "Parse error",
			description: "A region of the document could not be parsed.",
			category:    visitor.CategoryInstance, severity: diagnostic.SeverityError,
		}},
		// metadata
		&missingRequiredFieldRule{ruleInfo{
			code: "missing-required-field", name: "Missing required field",
			description: "The schema declares a non-optional field without a default that is not present on an instance.",
			category:    visitor.CategoryMetadata, severity: diagnostic.SeverityError,
		}},
		&unknownFieldRule{ruleInfo{
			code: "unknown-field", name: "Unknown field",
			description: "An instance supplies a field absent from the schema.",
			category:    visitor.CategoryMetadata, severity: diagnostic.SeverityWarning,
		}},
		&invalidFieldTypeRule{ruleInfo{
			code: "invalid-field-type", name: "Invalid field type",
			description: "A metadata value does not satisfy the field's declared type.",
			category:    visitor.CategoryMetadata, severity: diagnostic.SeverityError,
		}},
		// content
		&missingRequiredSectionRule{ruleInfo{
			code: "missing-required-section", name: "Missing required section",
			description: "The schema declares a non-optional section not present in the entry's content.",
			category:    visitor.CategoryContent, severity: diagnostic.SeverityError,
		}},
		&unknownSectionRule{ruleInfo{
			code: "unknown-section", name: "Unknown section",
			description: "The content contains a markdown header whose name is not in the schema.",
			category:    visitor.CategoryContent, severity: diagnostic.SeverityWarning,
		}},
		&emptyContentSectionRule{ruleInfo{
			code: "empty-content-section", name: "Empty content section",
			description: "A markdown header has no body before the next header or the end of the entry.",
			category:    visitor.CategoryContent, severity: diagnostic.SeverityWarning,
		}},
		// link
		&unresolvedLinkRule{ruleInfo{
			code: "unresolved-link", name: "Unresolved link",
			description: "A reference ^id has no link definition anywhere in the workspace.",
			category:    visitor.CategoryLink, severity: diagnostic.SeverityWarning,
		}},
		&duplicateLinkIDRule{ruleInfo{
			code: "duplicate-link-id", name: "Duplicate link id",
			description: "Two entries in the workspace define the same ^id.",
			category:    visitor.CategoryLink, severity: diagnostic.SeverityError,
		}},
		// schema
		&defineEntityRequiresSectionRule{ruleInfo{
			code: "define-entity-requires-section", name: "Define-entity requires a section",
			description: "A define-entity declares zero sections.",
			category:    visitor.CategorySchema, severity: diagnostic.SeverityError,
		}},
		&duplicateEntityRule{ruleInfo{
			code: "duplicate-entity", name: "Duplicate entity definition",
			description: "A later define-entity redefines an already-defined entity.",
			category:    visitor.CategorySchema, severity: diagnostic.SeverityError,
		}},
		&invalidTypeExpressionRule{ruleInfo{
			code: "invalid-type-expression", name: "Invalid type expression",
			description: "A field definition's type does not parse.",
			category:    visitor.CategorySchema, severity: diagnostic.SeverityError,
		}},
		&invalidDefaultValueRule{ruleInfo{
			code: "invalid-default-value", name: "Invalid default value",
			description: "A field definition's default value does not satisfy the field type.",
			category:    visitor.CategorySchema, severity: diagnostic.SeverityError,
		}},
		// synthesis
		&synthesisRequiresLinkRule{ruleInfo{
			code: "synthesis-requires-link", name: "Synthesis requires a link",
			description: "A define-synthesis header declares no ^id.",
			category:    visitor.CategoryInstance, severity: diagnostic.SeverityError,
		}},
		&synthesisRequiresSourcesRule{ruleInfo{
			code: "synthesis-requires-sources", name: "Synthesis requires sources",
			description: "A define-synthesis has no parseable sources metadata.",
			category:    visitor.CategoryMetadata, severity: diagnostic.SeverityError,
		}},
		&synthesisUnknownEntityRule{ruleInfo{
			code: "synthesis-unknown-entity", name: "Synthesis source names unknown entity",
			description: "A synthesis source query selects an entity type that has no schema.",
			category:    visitor.CategoryInstance, severity: diagnostic.SeverityError,
		}},
		&actualizeUnknownTargetRule{ruleInfo{
			code: "actualize-unknown-target", name: "Actualize target unknown",
			description: "An actualize-synthesis targets a link id no synthesis defines.",
			category:    visitor.CategoryLink, severity: diagnostic.SeverityWarning,
		}},
		&invalidCheckpointRule{ruleInfo{
			code: "invalid-checkpoint", name: "Invalid checkpoint",
			description: "An actualize-synthesis checkpoint value does not parse as ts:... or git:...",
			category:    visitor.CategoryMetadata, severity: diagnostic.SeverityWarning,
		}},
	})
}

// findMetadata returns the metadata entry named key, or nil.
func findMetadata(meta []ast.Metadata, key string) *ast.Metadata {
	for i := range meta {
		if meta[i].Key == key {
			return &meta[i]
		}
	}
	return nil
}
