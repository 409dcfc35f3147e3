// Package workspace owns every loaded document's semantic model plus the
// cross-document caches (global link index, schema registry) derived from
// them, modeled on a mutex-guarded map of owned state with lazily rebuilt
// derived data.
package workspace

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rejot-dev/thalo/internal/ast"
	"github.com/rejot-dev/thalo/internal/fence"
	"github.com/rejot-dev/thalo/internal/logging"
	"github.com/rejot-dev/thalo/internal/schema"
	"github.com/rejot-dev/thalo/internal/semantic"
)

// AddOptions configures AddDocument/UpdateDocument.
type AddOptions struct {
	FileType *fence.FileType // nil selects the extension/content fallback
}

// Workspace is the single mutable hub: documents, schema registry, and
// the global link index. It is not safe for concurrent mutation from
// multiple goroutines; read-only consumers should snapshot via AllModels.
type Workspace struct {
	mu sync.RWMutex

	models map[string]*semantic.Model

	registryDirty bool
	registry      *schema.Registry

	linkIndexDirty bool
	globalLinkDefs map[string]semantic.LinkDefinition
	globalLinkRefs map[string][]semantic.LinkReference
}

// New creates an empty Workspace.
func New() *Workspace {
	return &Workspace{
		models:         map[string]*semantic.Model{},
		registryDirty:  true,
		linkIndexDirty: true,
	}
}

func resolveFileType(filename string, source []byte, opts AddOptions) fence.FileType {
	if opts.FileType != nil {
		return *opts.FileType
	}
	return fence.DetectFileType(filename, source)
}

// AddDocument parses source and stores it under filename, replacing any
// existing document with the same name.
func (w *Workspace) AddDocument(filename string, source []byte, opts AddOptions) error {
	if filename == "" {
		return fmt.Errorf("workspace: filename must not be empty")
	}
	ft := resolveFileType(filename, source, opts)
	model := semantic.Build(filename, source, ft)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.models[filename] = model
	w.invalidateLocked()
	logging.Workspace("added document %s (%d bytes)", filename, len(source))
	return nil
}

// UpdateDocument replaces filename's document, even if unchanged.
func (w *Workspace) UpdateDocument(filename string, source []byte, opts AddOptions) (*semantic.UpdateResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	existing, ok := w.models[filename]
	ft := resolveFileType(filename, source, opts)
	if !ok {
		model := semantic.Build(filename, source, ft)
		w.models[filename] = model
		w.invalidateLocked()
		return nil, nil
	}
	result := existing.Update(source, ft)
	w.invalidateLocked()
	logging.Workspace("updated document %s", filename)
	return &result, nil
}

// RemoveDocument removes filename and invalidates derived caches.
func (w *Workspace) RemoveDocument(filename string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.models, filename)
	w.invalidateLocked()
	logging.Workspace("removed document %s", filename)
}

func (w *Workspace) invalidateLocked() {
	w.registryDirty = true
	w.linkIndexDirty = true
}

// GetModel returns filename's semantic model, or nil if not loaded.
func (w *Workspace) GetModel(filename string) *semantic.Model {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.models[filename]
}

// Files returns every loaded filename, sorted.
func (w *Workspace) Files() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	files := make([]string, 0, len(w.models))
	for f := range w.models {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// AllModels returns every loaded model, sorted by filename.
func (w *Workspace) AllModels() []*semantic.Model {
	w.mu.RLock()
	defer w.mu.RUnlock()
	files := make([]string, 0, len(w.models))
	for f := range w.models {
		files = append(files, f)
	}
	sort.Strings(files)
	models := make([]*semantic.Model, len(files))
	for i, f := range files {
		models[i] = w.models[f]
	}
	return models
}

// SchemaRegistry returns the (lazily rebuilt) schema registry reflecting
// every schema entry currently loaded across the workspace.
func (w *Workspace) SchemaRegistry() *schema.Registry {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rebuildRegistryLocked()
	return w.registry
}

func (w *Workspace) rebuildRegistryLocked() {
	if !w.registryDirty {
		return
	}
	bySource := make(map[string][]*ast.Entry, len(w.models))
	for file, m := range w.models {
		bySource[file] = m.SchemaEntries
	}
	w.registry = schema.Build(bySource)
	w.registryDirty = false
}

func (w *Workspace) rebuildLinkIndexLocked() {
	if !w.linkIndexDirty {
		return
	}
	defs := map[string]semantic.LinkDefinition{}
	refs := map[string][]semantic.LinkReference{}

	files := make([]string, 0, len(w.models))
	for f := range w.models {
		files = append(files, f)
	}
	sort.Strings(files)

	for _, f := range files {
		m := w.models[f]
		for id, def := range m.LinkIndex.Definitions {
			if existing, ok := defs[id]; ok && firstWins(existing, def) {
				continue
			}
			defs[id] = def
		}
	}
	for _, f := range files {
		m := w.models[f]
		for id, rs := range m.LinkIndex.References {
			refs[id] = append(refs[id], rs...)
		}
	}
	w.globalLinkDefs = defs
	w.globalLinkRefs = refs
	w.linkIndexDirty = false
}

// firstWins reports whether existing should be kept over candidate under
// the deterministic first-by-(filename, startIndex) rule.
func firstWins(existing, candidate semantic.LinkDefinition) bool {
	if existing.File != candidate.File {
		return existing.File < candidate.File
	}
	return existing.Location.StartIndex < candidate.Location.StartIndex
}

// GetLinkDefinition returns the deterministic first-by-(filename,
// startIndex) definition of id across the whole workspace, if any.
func (w *Workspace) GetLinkDefinition(id string) (semantic.LinkDefinition, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rebuildLinkIndexLocked()
	def, ok := w.globalLinkDefs[id]
	return def, ok
}

// GetLinkReferences returns every reference to id across the workspace.
func (w *Workspace) GetLinkReferences(id string) []semantic.LinkReference {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rebuildLinkIndexLocked()
	return w.globalLinkRefs[id]
}

// AllLinkDefinitions returns the deduplicated global link definition map.
func (w *Workspace) AllLinkDefinitions() map[string]semantic.LinkDefinition {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rebuildLinkIndexLocked()
	out := make(map[string]semantic.LinkDefinition, len(w.globalLinkDefs))
	for k, v := range w.globalLinkDefs {
		out[k] = v
	}
	return out
}

// DuplicateLinkDefinitions returns, for every link id defined more than
// once across the workspace, every definition (including the one the
// global index keeps), sorted by (file, startIndex) — used by the
// duplicate-link-id rule.
func (w *Workspace) DuplicateLinkDefinitions() map[string][]semantic.LinkDefinition {
	w.mu.RLock()
	defer w.mu.RUnlock()
	all := map[string][]semantic.LinkDefinition{}
	files := make([]string, 0, len(w.models))
	for f := range w.models {
		files = append(files, f)
	}
	sort.Strings(files)
	for _, f := range files {
		m := w.models[f]
		for id, def := range m.LinkIndex.Definitions {
			all[id] = append(all[id], def)
		}
	}
	dupes := map[string][]semantic.LinkDefinition{}
	for id, defs := range all {
		if len(defs) > 1 {
			sort.Slice(defs, func(i, j int) bool { return firstWins(defs[i], defs[j]) })
			dupes[id] = defs
		}
	}
	return dupes
}
