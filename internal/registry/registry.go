// Package registry holds the static, data-only table of supported language
// servers: how to find and spawn each one, which files belong to it, and
// where its project root lives.
package registry

import (
	"os/exec"
)

// ReadyKind names the signal a descriptor uses to decide that diagnostics
// for a document have finished arriving.
type ReadyKind int

const (
	// ReadyOnQuiescence treats the document ready once no new
	// publishDiagnostics batch has arrived for the descriptor's quiescence
	// window (C5 step 3's "quiescence window" fallback).
	ReadyOnQuiescence ReadyKind = iota
	// ReadyOnFirstBatch treats the first publishDiagnostics batch for the
	// opened version as final — correct for servers that only ever emit one
	// batch per didOpen.
	ReadyOnFirstBatch
)

// Descriptor is a static ServerDescriptor (§3): everything needed to find,
// spawn, and talk to one kind of language server.
type Descriptor struct {
	ID                    string
	LanguageID            string
	FileExtensions        []string
	RootMarkers           []string
	Command               string
	Args                  []string
	InitializationOptions any
	ReadyKind             ReadyKind
}

// resolveCommand reports whether a descriptor's spawn command can actually
// be found on PATH. byExtension/byLanguageId still return descriptors whose
// command is missing — ensureServer is the place that turns "not found"
// into ServerSpawnFailed, not the registry.
func resolveCommand(name string) (string, bool) {
	path, err := exec.LookPath(name)
	if err != nil {
		return name, false
	}
	return path, true
}

// Available reports whether d's spawn command resolves on PATH.
func (d Descriptor) Available() (string, bool) {
	return resolveCommand(d.Command)
}

// builtins is the table shipped with the binary, covering go, typescript,
// python and json. Commands follow each server's own documented invocation.
var builtins = []Descriptor{
	{
		ID:             "gopls",
		LanguageID:     "go",
		FileExtensions: []string{".go"},
		RootMarkers:    []string{"go.mod", "go.work"},
		Command:        "gopls",
		Args:           []string{"serve"},
		ReadyKind:      ReadyOnQuiescence,
	},
	{
		ID:             "typescript-language-server",
		LanguageID:     "typescript",
		FileExtensions: []string{".ts", ".tsx", ".js", ".jsx"},
		RootMarkers:    []string{"package.json", "tsconfig.json"},
		Command:        "typescript-language-server",
		Args:           []string{"--stdio"},
		ReadyKind:      ReadyOnQuiescence,
	},
	{
		ID:             "pyright",
		LanguageID:     "python",
		FileExtensions: []string{".py"},
		RootMarkers:    []string{"pyproject.toml", "setup.py", "requirements.txt"},
		Command:        "pyright-langserver",
		Args:           []string{"--stdio"},
		ReadyKind:      ReadyOnQuiescence,
	},
	{
		ID:             "vscode-json-language-server",
		LanguageID:     "json",
		FileExtensions: []string{".json"},
		RootMarkers:    []string{"package.json"},
		Command:        "vscode-json-language-server",
		Args:           []string{"--stdio"},
		ReadyKind:      ReadyOnFirstBatch,
	},
}

// Registry looks up descriptors by file extension or LSP languageId.
// Ambiguous extensions resolve to the first match; there is no fall-through
// (§4.3).
type Registry struct {
	descriptors []Descriptor
	byExt       map[string]Descriptor
	byLang      map[string]Descriptor
}

// New builds a Registry from the built-in table, with any overrides applied
// on top (overrides replace a built-in descriptor of the same ID, or add a
// new one).
func New(overrides []Descriptor) *Registry {
	merged := make([]Descriptor, 0, len(builtins)+len(overrides))
	merged = append(merged, builtins...)
	for _, o := range overrides {
		replaced := false
		for i, d := range merged {
			if d.ID == o.ID {
				merged[i] = o
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, o)
		}
	}

	r := &Registry{
		descriptors: merged,
		byExt:       make(map[string]Descriptor),
		byLang:      make(map[string]Descriptor),
	}
	for _, d := range merged {
		if _, ok := r.byLang[d.LanguageID]; !ok {
			r.byLang[d.LanguageID] = d
		}
		for _, ext := range d.FileExtensions {
			if _, ok := r.byExt[ext]; !ok {
				r.byExt[ext] = d
			}
		}
	}
	return r
}

// ByExtension returns the descriptor registered for a file extension
// (including the leading dot), or false if none matches.
func (r *Registry) ByExtension(ext string) (Descriptor, bool) {
	d, ok := r.byExt[ext]
	return d, ok
}

// ByLanguageID returns the descriptor for an LSP languageId, or false.
func (r *Registry) ByLanguageID(id string) (Descriptor, bool) {
	d, ok := r.byLang[id]
	return d, ok
}

// All returns every descriptor in the registry, built-ins first.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}
