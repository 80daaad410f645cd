package extract

import (
	"path/filepath"
	"strings"
)

// Registry dispatches a file to the Extractor registered for its extension,
// generalizing the teacher's isSource/ext switch in internal/scan/scan.go
// from "is this a TS/TSX file" to the full spec §6 watched-extension set.
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry builds the default registry covering every language of
// spec §4.1.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]Extractor)}
	py := PythonExtractor{}
	js := JSTSExtractor{}
	c := CFamilyExtractor{}

	for _, ext := range []string{".py"} {
		r.byExt[ext] = py
	}
	for _, ext := range []string{".js", ".ts", ".tsx", ".jsx"} {
		r.byExt[ext] = js
	}
	for _, ext := range []string{".c", ".cpp", ".cc", ".cxx", ".h", ".hpp"} {
		r.byExt[ext] = c
	}
	return r
}

// For returns the Extractor registered for path's extension, if any.
func (r *Registry) For(path string) (Extractor, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	e, ok := r.byExt[ext]
	return e, ok
}

// Extract dispatches to the right Extractor, or returns an empty Record for
// an unsupported extension (not a Warning — an unwatched file isn't a
// failure, it's simply out of scope).
func (r *Registry) Extract(path string, content []byte) Record {
	e, ok := r.For(path)
	if !ok {
		return Record{File: path}
	}
	return e.Extract(path, content)
}

// Watched reports whether path's extension is one of spec §6's default
// watched source extensions.
func (r *Registry) Watched(path string) bool {
	_, ok := r.For(path)
	return ok
}
