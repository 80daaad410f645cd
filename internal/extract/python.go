package extract

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"

	"github.com/codegraphd/codegraphd/internal/graphcore"
)

// Regex family mirrors the construction style of philtographer's
// internal/scan/scan.go (package-level regexp.MustCompile vars, one per
// statement shape) applied to Python's import grammar instead of JS's.
var (
	reImport     = regexp.MustCompile(`^\s*import\s+([A-Za-z0-9_.]+(?:\s*,\s*[A-Za-z0-9_.]+)*)`)
	reImportAs   = regexp.MustCompile(`^\s*import\s+([A-Za-z0-9_.]+)\s+as\s+\w+`)
	reFromImport = regexp.MustCompile(`^\s*from\s+(\.*[A-Za-z0-9_.]*)\s+import\s+`)
)

// PythonExtractor captures `import M[.S]*` and `from M[.S]* import …`
// (spec §4.1). The target is the module dotted name; resolution against
// M/S.py or M/S/__init__.py happens in the Graph Store.
type PythonExtractor struct{}

func (PythonExtractor) Extract(path string, content []byte) Record {
	rec := Record{File: path, Language: "python"}

	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()

		if m := reFromImport.FindStringSubmatch(text); m != nil {
			mod := m[1]
			if mod == "" || strings.HasPrefix(mod, ".") {
				// "from . import x" / "from .. import x": package-relative,
				// kept as the raw relative spec. The store's resolver does
				// not join it against the importing file's package
				// directory, so such edges stay unresolved.
				if mod == "" {
					mod = "."
				}
			}
			rec.Edges = append(rec.Edges, EdgeSpec{Spec: mod, Type: graphcore.Import, Line: line})
			continue
		}

		if m := reImportAs.FindStringSubmatch(text); m != nil {
			rec.Edges = append(rec.Edges, EdgeSpec{Spec: m[1], Type: graphcore.Import, Line: line})
			continue
		}

		if m := reImport.FindStringSubmatch(text); m != nil {
			for _, mod := range strings.Split(m[1], ",") {
				mod = strings.TrimSpace(mod)
				if mod != "" {
					rec.Edges = append(rec.Edges, EdgeSpec{Spec: mod, Type: graphcore.Import, Line: line})
				}
			}
		}
	}
	if err := sc.Err(); err != nil {
		rec.Warnings = append(rec.Warnings, Warning{Kind: ExtractFailed, File: path, Reason: err.Error()})
	}
	return rec
}
