package extract

import (
	"bufio"
	"bytes"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/codegraphd/codegraphd/internal/graphcore"
)

var (
	reIncludeLocal  = regexp.MustCompile(`^\s*#\s*include\s*"([^"]+)"`)
	reIncludeSystem = regexp.MustCompile(`^\s*#\s*include\s*<([^>]+)>`)
)

// CFamilyExtractor captures `#include "local.h"` (relative, resolution
// attempted) and `#include <system.h>` (system, left unresolved) per
// spec §4.1.
type CFamilyExtractor struct{}

func (CFamilyExtractor) Extract(path string, content []byte) Record {
	lang := "c"
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".cpp" || ext == ".cc" || ext == ".cxx" || ext == ".hpp" {
		lang = "cpp"
	}
	rec := Record{File: path, Language: lang}
	dir := filepath.Dir(path)

	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if m := reIncludeLocal.FindStringSubmatch(text); m != nil {
			joined := filepath.ToSlash(filepath.Clean(filepath.Join(dir, m[1])))
			rec.Edges = append(rec.Edges, EdgeSpec{Spec: joined, Type: graphcore.Include, Line: line})
			continue
		}
		if m := reIncludeSystem.FindStringSubmatch(text); m != nil {
			// System headers are never resolved against the repo; the raw
			// header name stays an unresolved external identifier.
			rec.Edges = append(rec.Edges, EdgeSpec{Spec: "sys:" + m[1], Type: graphcore.Include, Line: line})
		}
	}
	if err := sc.Err(); err != nil {
		rec.Warnings = append(rec.Warnings, Warning{Kind: ExtractFailed, File: path, Reason: err.Error()})
	}
	return rec
}
