// Package extract implements the Extractor Set (C1): pure,
// language-specific functions that turn file bytes into an extraction
// record of import/include/call/inheritance edges plus symbols. Grounded in
// philtographer's internal/scan (regex extraction, internal/scan/ts_ast.go
// tree-sitter walk) and generalized to the language set of spec §4.1.
package extract

import (
	"github.com/codegraphd/codegraphd/internal/graphcore"
)

// WarningKind enumerates the structured warnings an extractor can report.
// Per spec §4.1, extraction failures never abort a batch; they surface as
// a Warning on the Record, alongside whatever edges were still extracted.
type WarningKind string

const ExtractFailed WarningKind = "ExtractFailed"

// Warning is a structured, non-fatal extraction problem (spec §7).
type Warning struct {
	Kind   WarningKind
	File   string
	Reason string
}

// EdgeSpec is one edge as reported by an extractor: a raw target spec
// string (a module name, an include path, a joined-but-unverified relative
// path) plus its type and the source line. Resolution to an actual file
// node happens in the Graph Store (spec §4.1 "Cross-file target resolution
// happens in the Graph Store"), never here.
type EdgeSpec struct {
	Spec string
	Type graphcore.EdgeType
	Line int
}

// Record is the output of extracting one file (spec §3 "Extraction
// record"). It is a pure function of (path, content, language) — no
// cross-file state, no I/O beyond the bytes given.
type Record struct {
	File     string
	Language string
	Edges    []EdgeSpec
	Symbols  []string
	Warnings []Warning
}

// ToDelta converts a Record into the graphcore.Delta the Store expects,
// wrapping every edge's raw spec as an unresolved Target — the store is
// solely responsible for ever turning it into a resolved one.
func (r Record) ToDelta() graphcore.Delta {
	d := graphcore.Delta{Language: r.Language, Symbols: r.Symbols}
	for _, e := range r.Edges {
		d.Edges = append(d.Edges, graphcore.DeltaEdge{
			Target: graphcore.UnresolvedTarget(e.Spec),
			Type:   e.Type,
			Line:   e.Line,
		})
	}
	return d
}

// Extractor is a pure function from (path, content) to an ExtractionRecord.
type Extractor interface {
	Extract(path string, content []byte) Record
}
