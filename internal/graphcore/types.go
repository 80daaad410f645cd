// Package graphcore implements the Graph Store: an in-memory directed
// multigraph keyed by repository-relative file path, generalized from
// philtographer's internal/graph.Graph (forward + reverse adjacency over
// map[string]map[string]struct{}) to carry typed, weighted, multi-edges and
// to distinguish resolved file targets from unresolved external identifiers.
package graphcore

import "time"

// EdgeType is the relationship an edge records. Reverse traversal produces
// a synthetic type (see ReverseOf) rather than a distinct constant, so the
// query engine can tag hops as "reverse_<type>" per spec §4.5.
type EdgeType int

const (
	Import EdgeType = iota
	Include
	Require
	Call
	Inheritance
)

func (t EdgeType) String() string {
	switch t {
	case Import:
		return "import"
	case Include:
		return "include"
	case Require:
		return "require"
	case Call:
		return "call"
	case Inheritance:
		return "inheritance"
	default:
		return "unknown"
	}
}

// Target is a discriminated union: either a resolved file node reference or
// an unresolved external identifier (module name, system header). Making
// this a first-class type (rather than a nullable string, as the legacy
// record shapes did) keeps resolution status visible at compile time.
type Target struct {
	resolved bool
	path     string // valid iff resolved
	spec     string // raw identifier, valid iff !resolved
}

// ResolvedTarget builds a Target pointing at a known file node.
func ResolvedTarget(path string) Target { return Target{resolved: true, path: path} }

// UnresolvedTarget builds a Target for a symbolic identifier with no known
// file node yet (a module name, a system header, a bare package import).
func UnresolvedTarget(spec string) Target { return Target{resolved: false, spec: spec} }

// Resolved reports whether this target has been mapped to a file node, and
// if so returns its path.
func (t Target) Resolved() (string, bool) {
	if t.resolved {
		return t.path, true
	}
	return "", false
}

// Spec returns the raw unresolved identifier. Empty once resolved.
func (t Target) Spec() string { return t.spec }

// Key is a stable string identity for this target, used for edge
// de-duplication (same source+target+type accumulates weight).
func (t Target) Key() string {
	if t.resolved {
		return "file:" + t.path
	}
	return "ext:" + t.spec
}

// FileNode is a repository-relative source file known to the store.
type FileNode struct {
	Path     string
	Language string
	LastScan time.Time
	Symbols  []string
	// Stale marks a node that is only referenced by incoming edges — its
	// own source was removed, so its outgoing edges are gone but other
	// files still point at it (spec §4.2 RemoveFile: "incoming edges are
	// preserved but may become dangling").
	Stale bool
}

// Edge is a directed, typed, weighted relationship. Weight accumulates each
// time ApplyDelta re-observes the same (source, target, type) for a file;
// duplicates within a single delta collapse into one edge (spec §3 Edge
// contract).
type Edge struct {
	id     uint32
	Source string
	Target Target
	Type   EdgeType
	Weight int
	Line   int
}

// ReverseOf names the synthetic relationship the query engine reports for a
// hop taken against the reverse index: "reverse_import", "reverse_call", ...
func ReverseOf(t EdgeType) string { return "reverse_" + t.String() }

// Direction selects which adjacency index Neighbors walks.
type Direction int

const (
	Out Direction = iota
	In
)

// ChangeSet is the result of a mutating Store operation: the edges added,
// removed, and left unchanged by the call, so callers (the applier, tests)
// can observe exactly what moved without re-diffing the store themselves.
type ChangeSet struct {
	Added     []Edge
	Removed   []Edge
	Unchanged []Edge
}
