package graphcore

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/RoaringBitmap/roaring"
)

// DeltaEdge is one edge as reported by an extractor, before it is admitted
// into the store. Target may be resolved or unresolved; the store performs
// resolution (spec §4.2 resolve_targets), never the extractor (spec §4.1).
type DeltaEdge struct {
	Target Target
	Type   EdgeType
	Line   int
}

// Delta is the store-facing shape of an extraction record (spec §3
// "Extraction record"): everything needed to replace one file's outgoing
// edges in a single atomic step.
type Delta struct {
	Language string
	Edges    []DeltaEdge
	Symbols  []string
}

// ErrStoreUnavailable is returned when an internal invariant is violated.
// Per spec §7 this is the one Store error kind that propagates as fatal.
var ErrStoreUnavailable = fmt.Errorf("graphcore: store unavailable")

// Store is the Graph Store (C2): an in-memory directed multigraph keyed by
// file path, generalized from philtographer's internal/graph.Graph.
//
// edgesByID + sourceIndex/targetIndex mirror the RoaringBitmap-backed
// file→node index in agentic-research-mache's internal/graph.MemoryStore:
// instead of scanning every edge in the store to find those sourced at a
// file (O(N)), ApplyDelta/RemoveFile look up that file's bitmap of edge IDs
// (O(k), k = that file's own fan-out).
type Store struct {
	mu sync.RWMutex

	nodes map[string]*FileNode

	edgesByID map[uint32]*Edge
	nextID    uint32

	sourceIndex map[string]*roaring.Bitmap // file path -> bitmap of edge IDs sourced there
	targetIndex map[string]*roaring.Bitmap // resolved file path -> bitmap of edge IDs pointed at it

	// unresolved indexes pending edges by their raw spec string so a
	// newly-added node can satisfy them without a full edge scan.
	unresolved map[string]*roaring.Bitmap
}

// New constructs an empty Store.
func New() *Store {
	return &Store{
		nodes:       make(map[string]*FileNode),
		edgesByID:   make(map[uint32]*Edge),
		sourceIndex: make(map[string]*roaring.Bitmap),
		targetIndex: make(map[string]*roaring.Bitmap),
		unresolved:  make(map[string]*roaring.Bitmap),
	}
}

func (s *Store) bitmapFor(idx map[string]*roaring.Bitmap, key string) *roaring.Bitmap {
	b, ok := idx[key]
	if !ok {
		b = roaring.New()
		idx[key] = b
	}
	return b
}

// touch ensures a node exists for path without marking it stale.
func (s *Store) touch(path, language string) *FileNode {
	n, ok := s.nodes[path]
	if !ok {
		n = &FileNode{Path: path}
		s.nodes[path] = n
	}
	if language != "" {
		n.Language = language
	}
	n.Stale = false
	return n
}

// ApplyDelta atomically replaces all outgoing edges sourced at file with
// those in delta, per spec §4.2. Readers never observe a half-replaced
// neighborhood: the whole operation runs under the write lock.
func (s *Store) ApplyDelta(file string, delta Delta) (ChangeSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node := s.touch(file, delta.Language)
	node.Symbols = delta.Symbols

	var cs ChangeSet

	old := s.bitmapFor(s.sourceIndex, file)
	oldByKey := make(map[string]*Edge, old.GetCardinality())
	it := old.Iterator()
	for it.HasNext() {
		e := s.edgesByID[it.Next()]
		if e != nil {
			oldByKey[e.Target.Key()+"|"+e.Type.String()] = e
		}
	}

	newByKey := make(map[string]DeltaEdge, len(delta.Edges))
	for _, de := range delta.Edges {
		newByKey[de.Target.Key()+"|"+de.Type.String()] = de
	}

	// Remove edges no longer present.
	for key, e := range oldByKey {
		if _, still := newByKey[key]; !still {
			s.removeEdge(e)
			cs.Removed = append(cs.Removed, *e)
		}
	}

	// Add or keep edges.
	for key, de := range newByKey {
		if existing, ok := oldByKey[key]; ok {
			existing.Weight++
			existing.Line = de.Line
			cs.Unchanged = append(cs.Unchanged, *existing)
			continue
		}
		e := s.addEdge(file, de)
		cs.Added = append(cs.Added, *e)
	}

	s.resolveAgainst(node.Path)
	sortEdges(cs.Added)
	sortEdges(cs.Removed)
	sortEdges(cs.Unchanged)
	return cs, nil
}

func sortEdges(es []Edge) {
	sort.Slice(es, func(i, j int) bool {
		if es[i].Target.Key() != es[j].Target.Key() {
			return es[i].Target.Key() < es[j].Target.Key()
		}
		return es[i].Type < es[j].Type
	})
}

func (s *Store) addEdge(source string, de DeltaEdge) *Edge {
	s.nextID++
	id := s.nextID
	e := &Edge{id: id, Source: source, Target: de.Target, Type: de.Type, Weight: 1, Line: de.Line}
	s.edgesByID[id] = e
	s.bitmapFor(s.sourceIndex, source).Add(id)

	if path, ok := de.Target.Resolved(); ok {
		s.bitmapFor(s.targetIndex, path).Add(id)
		if _, exists := s.nodes[path]; !exists {
			s.nodes[path] = &FileNode{Path: path}
		}
	} else {
		s.bitmapFor(s.unresolved, de.Target.Spec()).Add(id)
	}
	return e
}

func (s *Store) removeEdge(e *Edge) {
	delete(s.edgesByID, e.id)
	if b, ok := s.sourceIndex[e.Source]; ok {
		b.Remove(e.id)
	}
	if path, ok := e.Target.Resolved(); ok {
		if b, ok := s.targetIndex[path]; ok {
			b.Remove(e.id)
		}
	} else {
		if b, ok := s.unresolved[e.Target.Spec()]; ok {
			b.Remove(e.id)
		}
	}
}

// resolveAgainst converts unresolved target strings into references to
// newPath wherever the spec matches it. It is safe to call repeatedly;
// already-resolved edges are untouched. Only edges whose spec matches
// newPath are re-checked; ResolveAll repeats this for every known node.
func (s *Store) resolveAgainst(newPath string) {
	for spec, bitmap := range s.unresolved {
		if !specMatches(spec, newPath) {
			continue
		}
		it := bitmap.Iterator()
		var resolved []uint32
		for it.HasNext() {
			id := it.Next()
			e := s.edgesByID[id]
			if e == nil {
				continue
			}
			e.Target = ResolvedTarget(newPath)
			s.bitmapFor(s.targetIndex, newPath).Add(id)
			resolved = append(resolved, id)
		}
		for _, id := range resolved {
			bitmap.Remove(id)
		}
		if bitmap.IsEmpty() {
			delete(s.unresolved, spec)
		}
	}
}

// ResolveAll sweeps every still-unresolved edge against the current node
// set. Called once at the end of a batch per spec §4.2 ("a single
// resolution pass sweeps all previously-unresolved edges").
func (s *Store) ResolveAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for path := range s.nodes {
		s.resolveAgainst(path)
	}
}

// specMatches implements the narrowed resolution rule of spec §9(c):
// (i) exact repository-relative path match, or (ii) the spec string is a
// suffix-module form of the candidate path (language-specific
// module-to-path conversion is approximated here as "path ends with the
// spec once '.' is turned into '/' and a source extension is appended",
// which covers Python dotted-module imports and relative JS/TS specifiers
// that made it through unresolved).
func specMatches(spec, path string) bool {
	if spec == path {
		return true
	}
	// Python module.to.path conversion: "pkg.sub.mod" resolves to
	// "pkg/sub/mod.py" or "pkg/sub/mod/__init__.py" (spec §4.1, §9c).
	asPath := strings.ReplaceAll(spec, ".", "/")
	for _, cand := range []string{asPath + ".py", asPath + "/__init__.py"} {
		if path == cand || strings.HasSuffix(path, "/"+cand) {
			return true
		}
	}

	// JS/TS extension inference + index.* resolution (spec §4.1, §9c):
	// the extractor already joined relative specs against the importing
	// file's directory, so spec here is an extensionless candidate path.
	for _, ext := range []string{".js", ".ts", ".tsx", ".jsx"} {
		if path == spec+ext {
			return true
		}
		if path == spec+"/index"+ext {
			return true
		}
	}
	return false
}

// RemoveFile removes the node and all its outgoing edges. Incoming edges
// are preserved but the node they pointed at is now unknown, so it is
// marked stale rather than deleted outright (spec §4.2).
func (s *Store) RemoveFile(file string) (ChangeSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cs ChangeSet
	if b, ok := s.sourceIndex[file]; ok {
		it := b.Iterator()
		for it.HasNext() {
			e := s.edgesByID[it.Next()]
			if e != nil {
				cs.Removed = append(cs.Removed, *e)
			}
		}
		for _, e := range cs.Removed {
			s.removeEdge(&e)
		}
		delete(s.sourceIndex, file)
	}

	hasIncoming := false
	if b, ok := s.targetIndex[file]; ok && !b.IsEmpty() {
		hasIncoming = true
	}

	if hasIncoming {
		if n, ok := s.nodes[file]; ok {
			n.Stale = true
		}
	} else {
		delete(s.nodes, file)
	}
	sortEdges(cs.Removed)
	return cs, nil
}

// Neighbors yields (edge, other-endpoint) pairs for file in the requested
// direction, filtered to the given edge types (nil/empty = all types).
func (s *Store) Neighbors(file string, dir Direction, types []EdgeType) []Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allow := func(EdgeType) bool { return true }
	if len(types) > 0 {
		set := make(map[EdgeType]bool, len(types))
		for _, t := range types {
			set[t] = true
		}
		allow = func(t EdgeType) bool { return set[t] }
	}

	var idx map[string]*roaring.Bitmap
	if dir == Out {
		idx = s.sourceIndex
	} else {
		idx = s.targetIndex
	}

	b, ok := idx[file]
	if !ok {
		return nil
	}
	out := make([]Edge, 0, b.GetCardinality())
	it := b.Iterator()
	for it.HasNext() {
		e := s.edgesByID[it.Next()]
		if e != nil && allow(e.Type) {
			out = append(out, *e)
		}
	}
	sortEdges(out)
	return out
}

// NodeFilter narrows Nodes(); nil matches everything.
type NodeFilter func(*FileNode) bool

// Nodes returns all nodes matching filter, sorted by path.
func (s *Store) Nodes(filter NodeFilter) []FileNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]FileNode, 0, len(s.nodes))
	for _, n := range s.nodes {
		if filter == nil || filter(n) {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// EdgeFilter narrows Edges(); nil matches everything.
type EdgeFilter func(*Edge) bool

// Edges returns all edges matching filter, sorted deterministically.
func (s *Store) Edges(filter EdgeFilter) []Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Edge, 0, len(s.edgesByID))
	for _, e := range s.edgesByID {
		if filter == nil || filter(e) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Target.Key() < out[j].Target.Key()
	})
	return out
}

// Node looks up a single node by path.
func (s *Store) Node(path string) (FileNode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[path]
	if !ok {
		return FileNode{}, false
	}
	return *n, true
}

// Len returns the number of known nodes, used by the clusterer's
// small-project shortcut (spec §4.6) and by regeneration-trigger checks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}
