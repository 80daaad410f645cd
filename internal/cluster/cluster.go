// Package cluster implements community detection over the Graph Store's
// contents (spec §4.6, C6), producing a super-graph of clusters and
// inter-cluster edges. Grounded in onedusk-pd's internal/graph ComputeClusters
// (undirected adjacency + connected-component/cohesion shaping) generalized
// from its BFS-connected-components approach into the spec's Louvain-like
// iterative optimization with explicit cluster-count shaping.
package cluster

import (
	"path"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring"

	"github.com/codegraphd/codegraphd/internal/graphcore"
)

// Cluster is a labeled partition of file nodes plus its derived summary
// (spec §3 "Cluster").
type Cluster struct {
	ID      string
	Members *roaring.Bitmap // indices into the store's sorted path list, for fast set membership tests
	// MemberPaths is the same membership expressed as the actual
	// repository-relative paths, for callers (snapshot writers, the API)
	// that need the paths themselves rather than an index set.
	MemberPaths  []string
	MemberCount  int
	EstimatedLOC int
	Languages    []string
	KeyFiles     []string
	Description  string
}

// Paths returns the cluster's member file paths, sorted.
func (c Cluster) Paths() []string { return c.MemberPaths }

// SuperEdge is a directed inter-cluster edge (spec §3 "Super-edge").
type SuperEdge struct {
	From   string
	To     string
	Weight int
}

// Result is the full output of Compute: clusters, the super-graph edges
// between them, and the strategy actually used (small-project shortcut,
// louvain, or directory-prefix fallback), surfaced to the snapshot's
// metadata (spec §6 supergraph artifact "strategy" field).
type Result struct {
	Clusters   []Cluster
	SuperEdges []SuperEdge
	Strategy   string
}

// Options mirrors the spec §6 clusterer configuration block.
type Options struct {
	TargetReduction       int
	MinClusterSize        int
	MaxClusters           int
	SmallProjectThreshold int
	Resolution            float64
	MaxIterations         int
}

// DefaultOptions returns the spec §6 default clusterer configuration.
func DefaultOptions() Options {
	return Options{
		TargetReduction:       100,
		MinClusterSize:        2,
		MaxClusters:           50,
		SmallProjectThreshold: 20,
		Resolution:            1.0,
		MaxIterations:         10,
	}
}

// Compute partitions every node currently in store into clusters and
// derives the super-graph, per spec §4.6.
func Compute(store *graphcore.Store, opt Options) Result {
	nodes := store.Nodes(nil)
	paths := make([]string, len(nodes))
	langOf := make(map[string]string, len(nodes))
	for i, n := range nodes {
		paths[i] = n.Path
		langOf[n.Path] = n.Language
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return Result{Strategy: "small_project"}
	}

	if len(paths) < opt.SmallProjectThreshold {
		return singletons(store, paths, langOf)
	}

	strategy := "louvain"
	assignment := louvain(store, paths, opt)
	if assignment == nil {
		// The loop never moved a single node from its initial singleton
		// partition (empty graph, disconnected trivial structure) — spec
		// §4.6 Fallback.
		assignment = directoryPrefix(paths)
		strategy = "directory_prefix"
	}

	shaped := shapeClusters(assignment, paths, opt)
	clusters := summarize(store, shaped, paths, langOf)
	edges := superEdges(store, shaped, paths)
	return Result{Clusters: clusters, SuperEdges: edges, Strategy: strategy}
}

// singletons implements the spec §4.6 small-project shortcut: every file is
// its own cluster, super-edges are the file-level edges themselves.
func singletons(store *graphcore.Store, paths []string, langOf map[string]string) Result {
	assignment := singletonAssignment(paths)
	clusters := summarize(store, assignment, paths, langOf)
	edges := superEdges(store, assignment, paths)
	return Result{Clusters: clusters, SuperEdges: edges, Strategy: "small_project"}
}

// singletonAssignment gives each path its own cluster id, keyed by its
// index in the sorted path list so ids stay stable across runs.
func singletonAssignment(paths []string) map[string]string {
	assignment := make(map[string]string, len(paths))
	for i, p := range paths {
		assignment[p] = clusterID(i)
	}
	return assignment
}

// directoryPrefix implements the spec §4.6 fallback: the first two path
// segments form the cluster key.
func directoryPrefix(paths []string) map[string]int {
	keyToID := map[string]int{}
	assignment := make(map[string]int, len(paths))
	for _, p := range paths {
		segs := strings.Split(p, "/")
		key := segs[0]
		if len(segs) > 1 {
			key = path.Join(segs[0], segs[1])
		}
		id, ok := keyToID[key]
		if !ok {
			id = len(keyToID)
			keyToID[key] = id
		}
		assignment[p] = id
	}
	return assignment
}

// ShouldRegenerate implements the spec §4.6 regeneration policy: re-run
// when the node count has changed by more than 5% since the last run.
func ShouldRegenerate(lastCount, currentCount int) bool {
	if lastCount == 0 {
		return currentCount > 0
	}
	delta := currentCount - lastCount
	if delta < 0 {
		delta = -delta
	}
	return float64(delta)/float64(lastCount) > 0.05
}
