// Package query implements the bounded-depth traversal, symbol search,
// hot-path ranking, and cycle detection operations of spec §4.5 (C5),
// generalizing philtographer's internal/graph.Graph.Impacted BFS — which
// only ever walked one direction to a fixed point — into the store's typed,
// bidirectional, confidence-scored traversal contract.
package query

import (
	"sort"

	"github.com/codegraphd/codegraphd/internal/graphcore"
)

// Relation is one hop reported by FindRelated.
type Relation struct {
	Path       string
	Rel        string
	Depth      int
	Confidence float64
}

// FindRelated performs a BFS from file across edges matching types (nil =
// all types), optionally traversing the store's incoming index for reverse
// hops. Confidence starts at 1 and decays by 0.2 per hop, floored at 0.1
// (spec §4.5). Returns an empty slice (not an error) for an unknown file
// (spec §4.5 Failure modes).
func FindRelated(store *graphcore.Store, file string, maxDepth int, types []graphcore.EdgeType, includeReverse bool) []Relation {
	if _, ok := store.Node(file); !ok {
		return nil
	}

	type queued struct {
		path  string
		depth int
	}
	visited := map[string]bool{file: true}
	queue := []queued{{path: file, depth: 0}}
	var results []Relation

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}

		for _, e := range store.Neighbors(cur.path, graphcore.Out, types) {
			target, ok := e.Target.Resolved()
			if !ok || visited[target] {
				continue
			}
			visited[target] = true
			depth := cur.depth + 1
			results = append(results, Relation{
				Path:       target,
				Rel:        e.Type.String(),
				Depth:      depth,
				Confidence: confidenceAt(depth),
			})
			queue = append(queue, queued{path: target, depth: depth})
		}

		if includeReverse {
			for _, e := range store.Neighbors(cur.path, graphcore.In, types) {
				if visited[e.Source] {
					continue
				}
				visited[e.Source] = true
				depth := cur.depth + 1
				results = append(results, Relation{
					Path:       e.Source,
					Rel:        graphcore.ReverseOf(e.Type),
					Depth:      depth,
					Confidence: confidenceAt(depth),
				})
				queue = append(queue, queued{path: e.Source, depth: depth})
			}
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Confidence != results[j].Confidence {
			return results[i].Confidence > results[j].Confidence
		}
		return results[i].Path < results[j].Path
	})
	return results
}

// confidenceAt returns the confidence for a hop landing at depth (1 for the
// first hop): starts at 1.0 and decays by 0.2 per hop beyond the first,
// floored at 0.1 (spec §4.5; S1's first hop confidence ≈1.0 pins the
// decay's starting point to depth 1, not depth 0).
func confidenceAt(depth int) float64 {
	c := 1.0 - 0.2*float64(depth-1)
	if c < 0.1 {
		c = 0.1
	}
	return c
}
