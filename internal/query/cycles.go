package query

import (
	"sort"

	"github.com/codegraphd/codegraphd/internal/graphcore"
)

// DetectCycles runs a standard DFS with a recursion stack over every node
// (sorted, for determinism); when a back-edge into an ancestor is found,
// the ancestor-to-current slice of the current DFS path is emitted as one
// cycle. Each maximal cycle is reported once (spec §4.5).
func DetectCycles(store *graphcore.Store) [][]string {
	nodes := store.Nodes(nil)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Path < nodes[j].Path })

	onStack := map[string]bool{}
	visited := map[string]bool{}
	stackPos := map[string]int{}
	var path []string
	var cycles [][]string
	seen := map[string]bool{}

	var dfs func(cur string)
	dfs = func(cur string) {
		visited[cur] = true
		onStack[cur] = true
		stackPos[cur] = len(path)
		path = append(path, cur)

		var nexts []string
		for _, e := range store.Neighbors(cur, graphcore.Out, nil) {
			if target, ok := e.Target.Resolved(); ok {
				nexts = append(nexts, target)
			}
		}
		sort.Strings(nexts)

		for _, nx := range nexts {
			if onStack[nx] {
				start := stackPos[nx]
				cycle := append([]string{}, path[start:]...)
				key := cycleKey(cycle)
				if !seen[key] {
					seen[key] = true
					cycles = append(cycles, cycle)
				}
				continue
			}
			if !visited[nx] {
				dfs(nx)
			}
		}

		path = path[:len(path)-1]
		onStack[cur] = false
	}

	for _, n := range nodes {
		if !visited[n.Path] {
			dfs(n.Path)
		}
	}
	return cycles
}

// cycleKey normalizes a cycle's rotation so the same cycle reached from a
// different starting ancestor is not reported twice: the lexicographically
// smallest node becomes the anchor.
func cycleKey(cycle []string) string {
	minIdx := 0
	for i, p := range cycle {
		if p < cycle[minIdx] {
			minIdx = i
		}
	}
	rotated := append(append([]string{}, cycle[minIdx:]...), cycle[:minIdx]...)
	key := ""
	for _, p := range rotated {
		key += p + "|"
	}
	return key
}
