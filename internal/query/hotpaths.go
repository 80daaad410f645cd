package query

import (
	"sort"
	"strings"

	"github.com/codegraphd/codegraphd/internal/graphcore"
)

// degree returns total in+out degree for node, used to pick hot-path seeds
// (spec §4.5: "each node with total degree ≥ 3").
func degree(store *graphcore.Store, path string) int {
	return len(store.Neighbors(path, graphcore.Out, nil)) + len(store.Neighbors(path, graphcore.In, nil))
}

// HotPaths performs a bounded DFS (depth ≤ 3) along out-edges from every
// node of degree ≥ 3, collecting simple paths of length ≥ 2, and returns
// the top limit ranked by path length with lexicographic ties broken by
// path order (spec §4.5).
func HotPaths(store *graphcore.Store, limit int) [][]string {
	nodes := store.Nodes(nil)
	var paths [][]string
	seen := map[string]bool{}

	for _, n := range nodes {
		if degree(store, n.Path) < 3 {
			continue
		}
		var dfs func(cur string, visiting map[string]bool, chain []string)
		dfs = func(cur string, visiting map[string]bool, chain []string) {
			if len(chain) >= 2 {
				key := strings.Join(chain, ">")
				if !seen[key] {
					seen[key] = true
					cp := make([]string, len(chain))
					copy(cp, chain)
					paths = append(paths, cp)
				}
			}
			if len(chain) >= 4 { // depth <= 3 hops => at most 4 nodes in a simple path
				return
			}
			var nexts []string
			for _, e := range store.Neighbors(cur, graphcore.Out, nil) {
				if target, ok := e.Target.Resolved(); ok && !visiting[target] {
					nexts = append(nexts, target)
				}
			}
			sort.Strings(nexts)
			for _, nx := range nexts {
				visiting[nx] = true
				dfs(nx, visiting, append(chain, nx))
				delete(visiting, nx)
			}
		}
		dfs(n.Path, map[string]bool{n.Path: true}, []string{n.Path})
	}

	sort.Slice(paths, func(i, j int) bool {
		if len(paths[i]) != len(paths[j]) {
			return len(paths[i]) > len(paths[j])
		}
		return strings.Join(paths[i], ">") < strings.Join(paths[j], ">")
	})
	if limit > 0 && len(paths) > limit {
		paths = paths[:limit]
	}
	return paths
}
