package cluster

import (
	"sort"

	"github.com/codegraphd/codegraphd/internal/graphcore"
)

// superEdges implements spec §4.6 "Super-edges": for every directed
// file-level edge whose endpoints fall in different clusters, increment the
// super-edge weight for that ordered pair (I4: never a cluster to itself).
func superEdges(store *graphcore.Store, shaped map[string]string, paths []string) []SuperEdge {
	weights := map[[2]string]int{}
	for _, p := range paths {
		fromCluster, ok := shaped[p]
		if !ok {
			continue
		}
		for _, e := range store.Neighbors(p, graphcore.Out, nil) {
			target, ok := e.Target.Resolved()
			if !ok {
				continue
			}
			toCluster, ok := shaped[target]
			if !ok || toCluster == fromCluster {
				continue
			}
			weights[[2]string{fromCluster, toCluster}]++
		}
	}

	out := make([]SuperEdge, 0, len(weights))
	for pair, w := range weights {
		out = append(out, SuperEdge{From: pair[0], To: pair[1], Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}
