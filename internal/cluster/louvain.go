package cluster

import (
	"sort"

	"github.com/codegraphd/codegraphd/internal/graphcore"
)

// adjacency is the undirected view of spec §4.6 step 1: the undirected
// edge {u,v} exists iff any directed edge exists in either direction,
// weight = count of directed edges observed (both directions summed).
type adjacency map[string]map[string]int

func buildAdjacency(store *graphcore.Store, paths []string) adjacency {
	adj := make(adjacency, len(paths))
	for _, p := range paths {
		adj[p] = map[string]int{}
	}
	add := func(a, b string) {
		if _, ok := adj[a]; !ok {
			return
		}
		if _, ok := adj[b]; !ok {
			return
		}
		if a == b {
			return
		}
		adj[a][b]++
		adj[b][a]++
	}
	for _, p := range paths {
		for _, e := range store.Neighbors(p, graphcore.Out, nil) {
			if target, ok := e.Target.Resolved(); ok {
				add(p, target)
			}
		}
	}
	return adj
}

// louvain runs the bounded iterative optimization of spec §4.6 step 3.
// Returns nil if no node ever moved from its initial singleton partition
// (the fallback trigger).
func louvain(store *graphcore.Store, paths []string, opt Options) map[string]int {
	adj := buildAdjacency(store, paths)

	community := make(map[string]int, len(paths))
	for i, p := range paths {
		community[p] = i
	}

	degree := func(p string) int {
		d := 0
		for _, w := range adj[p] {
			d += w
		}
		return d
	}

	internalEdges := func(p string, comm int, membersOf func(int) []string) int {
		total := 0
		for _, neighbor := range membersOf(comm) {
			if w, ok := adj[p][neighbor]; ok {
				total += w
			}
		}
		return total
	}

	membersByCommunity := func() map[int][]string {
		m := map[int][]string{}
		for p, c := range community {
			m[c] = append(m[c], p)
		}
		return m
	}

	maxIter := opt.MaxIterations
	if maxIter <= 0 {
		maxIter = 10
	}
	resolution := opt.Resolution
	if resolution <= 0 {
		resolution = 1.0
	}

	anyMoveEver := false
	for iter := 0; iter < maxIter; iter++ {
		moved := false
		members := membersByCommunity()

		for _, p := range paths {
			deg := degree(p)
			if deg == 0 {
				continue
			}
			curComm := community[p]
			curScore := float64(internalEdges(p, curComm, func(c int) []string { return members[c] })) / float64(deg)

			neighborComms := map[int]bool{}
			for neighbor := range adj[p] {
				neighborComms[community[neighbor]] = true
			}

			bestComm := curComm
			bestScore := curScore
			var candidates []int
			for c := range neighborComms {
				candidates = append(candidates, c)
			}
			sort.Ints(candidates)
			for _, c := range candidates {
				if c == curComm {
					continue
				}
				score := float64(internalEdges(p, c, func(cc int) []string { return members[cc] })) / float64(deg)
				if score > bestScore*resolution {
					bestScore = score
					bestComm = c
				}
			}
			if bestComm != curComm {
				members[curComm] = removeFromSlice(members[curComm], p)
				members[bestComm] = append(members[bestComm], p)
				community[p] = bestComm
				moved = true
				anyMoveEver = true
			}
		}
		if !moved {
			break
		}
	}

	if !anyMoveEver {
		return nil
	}
	return community
}

func removeFromSlice(s []string, v string) []string {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
