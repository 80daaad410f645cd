package cluster

import (
	"sort"
	"strconv"
)

// misc is the distinguished absorbing cluster id named directly in spec
// §4.6 step 6 ("the absorbing cluster is always named misc").
const misc = "misc"

// shapeClusters applies spec §4.6 steps 4-6: compute target/max cluster
// counts, merge overflow/undersized communities into misc, and assign
// stable size-descending identifiers.
func shapeClusters(assignment map[string]int, paths []string, opt Options) map[string]string {
	targetReduction := opt.TargetReduction
	if targetReduction <= 0 {
		targetReduction = 100
	}
	minSize := opt.MinClusterSize
	if minSize <= 0 {
		minSize = 2
	}
	maxClusters := opt.MaxClusters
	if maxClusters <= 0 {
		maxClusters = 50
	}

	n := len(paths)
	target := (n + targetReduction - 1) / targetReduction // ceil(N / target_reduction)
	if target < 5 {
		target = 5
	}
	maxCount := 2 * target
	if maxCount > maxClusters {
		maxCount = maxClusters
	}

	membersByComm := map[int][]string{}
	for _, p := range paths {
		membersByComm[assignment[p]] = append(membersByComm[assignment[p]], p)
	}

	type commSize struct {
		comm    int
		members []string
	}
	var comms []commSize
	for c, m := range membersByComm {
		sort.Strings(m)
		comms = append(comms, commSize{comm: c, members: m})
	}
	sort.Slice(comms, func(i, j int) bool {
		if len(comms[i].members) != len(comms[j].members) {
			return len(comms[i].members) > len(comms[j].members)
		}
		return comms[i].members[0] < comms[j].members[0]
	})

	out := make(map[string]string, n)
	var kept []commSize
	var absorbed []string

	if len(comms) > maxCount {
		keepN := target - 1
		if keepN < 0 {
			keepN = 0
		}
		if keepN > len(comms) {
			keepN = len(comms)
		}
		kept = comms[:keepN]
		for _, c := range comms[keepN:] {
			absorbed = append(absorbed, c.members...)
		}
	} else {
		for _, c := range comms {
			if len(c.members) >= minSize {
				kept = append(kept, c)
			} else {
				absorbed = append(absorbed, c.members...)
			}
		}
	}

	for i, c := range kept {
		id := clusterID(i)
		for _, p := range c.members {
			out[p] = id
		}
	}
	if len(absorbed) > 0 {
		for _, p := range absorbed {
			out[p] = misc
		}
	}
	return out
}

func clusterID(i int) string {
	return "c" + strconv.Itoa(i)
}
