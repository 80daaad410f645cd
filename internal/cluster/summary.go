package cluster

import (
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring"

	"github.com/codegraphd/codegraphd/internal/graphcore"
)

// summarize computes the spec §4.6 "Cluster summary" for every cluster id
// appearing in shaped, plus its stable roaring.Bitmap membership set keyed
// by index into paths (the same bitmap-of-IDs pattern graphcore.Store uses
// for its own edge indices).
func summarize(store *graphcore.Store, shaped map[string]string, paths []string, langOf map[string]string) []Cluster {
	indexOf := make(map[string]int, len(paths))
	for i, p := range paths {
		indexOf[p] = i
	}

	members := map[string][]string{}
	for _, p := range paths {
		members[shaped[p]] = append(members[shaped[p]], p)
	}

	var clusters []Cluster
	for id, ms := range members {
		sort.Strings(ms)
		bm := roaring.New()
		langSet := map[string]bool{}
		for _, p := range ms {
			bm.Add(uint32(indexOf[p]))
			if lang := langOf[p]; lang != "" {
				langSet[lang] = true
			}
		}
		langs := make([]string, 0, len(langSet))
		for l := range langSet {
			langs = append(langs, l)
		}
		sort.Strings(langs)

		clusters = append(clusters, Cluster{
			ID:           id,
			Members:      bm,
			MemberPaths:  ms,
			MemberCount:  len(ms),
			EstimatedLOC: 50 * len(ms),
			Languages:    langs,
			KeyFiles:     keyFiles(ms),
			Description:  describe(id, ms, langs),
		})
	}

	sort.Slice(clusters, func(i, j int) bool {
		if clusters[i].MemberCount != clusters[j].MemberCount {
			return clusters[i].MemberCount > clusters[j].MemberCount
		}
		return clusters[i].ID < clusters[j].ID
	})
	return clusters
}

// keyFiles ranks up to three members by the spec §4.6 importance heuristic:
// shorter paths score higher; "index"/"main" earn a bonus; "test" or a
// leading "__" earn a penalty.
func keyFiles(members []string) []string {
	type scored struct {
		path  string
		score float64
	}
	out := make([]scored, len(members))
	for i, p := range members {
		score := -float64(len(p))
		lower := strings.ToLower(p)
		if strings.Contains(lower, "index") || strings.Contains(lower, "main") {
			score += 25
		}
		base := p
		if idx := strings.LastIndex(p, "/"); idx >= 0 {
			base = p[idx+1:]
		}
		if strings.Contains(lower, "test") || strings.HasPrefix(base, "__") {
			score -= 25
		}
		out[i] = scored{path: p, score: score}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].path < out[j].path
	})
	n := 3
	if n > len(out) {
		n = len(out)
	}
	top := make([]string, n)
	for i := 0; i < n; i++ {
		top[i] = out[i].path
	}
	return top
}

// describe builds a short human-oriented description from the two most
// common directory prefixes and the cluster's language set (spec §4.6).
func describe(id string, members []string, langs []string) string {
	if id == misc {
		return "miscellaneous files absorbed from small or overflow communities"
	}
	counts := map[string]int{}
	for _, p := range members {
		if idx := strings.Index(p, "/"); idx >= 0 {
			counts[p[:idx]]++
		}
	}
	type kv struct {
		dir   string
		count int
	}
	var kvs []kv
	for d, c := range counts {
		kvs = append(kvs, kv{d, c})
	}
	sort.Slice(kvs, func(i, j int) bool {
		if kvs[i].count != kvs[j].count {
			return kvs[i].count > kvs[j].count
		}
		return kvs[i].dir < kvs[j].dir
	})
	n := 2
	if n > len(kvs) {
		n = len(kvs)
	}
	var dirs []string
	for i := 0; i < n; i++ {
		dirs = append(dirs, kvs[i].dir)
	}
	desc := strings.Join(dirs, ", ")
	if desc == "" {
		desc = "root-level files"
	}
	if len(langs) > 0 {
		desc += " (" + strings.Join(langs, ", ") + ")"
	}
	return desc
}
