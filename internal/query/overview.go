package query

import (
	"sort"

	"github.com/codegraphd/codegraphd/internal/graphcore"
	"github.com/codegraphd/codegraphd/internal/metrics"
)

// Overview is the composite result of architecture_overview (spec §4.5).
type Overview struct {
	ModulesByLanguage map[string][]string `json:"modules_by_language"`
	HotPaths          [][]string          `json:"hot_paths"`
	Cycles            [][]string          `json:"cycles"`
	Metrics           metrics.Snapshot    `json:"metrics"`
}

// ArchitectureOverview composes hot-path ranking, cycle detection, and a
// per-language module listing into one response. An empty store still
// yields a well-formed, entirely-empty Overview (spec §8 Boundary
// behaviors).
func ArchitectureOverview(store *graphcore.Store, m *metrics.Metrics, hotPathLimit int) Overview {
	byLang := map[string][]string{}
	for _, n := range store.Nodes(nil) {
		byLang[n.Language] = append(byLang[n.Language], n.Path)
	}
	for lang := range byLang {
		sort.Strings(byLang[lang])
	}

	return Overview{
		ModulesByLanguage: byLang,
		HotPaths:          HotPaths(store, hotPathLimit),
		Cycles:            DetectCycles(store),
		Metrics:           m.Snapshot(),
	}
}
