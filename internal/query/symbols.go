package query

import (
	"sort"
	"strings"

	"github.com/codegraphd/codegraphd/internal/graphcore"
)

// SymbolMatch is one result of SearchSymbols.
type SymbolMatch struct {
	Path            string
	Language        string
	Relevance       float64
	MatchedKeywords []string
}

// SearchSymbols performs a case-insensitive substring match of keywords
// against file paths and extractor-reported symbol names. Relevance is
// matched_keywords / total_keywords (spec §4.5).
func SearchSymbols(store *graphcore.Store, keywords []string) []SymbolMatch {
	if len(keywords) == 0 {
		return nil
	}
	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}

	var out []SymbolMatch
	for _, n := range store.Nodes(nil) {
		haystack := strings.ToLower(n.Path)
		for _, sym := range n.Symbols {
			haystack += " " + strings.ToLower(sym)
		}

		var matched []string
		for i, kw := range lowered {
			if strings.Contains(haystack, kw) {
				matched = append(matched, keywords[i])
			}
		}
		if len(matched) == 0 {
			continue
		}
		out = append(out, SymbolMatch{
			Path:            n.Path,
			Language:        n.Language,
			Relevance:       float64(len(matched)) / float64(len(keywords)),
			MatchedKeywords: matched,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Relevance != out[j].Relevance {
			return out[i].Relevance > out[j].Relevance
		}
		return out[i].Path < out[j].Path
	})
	return out
}
