package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraphd/codegraphd/internal/graphcore"
)

func apply(t *testing.T, s *graphcore.Store, file string, targets ...string) {
	t.Helper()
	var edges []graphcore.DeltaEdge
	for _, tgt := range targets {
		edges = append(edges, graphcore.DeltaEdge{Target: graphcore.ResolvedTarget(tgt), Type: graphcore.Import})
	}
	_, err := s.ApplyDelta(file, graphcore.Delta{Language: "javascript", Edges: edges})
	require.NoError(t, err)
}

func TestFindRelated_S1(t *testing.T) {
	s := graphcore.New()
	apply(t, s, "a.js", "b.js")
	apply(t, s, "b.js")
	s.ResolveAll()

	rel := FindRelated(s, "a.js", 1, nil, false)
	require.Len(t, rel, 1)
	assert.Equal(t, "b.js", rel[0].Path)
	assert.InDelta(t, 1.0, rel[0].Confidence, 0.001)

	rev := FindRelated(s, "b.js", 1, nil, true)
	require.Len(t, rev, 1)
	assert.Equal(t, "a.js", rev[0].Path)
	assert.Equal(t, "reverse_import", rev[0].Rel)
}

func TestFindRelated_UnknownFile(t *testing.T) {
	s := graphcore.New()
	rel := FindRelated(s, "nope.js", 2, nil, false)
	assert.Empty(t, rel)
}

func TestDetectCycles_S2(t *testing.T) {
	s := graphcore.New()
	apply(t, s, "x.py", "y.py")
	apply(t, s, "y.py", "z.py")
	apply(t, s, "z.py", "x.py")
	s.ResolveAll()

	cycles := DetectCycles(s)
	require.Len(t, cycles, 1)
	assert.ElementsMatch(t, []string{"x.py", "y.py", "z.py"}, cycles[0])

	rel := FindRelated(s, "x.py", 3, nil, false)
	depths := map[string]int{}
	for _, r := range rel {
		depths[r.Path] = r.Depth
	}
	assert.Equal(t, 1, depths["y.py"])
	assert.Equal(t, 2, depths["z.py"])
}

func TestSearchSymbols_Relevance(t *testing.T) {
	s := graphcore.New()
	_, err := s.ApplyDelta("parser/lexer.py", graphcore.Delta{Language: "python", Symbols: []string{"TokenStream"}})
	require.NoError(t, err)

	matches := SearchSymbols(s, []string{"lexer", "tokenstream", "nomatch"})
	require.Len(t, matches, 1)
	assert.InDelta(t, 2.0/3.0, matches[0].Relevance, 0.001)
}
