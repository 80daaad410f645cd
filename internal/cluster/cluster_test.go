package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraphd/codegraphd/internal/graphcore"
)

func applyNode(t *testing.T, s *graphcore.Store, file, lang string, targets ...string) {
	t.Helper()
	var edges []graphcore.DeltaEdge
	for _, tgt := range targets {
		edges = append(edges, graphcore.DeltaEdge{Target: graphcore.ResolvedTarget(tgt), Type: graphcore.Import})
	}
	_, err := s.ApplyDelta(file, graphcore.Delta{Language: lang, Edges: edges})
	require.NoError(t, err)
}

func TestCompute_S3_DisconnectedBelowThreshold(t *testing.T) {
	s := graphcore.New()
	for i := 0; i < 5; i++ {
		applyNode(t, s, string(rune('a'+i))+".py", "python")
	}

	res := Compute(s, DefaultOptions())
	assert.Equal(t, "small_project", res.Strategy)
	assert.Len(t, res.Clusters, 5)
	assert.Empty(t, res.SuperEdges)
}

func TestCompute_TwoTightGroups(t *testing.T) {
	s := graphcore.New()
	opt := DefaultOptions()
	opt.SmallProjectThreshold = 2

	applyNode(t, s, "alpha/a.go", "go", "alpha/b.go", "alpha/c.go")
	applyNode(t, s, "alpha/b.go", "go", "alpha/c.go")
	applyNode(t, s, "alpha/c.go", "go")
	applyNode(t, s, "beta/x.go", "go", "beta/y.go", "beta/z.go")
	applyNode(t, s, "beta/y.go", "go", "beta/z.go")
	applyNode(t, s, "beta/z.go", "go")
	s.ResolveAll()

	res := Compute(s, opt)
	require.NotEmpty(t, res.Clusters)
	// every file must land in exactly one cluster (spec invariant I3).
	total := 0
	for _, c := range res.Clusters {
		total += c.MemberCount
	}
	assert.Equal(t, 6, total)
}

func TestShapeClusters_UndersizedMergeIntoMisc(t *testing.T) {
	paths := []string{"a", "b", "c", "d", "e", "f"}
	assignment := map[string]int{"a": 0, "b": 1, "c": 2, "d": 3, "e": 4, "f": 5}
	opt := Options{TargetReduction: 100, MinClusterSize: 2, MaxClusters: 50}
	shaped := shapeClusters(assignment, paths, opt)
	miscCount := 0
	for _, id := range shaped {
		if id == misc {
			miscCount++
		}
	}
	assert.Equal(t, 6, miscCount)
}

func TestShouldRegenerate(t *testing.T) {
	assert.False(t, ShouldRegenerate(100, 103))
	assert.True(t, ShouldRegenerate(100, 106))
	assert.True(t, ShouldRegenerate(0, 1))
	assert.False(t, ShouldRegenerate(0, 0))
}
