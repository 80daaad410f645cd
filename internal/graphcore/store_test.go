package graphcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDelta_AddsEdgesAndNode(t *testing.T) {
	s := New()
	cs, err := s.ApplyDelta("a.js", Delta{
		Language: "javascript",
		Edges: []DeltaEdge{
			{Target: ResolvedTarget("b.js"), Type: Import, Line: 1},
		},
	})
	require.NoError(t, err)
	require.Len(t, cs.Added, 1)
	assert.Equal(t, "b.js", mustResolved(t, cs.Added[0].Target))

	nodes := s.Nodes(nil)
	require.Len(t, nodes, 2, "source and target both become nodes")

	out := s.Neighbors("a.js", Out, nil)
	require.Len(t, out, 1)
	assert.Equal(t, Import, out[0].Type)

	in := s.Neighbors("b.js", In, nil)
	require.Len(t, in, 1)
	assert.Equal(t, "a.js", in[0].Source)
}

func TestApplyDelta_ReplacesAtomically(t *testing.T) {
	s := New()
	_, err := s.ApplyDelta("a.js", Delta{Edges: []DeltaEdge{
		{Target: ResolvedTarget("b.js"), Type: Import},
		{Target: ResolvedTarget("c.js"), Type: Import},
	}})
	require.NoError(t, err)

	cs, err := s.ApplyDelta("a.js", Delta{Edges: []DeltaEdge{
		{Target: ResolvedTarget("c.js"), Type: Import},
		{Target: ResolvedTarget("d.js"), Type: Import},
	}})
	require.NoError(t, err)

	require.Len(t, cs.Removed, 1)
	assert.Equal(t, "b.js", mustResolved(t, cs.Removed[0].Target))
	require.Len(t, cs.Added, 1)
	assert.Equal(t, "d.js", mustResolved(t, cs.Added[0].Target))
	require.Len(t, cs.Unchanged, 1)
	assert.Equal(t, "c.js", mustResolved(t, cs.Unchanged[0].Target))

	out := s.Neighbors("a.js", Out, nil)
	require.Len(t, out, 2)
}

func TestApplyDelta_RepeatedEdgeAccumulatesWeight(t *testing.T) {
	s := New()
	_, err := s.ApplyDelta("a.js", Delta{Edges: []DeltaEdge{
		{Target: ResolvedTarget("b.js"), Type: Import},
	}})
	require.NoError(t, err)

	cs, err := s.ApplyDelta("a.js", Delta{Edges: []DeltaEdge{
		{Target: ResolvedTarget("b.js"), Type: Import},
	}})
	require.NoError(t, err)
	require.Len(t, cs.Unchanged, 1)
	assert.Equal(t, 2, cs.Unchanged[0].Weight)
}

func TestRemoveFile_PreservesDanglingIncomingEdges(t *testing.T) {
	s := New()
	_, err := s.ApplyDelta("a.js", Delta{Edges: []DeltaEdge{
		{Target: ResolvedTarget("b.js"), Type: Import},
	}})
	require.NoError(t, err)

	cs, err := s.RemoveFile("b.js")
	require.NoError(t, err)
	assert.Empty(t, cs.Removed, "b.js had no outgoing edges")

	node, ok := s.Node("b.js")
	require.True(t, ok, "dangling node preserved")
	assert.True(t, node.Stale)

	in := s.Neighbors("b.js", In, nil)
	require.Len(t, in, 1, "incoming edge preserved per spec")
}

func TestRemoveFile_DropsNodeWithNoIncomingEdges(t *testing.T) {
	s := New()
	_, err := s.ApplyDelta("a.js", Delta{})
	require.NoError(t, err)

	_, err = s.RemoveFile("a.js")
	require.NoError(t, err)

	_, ok := s.Node("a.js")
	assert.False(t, ok)
}

func TestResolveTargets_PythonModuleToPath(t *testing.T) {
	s := New()
	_, err := s.ApplyDelta("pkg/a.py", Delta{Edges: []DeltaEdge{
		{Target: UnresolvedTarget("pkg.sub.mod"), Type: Import},
	}})
	require.NoError(t, err)

	out := s.Neighbors("pkg/a.py", Out, nil)
	require.Len(t, out, 1)
	_, resolved := out[0].Target.Resolved()
	assert.False(t, resolved, "not yet resolved: pkg/sub/mod.py doesn't exist as a node")

	_, err = s.ApplyDelta("pkg/sub/mod.py", Delta{})
	require.NoError(t, err)

	out = s.Neighbors("pkg/a.py", Out, nil)
	require.Len(t, out, 1)
	path, resolved := out[0].Target.Resolved()
	require.True(t, resolved)
	assert.Equal(t, "pkg/sub/mod.py", path)
}

func mustResolved(t *testing.T, target Target) string {
	t.Helper()
	p, ok := target.Resolved()
	require.True(t, ok)
	return p
}
