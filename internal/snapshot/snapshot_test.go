package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraphd/codegraphd/internal/cluster"
	"github.com/codegraphd/codegraphd/internal/graphcore"
	"github.com/codegraphd/codegraphd/internal/metrics"
)

func TestWriteAndRead_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	require.NoError(t, err)

	store := graphcore.New()
	_, err = store.ApplyDelta("a.py", graphcore.Delta{
		Language: "python",
		Edges:    []graphcore.DeltaEdge{{Target: graphcore.ResolvedTarget("b.py"), Type: graphcore.Import}},
	})
	require.NoError(t, err)
	_, err = store.ApplyDelta("b.py", graphcore.Delta{Language: "python"})
	require.NoError(t, err)
	store.ResolveAll()

	res := cluster.Compute(store, cluster.DefaultOptions())
	m := metrics.New()

	require.NoError(t, w.Write(store, res, m))

	r, err := Open(dir)
	require.NoError(t, err)
	defer r.Close()

	byLang, err := r.NodesByLanguage()
	require.NoError(t, err)
	assert.Len(t, byLang["python"], 2)

	edges, err := r.Edges()
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "a.py", edges[0].Source)
	assert.Equal(t, "b.py", edges[0].Target)
	assert.True(t, edges[0].Resolved)
}
