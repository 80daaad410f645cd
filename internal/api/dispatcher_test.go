package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraphd/codegraphd/internal/cluster"
	"github.com/codegraphd/codegraphd/internal/errs"
	"github.com/codegraphd/codegraphd/internal/graphcore"
)

type fakeDaemon struct {
	store     *graphcore.Store
	refreshed bool
}

func (f *fakeDaemon) Store() *graphcore.Store       { return f.store }
func (f *fakeDaemon) ClusterResult() cluster.Result { return cluster.Result{Strategy: "small_project"} }
func (f *fakeDaemon) Refresh()                      { f.refreshed = true }

func newFakeDaemon(t *testing.T) *fakeDaemon {
	t.Helper()
	s := graphcore.New()
	_, err := s.ApplyDelta("a.js", graphcore.Delta{
		Language: "javascript",
		Edges:    []graphcore.DeltaEdge{{Target: graphcore.ResolvedTarget("b.js"), Type: graphcore.Import}},
	})
	require.NoError(t, err)
	_, err = s.ApplyDelta("b.js", graphcore.Delta{Language: "javascript"})
	require.NoError(t, err)
	s.ResolveAll()
	return &fakeDaemon{store: s}
}

func TestDispatch_FindRelated(t *testing.T) {
	d := NewDispatcher(newFakeDaemon(t), 10)
	resp := d.Dispatch(Request{Verb: "find_related", Params: map[string]any{"file": "a.js", "max_depth": float64(1)}})
	assert.Nil(t, resp.Error)
	assert.NotNil(t, resp.Result)
}

func TestDispatch_UnknownVerb(t *testing.T) {
	d := NewDispatcher(newFakeDaemon(t), 10)
	resp := d.Dispatch(Request{Verb: "bogus"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, errs.QueryBadInput, resp.Error.Kind)
}

func TestDispatch_RefreshCallsDaemon(t *testing.T) {
	fd := newFakeDaemon(t)
	d := NewDispatcher(fd, 10)
	resp := d.Dispatch(Request{Verb: "refresh"})
	assert.Nil(t, resp.Error)
	assert.True(t, fd.refreshed)
}

func TestDispatch_FindRelatedMissingFile(t *testing.T) {
	d := NewDispatcher(newFakeDaemon(t), 10)
	resp := d.Dispatch(Request{Verb: "find_related", Params: map[string]any{}})
	require.NotNil(t, resp.Error)
	assert.Equal(t, errs.QueryBadInput, resp.Error.Kind)
}
