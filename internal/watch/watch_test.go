package watch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderForBatch_DeletionsFirst(t *testing.T) {
	in := []Event{
		{Path: "b.py", Kind: Modified},
		{Path: "a.py", Kind: Deleted},
		{Path: "c.py", Kind: Created},
		{Path: "d.py", Kind: Deleted},
	}
	out := orderForBatch(in)
	require.Len(t, out, 4)
	assert.Equal(t, Deleted, out[0].Kind)
	assert.Equal(t, Deleted, out[1].Kind)
	assert.Equal(t, Created, out[2].Kind)
	assert.Equal(t, Modified, out[3].Kind)
	// within the Deleted group, original relative order (a before d) holds.
	assert.Equal(t, "a.py", out[0].Path)
	assert.Equal(t, "d.py", out[1].Path)
}

func TestScheduler_CoalescesRapidEdits(t *testing.T) {
	s := NewScheduler(20*time.Millisecond, 10)
	s.Feed(Event{Path: "a.py", Kind: Modified})
	time.Sleep(5 * time.Millisecond)
	s.Feed(Event{Path: "a.py", Kind: Modified})

	select {
	case b := <-s.Batches():
		require.Len(t, b.Events, 1)
		assert.Equal(t, "a.py", b.Events[0].Path)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timed out waiting for coalesced batch")
	}
}

func TestScheduler_CutsBatchAtBatchSize(t *testing.T) {
	s := NewScheduler(time.Hour, 2)
	s.Feed(Event{Path: "a.py", Kind: Modified})
	s.Feed(Event{Path: "b.py", Kind: Modified})

	select {
	case b := <-s.Batches():
		assert.Len(t, b.Events, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("expected immediate batch once batch_size reached")
	}
}
