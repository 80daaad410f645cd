package watch

import (
	"sync"
	"time"
)

// Scheduler coalesces per-file events after a quiescence delay and groups
// the result into batches bounded by size, generalizing cmd/watch.go's
// single pending-map-plus-timer pair (which flushed everything after one
// fixed 300ms debounce) into the spec §4.4 contract: each file gets its own
// quiescence window, and a full batch is cut as soon as batchSize distinct
// files are pending.
type Scheduler struct {
	quiescence time.Duration
	batchSize  int

	mu      sync.Mutex
	pending map[string]Event
	order   []string
	timers  map[string]*time.Timer

	out     chan Batch
	refresh chan struct{}
	stop    chan struct{}
	done    chan struct{}
}

// NewScheduler builds a Scheduler that emits Batches on Batches().
func NewScheduler(quiescence time.Duration, batchSize int) *Scheduler {
	return &Scheduler{
		quiescence: quiescence,
		batchSize:  batchSize,
		pending:    make(map[string]Event),
		timers:     make(map[string]*time.Timer),
		out:        make(chan Batch, 8),
		refresh:    make(chan struct{}, 1),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Batches yields coalesced, ordered batches ready for the worker pool.
func (s *Scheduler) Batches() <-chan Batch { return s.out }

// Feed enqueues a raw event, resetting that file's quiescence timer (spec
// §4.4: "quiescence delay... with no new events for the same file").
func (s *Scheduler) Feed(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.pending[ev.Path]; !exists {
		s.order = append(s.order, ev.Path)
	}
	s.pending[ev.Path] = ev
	if t, ok := s.timers[ev.Path]; ok {
		t.Stop()
	}
	s.timers[ev.Path] = time.AfterFunc(s.quiescence, func() { s.settle(ev.Path) })

	if len(s.pending) >= s.batchSize {
		s.flushLocked()
	}
}

// settle moves a file out of quiescence and flushes a batch once every
// pending file has settled, or once batchSize files are pending regardless
// of per-file quiescence (spec §4.4: "larger bursts split across batches").
func (s *Scheduler) settle(path string) {
	s.mu.Lock()
	delete(s.timers, path)
	if len(s.pending) >= s.batchSize || s.allSettled() {
		s.flushLocked()
	}
	s.mu.Unlock()
}

func (s *Scheduler) allSettled() bool {
	return len(s.timers) == 0 && len(s.pending) > 0
}

// flushLocked must be called with mu held. It drains up to batchSize
// pending events (oldest-enqueued first) into one ordered Batch.
func (s *Scheduler) flushLocked() {
	if len(s.order) == 0 {
		return
	}
	n := len(s.order)
	if n > s.batchSize {
		n = s.batchSize
	}
	take := s.order[:n]
	s.order = s.order[n:]

	events := make([]Event, 0, n)
	for _, p := range take {
		ev, ok := s.pending[p]
		if !ok {
			continue
		}
		delete(s.pending, p)
		if t, ok := s.timers[p]; ok {
			t.Stop()
			delete(s.timers, p)
		}
		events = append(events, ev)
	}
	s.out <- Batch{Events: orderForBatch(events)}
}

// Refresh forces a full re-scan batch to be requested from the caller (the
// caller — the daemon supervisor — is what actually knows the set of
// eligible files on disk; Scheduler only signals the intent per spec §4.4
// "refresh signal forces a full re-scan... after draining").
func (s *Scheduler) Refresh() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

// RefreshRequested yields on every Refresh call.
func (s *Scheduler) RefreshRequested() <-chan struct{} { return s.refresh }

// Stop drains any in-flight quiescence timers into final batches (each of
// at most batchSize events) and closes
// the output channel (spec §4.4 Cancellation: "A stop signal drains the
// current in-flight batch, then exits").
func (s *Scheduler) Stop() {
	s.mu.Lock()
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = make(map[string]*time.Timer)
	for len(s.pending) > 0 {
		s.flushLocked()
	}
	s.mu.Unlock()
	close(s.out)
}
