package watch

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/codegraphd/codegraphd/internal/errs"
	"github.com/codegraphd/codegraphd/internal/extract"
	"github.com/codegraphd/codegraphd/internal/graphcore"
	"github.com/codegraphd/codegraphd/internal/hashutil"
	"github.com/codegraphd/codegraphd/internal/metrics"
)

// Pool runs extraction for a batch's events with bounded concurrency
// (golang.org/x/sync/errgroup, per spec §5's "bounded worker pool that runs
// extractors in parallel") and applies the resulting deltas to the Graph
// Store. Deletions are applied first within the batch per spec §4.4/§5;
// creations and modifications both resolve to an apply_delta call, so
// within that second group order does not matter for store correctness.
type Pool struct {
	root     string
	store    *graphcore.Store
	registry *extract.Registry
	hashes   *hashutil.Tracker
	metrics  *metrics.Metrics
	log      *logrus.Entry

	parallelism int
	timeout     time.Duration
}

// NewPool builds an extraction Pool.
func NewPool(root string, store *graphcore.Store, registry *extract.Registry, hashes *hashutil.Tracker, m *metrics.Metrics, log *logrus.Entry, parallelism int, timeout time.Duration) *Pool {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Pool{
		root: root, store: store, registry: registry, hashes: hashes, metrics: m, log: log,
		parallelism: parallelism, timeout: timeout,
	}
}

// Run processes one Batch: deletions are applied serially first (removing
// a node must happen before anything that might re-add it in the same
// batch observes stale state), then creations/modifications are extracted
// concurrently and applied through a single-threaded applier, preserving
// the spec §4.2 atomic-replace contract on the store.
func (p *Pool) Run(ctx context.Context, b Batch) *errs.Batch {
	errBatch := &errs.Batch{}

	var deletions, rest []Event
	for _, ev := range b.Events {
		if ev.Kind == Deleted {
			deletions = append(deletions, ev)
		} else {
			rest = append(rest, ev)
		}
	}

	for _, ev := range deletions {
		p.store.RemoveFile(ev.Path)
		p.hashes.Forget(ev.Path)
	}

	type result struct {
		path string
		rec  extract.Record
		skip bool
		err  error
	}
	results := make(chan result, len(rest))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.parallelism)
	for _, ev := range rest {
		ev := ev
		g.Go(func() error {
			rec, skip, err := p.extractOne(gctx, ev)
			results <- result{path: ev.Path, rec: rec, skip: skip, err: err}
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	for r := range results {
		if r.err != nil {
			p.metrics.RecordError()
			errBatch.Add(errs.New(errs.ExtractFailed, r.path, r.err))
			continue
		}
		if r.skip {
			continue
		}
		for _, w := range r.rec.Warnings {
			p.log.WithField("file", w.File).Warn(w.Reason)
		}
		start := time.Now()
		p.store.ApplyDelta(r.path, r.rec.ToDelta())
		p.metrics.RecordUpdate(time.Now(), time.Since(start))
	}
	p.store.ResolveAll()
	return errBatch
}

// extractOne reads and extracts one file, skip=true meaning the content
// hash was unchanged since the last extraction and no apply_delta call
// should happen at all (an empty delta would otherwise wipe the file's
// real edges).
func (p *Pool) extractOne(ctx context.Context, ev Event) (rec extract.Record, skip bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	abs := filepath.Join(p.root, ev.Path)
	content, err := os.ReadFile(abs)
	if err != nil {
		return extract.Record{}, false, err
	}
	if !p.hashes.Changed(ev.Path, content) {
		return extract.Record{}, true, nil
	}

	done := make(chan extract.Record, 1)
	go func() {
		done <- p.registry.Extract(ev.Path, content)
	}()
	select {
	case r := <-done:
		return r, false, nil
	case <-ctx.Done():
		return extract.Record{}, false, ctx.Err()
	}
}
