package daemonsup

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/codegraphd/codegraphd/internal/cluster"
	"github.com/codegraphd/codegraphd/internal/config"
	"github.com/codegraphd/codegraphd/internal/errs"
	"github.com/codegraphd/codegraphd/internal/extract"
	"github.com/codegraphd/codegraphd/internal/graphcore"
	"github.com/codegraphd/codegraphd/internal/hashutil"
	"github.com/codegraphd/codegraphd/internal/ignore"
	"github.com/codegraphd/codegraphd/internal/metrics"
	"github.com/codegraphd/codegraphd/internal/snapshot"
	"github.com/codegraphd/codegraphd/internal/watch"
)

// Supervisor owns the daemon's lifecycle: lock acquisition, initial scan,
// watcher/scheduler/pool wiring, signal handling, and periodic snapshotting
// (spec §4.7, C7).
type Supervisor struct {
	cfg  config.Config
	log  *logrus.Entry
	lock *Lock

	store       *graphcore.Store
	registry    *extract.Registry
	hashes      *hashutil.Tracker
	metrics     *metrics.Metrics
	snapshotter *snapshot.Writer

	watcher   *watch.Watcher
	scheduler *watch.Scheduler
	pool      *watch.Pool

	lastClusterNodeCount int
	lastClusterResult    cluster.Result
}

// New builds a Supervisor for cfg, acquiring the daemon lock.
func New(cfg config.Config) (*Supervisor, error) {
	logger := logrus.New()
	log := logger.WithField("component", "daemonsup")

	graphDir := filepath.Join(cfg.Root, cfg.GraphDir)
	lock, err := Acquire(graphDir)
	if err != nil {
		return nil, err
	}

	snap, err := snapshot.New(graphDir)
	if err != nil {
		lock.Release()
		return nil, errs.New(errs.SnapshotFailed, graphDir, err)
	}

	store := graphcore.New()
	m := metrics.New()
	registry := extract.NewRegistry()
	hashes := hashutil.NewTracker()
	matcher := ignore.New(cfg.IgnorePatterns)

	watchRoot, err := filepath.Abs(cfg.Root)
	if err != nil {
		lock.Release()
		return nil, err
	}
	watcher, err := watch.New(watchRoot, matcher, log)
	if err != nil {
		lock.Release()
		return nil, err
	}
	scheduler := watch.NewScheduler(cfg.QuiescenceDelay(), cfg.BatchSize)
	pool := watch.NewPool(cfg.Root, store, registry, hashes, m, log, cfg.WorkerParallelism, cfg.ExtractTimeout())

	return &Supervisor{
		cfg: cfg, log: log, lock: lock,
		store: store, registry: registry, hashes: hashes, metrics: m, snapshotter: snap,
		watcher: watcher, scheduler: scheduler, pool: pool,
	}, nil
}

// Run performs the initial scan, starts the watcher, and blocks in the
// event loop until ctx is cancelled or a stop signal arrives (spec §4.7
// Lifecycle, §4.4).
func (s *Supervisor) Run(ctx context.Context) error {
	defer s.lock.Release()

	if err := s.scan(ctx, watch.Created); err != nil {
		s.log.WithError(err).Error("initial scan failed")
	}
	s.maybeRecluster(true)
	s.snapshotNow()

	sig := make(chan os.Signal, 2)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sig)

	go s.watcher.Run()
	go s.feedScheduler(ctx)

	for {
		select {
		case <-ctx.Done():
			s.drainAndStop()
			return nil
		case osSig := <-sig:
			switch osSig {
			case syscall.SIGHUP:
				s.scheduler.Refresh()
			default:
				s.drainAndStop()
				return nil
			}
		case b, ok := <-s.scheduler.Batches():
			if !ok {
				return nil
			}
			s.processBatch(ctx, b)
		case <-s.scheduler.RefreshRequested():
			// Drain the batches already cut, then re-scan in the loop so
			// the re-scan never runs alongside another batch.
		drain:
			for {
				select {
				case b, ok := <-s.scheduler.Batches():
					if !ok {
						break drain
					}
					s.processBatch(ctx, b)
				default:
					break drain
				}
			}
			s.scan(ctx, watch.Modified)
		case <-s.watcher.Lost():
			s.log.Warn("watcher subsystem disconnected; falling back to periodic full-scan mode")
			go s.periodicRescan(ctx)
		}
	}
}

func (s *Supervisor) feedScheduler(ctx context.Context) {
	for {
		select {
		case ev, ok := <-s.watcher.Events():
			if !ok {
				return
			}
			s.scheduler.Feed(ev)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Supervisor) processBatch(ctx context.Context, b watch.Batch) {
	errBatch := s.pool.Run(ctx, b)
	for _, err := range errBatch.Errors() {
		s.log.WithError(err).Warn("batch extraction error")
	}
	s.maybeRecluster(false)
	s.snapshotNow()
}

// drainAndStop implements spec §4.7 Signals "stop": drain, snapshot,
// release lock (deferred in Run), exit zero.
func (s *Supervisor) drainAndStop() {
	s.scheduler.Stop()
	for b := range s.scheduler.Batches() {
		s.pool.Run(context.Background(), b)
	}
	s.watcher.Close()
	s.maybeRecluster(true)
	s.snapshotNow()
}

// scan walks the repository root, enqueuing every watched, non-ignored
// file as an event of kind (Created for the startup scan, Modified for a
// forced refresh per spec §4.7 "refresh signal forces a full re-scan...
// after draining").
func (s *Supervisor) scan(ctx context.Context, kind watch.Kind) error {
	matcher := ignore.New(s.cfg.IgnorePatterns)
	var events []watch.Event
	err := filepath.WalkDir(s.cfg.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(s.cfg.Root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if matcher.Match(rel) {
			return nil
		}
		if !s.registry.Watched(rel) {
			return nil
		}
		events = append(events, watch.Event{Path: rel, Kind: kind})
		return nil
	})
	if err != nil {
		return err
	}
	for i := 0; i < len(events); i += s.cfg.BatchSize {
		end := i + s.cfg.BatchSize
		if end > len(events) {
			end = len(events)
		}
		s.pool.Run(ctx, watch.Batch{Events: events[i:end]})
	}
	return nil
}

func (s *Supervisor) periodicRescan(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.scan(ctx, watch.Modified)
			s.maybeRecluster(false)
			s.snapshotNow()
		}
	}
}

// maybeRecluster applies the spec §4.6 regeneration policy unless force is
// set (used on startup and shutdown so the snapshot always reflects a
// just-computed cluster assignment).
func (s *Supervisor) maybeRecluster(force bool) {
	n := s.store.Len()
	if !force && !cluster.ShouldRegenerate(s.lastClusterNodeCount, n) {
		return
	}
	opt := cluster.DefaultOptions()
	opt.TargetReduction = s.cfg.TargetReduction
	opt.MinClusterSize = s.cfg.MinClusterSize
	opt.MaxClusters = s.cfg.MaxClusters
	opt.SmallProjectThreshold = s.cfg.SmallProjectThreshold
	opt.Resolution = s.cfg.Resolution
	s.lastClusterResult = cluster.Compute(s.store, opt)
	s.lastClusterNodeCount = n
}

// errorRateThreshold and queueDepthMultiplier aren't exposed as spec §6
// options; these mirror the memory_warn_mb style of a conservative fixed
// default for the other two health checks in spec §4.7.
const (
	errorRateThreshold   = 0.1
	queueDepthMultiplier = 10
)

func (s *Supervisor) snapshotNow() {
	if err := s.snapshotter.Write(s.store, s.lastClusterResult, s.metrics); err != nil {
		s.log.WithError(err).Error("snapshot write failed")
	}
	warnings := s.metrics.CheckHealth(s.cfg.MemoryWarnMB, errorRateThreshold, int64(s.cfg.BatchSize*queueDepthMultiplier))
	for _, w := range warnings {
		s.log.WithField("kind", w.Kind).Warn(w.Detail)
	}
}

// Store exposes the live Graph Store for the query/control API (C8).
func (s *Supervisor) Store() *graphcore.Store { return s.store }

// Metrics exposes the running metrics counters for the query/control API.
func (s *Supervisor) Metrics() *metrics.Metrics { return s.metrics }

// ClusterResult returns the most recently computed cluster assignment.
func (s *Supervisor) ClusterResult() cluster.Result { return s.lastClusterResult }

// Refresh enqueues a full re-scan (spec §4.7 Signals "refresh").
func (s *Supervisor) Refresh() { s.scheduler.Refresh() }
