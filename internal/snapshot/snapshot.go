// Package snapshot serializes the Graph Store and cluster artifacts to the
// on-disk graph directory (spec §4.3, C3), grounded in
// rohankatakam-coderisk's identity_resolver.go bbolt cache-bucket pattern
// for the structured node/edge/metrics store, and in cmd/watch.go's
// writeJSONFile for the human-legible JSON artifacts — generalized from a
// single os.Create (no atomicity) into temp-file-then-rename so a reader
// never observes a partially-written artifact (spec I5).
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/codegraphd/codegraphd/internal/cluster"
	"github.com/codegraphd/codegraphd/internal/graphcore"
	"github.com/codegraphd/codegraphd/internal/metrics"
)

var (
	bucketNodesByLanguage = []byte("nodes_by_language")
	bucketEdges           = []byte("edges")
	bucketMetrics         = []byte("metrics")
)

// Writer owns the graph directory and is the only component permitted to
// write to it (spec §5 Shared-resource policy).
type Writer struct {
	dir string
}

// New returns a Writer rooted at dir, creating it if necessary.
func New(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot: creating graph dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "clusters"), 0o755); err != nil {
		return nil, fmt.Errorf("snapshot: creating clusters dir: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Dir returns the graph directory path.
func (w *Writer) Dir() string { return w.dir }

// dbPath is the bbolt-backed structured artifact: nodes_by_language, edges,
// metrics buckets (spec §4.3 Format: "structured (key-value records with
// type-tagged edges)").
func (w *Writer) dbPath() string { return filepath.Join(w.dir, "graph.db") }

// supergraphPath is the JSON super-graph artifact (spec §6).
func (w *Writer) supergraphPath() string { return filepath.Join(w.dir, "supergraph.json") }

func (w *Writer) clusterPath(id string) string {
	return filepath.Join(w.dir, "clusters", id+".json")
}

// Write persists the full store + cluster result atomically. Per spec I5
// the snapshot directory must never be observed half-written: the bbolt
// database is rewritten to a fresh temp file and renamed into place, and
// every JSON artifact goes through the same temp-then-rename discipline.
func (w *Writer) Write(store *graphcore.Store, clusterResult cluster.Result, m *metrics.Metrics) error {
	if err := w.writeDB(store, m); err != nil {
		return fmt.Errorf("snapshot: writing graph.db: %w", err)
	}
	if err := w.writeSupergraph(clusterResult); err != nil {
		return fmt.Errorf("snapshot: writing supergraph.json: %w", err)
	}
	if err := w.writeClusterMembership(clusterResult); err != nil {
		return fmt.Errorf("snapshot: writing cluster membership: %w", err)
	}
	return nil
}

func (w *Writer) writeDB(store *graphcore.Store, m *metrics.Metrics) error {
	tmp := w.dbPath() + ".tmp"
	os.Remove(tmp)
	db, err := bolt.Open(tmp, 0o644, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		nb, err := tx.CreateBucketIfNotExists(bucketNodesByLanguage)
		if err != nil {
			return err
		}
		byLang := map[string][]graphcore.FileNode{}
		for _, n := range store.Nodes(nil) {
			byLang[n.Language] = append(byLang[n.Language], n)
		}
		for lang, nodes := range byLang {
			data, err := json.Marshal(nodes)
			if err != nil {
				return err
			}
			if err := nb.Put([]byte(lang), data); err != nil {
				return err
			}
		}

		eb, err := tx.CreateBucketIfNotExists(bucketEdges)
		if err != nil {
			return err
		}
		data, err := json.Marshal(edgeRecords(store.Edges(nil)))
		if err != nil {
			return err
		}
		if err := eb.Put([]byte("all"), data); err != nil {
			return err
		}

		mb, err := tx.CreateBucketIfNotExists(bucketMetrics)
		if err != nil {
			return err
		}
		snap := m.Snapshot()
		data, err = json.Marshal(snap)
		if err != nil {
			return err
		}
		return mb.Put([]byte("current"), data)
	})
	if err != nil {
		db.Close()
		os.Remove(tmp)
		return err
	}
	if err := db.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, w.dbPath())
}

// edgeRecord is the JSON-friendly, type-tagged edge shape stored in the
// bbolt edges bucket (spec §4.3 Format: "type-tagged edges").
type edgeRecord struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Resolved bool   `json:"resolved"`
	Type     string `json:"type"`
	Weight   int    `json:"weight"`
	Line     int    `json:"line"`
}

func edgeRecords(edges []graphcore.Edge) []edgeRecord {
	out := make([]edgeRecord, 0, len(edges))
	for _, e := range edges {
		rec := edgeRecord{Source: e.Source, Type: e.Type.String(), Weight: e.Weight, Line: e.Line}
		if path, ok := e.Target.Resolved(); ok {
			rec.Target = path
			rec.Resolved = true
		} else {
			rec.Target = e.Target.Spec()
		}
		out = append(out, rec)
	}
	return out
}

func atomicWriteJSON(path string, v interface{}) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
