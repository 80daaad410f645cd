package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/codegraphd/codegraphd/internal/graphcore"
	"github.com/codegraphd/codegraphd/internal/metrics"
)

// Reader opens the current snapshot read-only, for external peers per spec
// §4.3 ("A reader may at any moment open the current snapshot and see a
// consistent view").
type Reader struct {
	dir string
	db  *bolt.DB
}

// Open opens the graph.db artifact under dir read-only.
func Open(dir string) (*Reader, error) {
	path := (&Writer{dir: dir}).dbPath()
	db, err := bolt.Open(path, 0o444, &bolt.Options{ReadOnly: true, Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("snapshot: opening %s: %w", path, err)
	}
	return &Reader{dir: dir, db: db}, nil
}

// Close releases the underlying database handle.
func (r *Reader) Close() error { return r.db.Close() }

// NodesByLanguage returns the persisted per-language node listings.
func (r *Reader) NodesByLanguage() (map[string][]graphcore.FileNode, error) {
	out := map[string][]graphcore.FileNode{}
	err := r.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNodesByLanguage)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var nodes []graphcore.FileNode
			if err := json.Unmarshal(v, &nodes); err != nil {
				return err
			}
			out[string(k)] = nodes
			return nil
		})
	})
	return out, err
}

// Edges returns the persisted edge listing.
func (r *Reader) Edges() ([]edgeRecord, error) {
	var out []edgeRecord
	err := r.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEdges)
		if b == nil {
			return nil
		}
		data := b.Get([]byte("all"))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &out)
	})
	return out, err
}

// Metrics returns the persisted metrics snapshot.
func (r *Reader) Metrics() (metrics.Snapshot, error) {
	var out metrics.Snapshot
	err := r.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketMetrics)
		if b == nil {
			return nil
		}
		data := b.Get([]byte("current"))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &out)
	})
	return out, err
}

// LockInfo describes the daemon lock file's contents.
type LockInfo struct {
	PID int
}

// ReadLock reads the plain-text PID lock file (spec §6: "a lock file
// containing the daemon PID (plain text)").
func ReadLock(dir string) (LockInfo, bool, error) {
	path := lockPath(dir)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return LockInfo{}, false, nil
		}
		return LockInfo{}, false, err
	}
	var pid int
	if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil {
		return LockInfo{}, false, fmt.Errorf("snapshot: malformed lock file: %w", err)
	}
	return LockInfo{PID: pid}, true, nil
}

func lockPath(dir string) string {
	return filepath.Join(dir, "daemon.lock")
}
