// Package daemonsup implements the single-instance lock, signal handling,
// and health reporting of spec §4.7 (C7), grounded in
// agentic-research-mache's cmd/mount.go PID-liveness check
// (os.FindProcess + signal 0) and cmd/agent.go's isProcessRunning helper,
// generalized from a one-shot CLI's unmount command into the daemon's own
// startup lock acquisition.
package daemonsup

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/codegraphd/codegraphd/internal/errs"
)

// Lock is the exclusive PID lock file under the graph directory (spec §4.7
// Lifecycle, §6 "a lock file containing the daemon PID").
type Lock struct {
	path string
}

func lockPath(graphDir string) string { return filepath.Join(graphDir, "daemon.lock") }

// Acquire creates the lock file for graphDir, refusing to start if the
// lock exists and its referenced process is alive; a stale lock (dead
// process) is cleaned up and replaced.
func Acquire(graphDir string) (*Lock, error) {
	if err := os.MkdirAll(graphDir, 0o755); err != nil {
		return nil, err
	}
	path := lockPath(graphDir)

	if pid, ok := readPID(path); ok {
		if isProcessRunning(pid) {
			return nil, errs.New(errs.LockHeld, path, fmt.Errorf("daemon already running with pid %d", pid))
		}
		// Stale lock: prior process is gone, safe to reclaim.
		os.Remove(path)
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return nil, fmt.Errorf("daemonsup: writing lock file: %w", err)
	}
	return &Lock{path: path}, nil
}

// Release removes the lock file. Called on clean shutdown (spec §4.7
// Signals: "stop -> drain, snapshot, release lock, exit zero").
func (l *Lock) Release() error {
	return os.Remove(l.path)
}

func readPID(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(string(data))
	if err != nil {
		return 0, false
	}
	return pid, true
}

// isProcessRunning reports whether pid names a live process, using the
// signal-0 liveness probe (os.FindProcess always succeeds on Unix; the
// probe is the actual check).
func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
