// Package errs enumerates the structured error kinds the daemon and API
// surface to callers (spec §7), grounded in rohankatakam-coderisk's
// internal/mcp error-tagging (a Kind string travels with every failure so
// the control API and logs can key off it without parsing messages) and
// composed with go.uber.org/multierr to aggregate per-file extraction
// failures into one batch error.
package errs

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Kind tags a failure with the spec §7 error taxonomy.
type Kind string

const (
	ExtractFailed    Kind = "extract_failed"
	StoreUnavailable Kind = "store_unavailable"
	SnapshotFailed   Kind = "snapshot_failed"
	LockHeld         Kind = "lock_held"
	WatcherLost      Kind = "watcher_lost"
	QueryBadInput    Kind = "query_bad_input"
	UnknownFile      Kind = "unknown_file"
)

// Error wraps an underlying cause with a Kind and the file/path it concerns,
// if any.
type Error struct {
	Kind Kind
	File string
	Err  error
}

func (e *Error) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.File, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error for kind, optionally scoped to a file.
func New(kind Kind, file string, err error) *Error {
	return &Error{Kind: kind, File: file, Err: err}
}

// KindOf extracts the Kind of err if it (or something it wraps) is an
// *Error, reporting ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Batch accumulates per-file errors during a scan or watch batch. Policy per
// spec §4.4/§7: extraction failures on individual files never abort the
// batch — they're recorded as warnings and the batch continues — so Batch
// is purely additive bookkeeping, never a short-circuiting return early.
type Batch struct {
	err error
}

func (b *Batch) Add(err error) {
	if err == nil {
		return
	}
	b.err = multierr.Append(b.err, err)
}

// Err returns the accumulated error, or nil if nothing failed.
func (b *Batch) Err() error {
	return b.err
}

// Errors returns the individual errors that were added.
func (b *Batch) Errors() []error {
	return multierr.Errors(b.err)
}
