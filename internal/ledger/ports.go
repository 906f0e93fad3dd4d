// Package ledger implements the shared-ledger persistence model: one table
// holding every owner's movements, partitioned by the Usuario column, with a
// whole-table rewrite as the only write path.
package ledger

import (
	"context"
	"errors"
)

var (
	// ErrStoreUnavailable wraps backend reachability failures
	// (authorization, network, closed database). No partial write has
	// happened when this surfaces.
	ErrStoreUnavailable = errors.New("ledger store unavailable")

	// ErrStaleWrite is returned by backends able to detect a concurrent
	// writer between read and write. Callers must reload and retry the
	// whole save.
	ErrStaleWrite = errors.New("ledger modified by a concurrent writer")
)

// Table is the raw content of a tabular backend: a header row and data rows
// of untyped cells. Cell text is preserved verbatim so rewriting the table
// never alters rows the caller did not touch.
type Table struct {
	Header []string
	Rows   [][]string
}

// Empty reports whether the backend holds no header and no data.
func (t Table) Empty() bool {
	return len(t.Header) == 0 && len(t.Rows) == 0
}

// Ports for outbound adapters. None of them is assumed to provide
// transactional semantics.
type (
	// TableBackend is a spreadsheet-like service or local file holding the
	// shared ledger table.
	TableBackend interface {
		ReadAllRows(ctx context.Context) (Table, error)
		// WriteAllRows replaces the entire backend content. Combined with
		// ReadAllRows this forms a read-modify-write that is NOT safe
		// under concurrent writers; see Store.SaveForOwner.
		WriteAllRows(ctx context.Context, t Table) error
		AppendRow(ctx context.Context, row []string) error
	}

	// OwnerRegistry records every owner identifier ever seen. It is
	// informational only: duplicates are a tolerable failure mode, not
	// corruption.
	OwnerRegistry interface {
		ListKnownOwners(ctx context.Context) ([]string, error)
		AppendOwner(ctx context.Context, owner string) error
	}
)
