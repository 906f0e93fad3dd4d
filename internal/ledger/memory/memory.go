// Package memory is an in-memory tabular backend for tests and local
// development. It keeps raw rows exactly as written, like a real sheet.
package memory

import (
	"context"
	"sync"

	"registro/internal/ledger"
)

type Store struct {
	mu     sync.Mutex
	table  ledger.Table
	owners []string
}

var (
	_ ledger.TableBackend  = (*Store)(nil)
	_ ledger.OwnerRegistry = (*Store)(nil)
)

func New() *Store {
	return &Store{}
}

// Seed replaces the whole table, header included. Test helper.
func (s *Store) Seed(t ledger.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = copyTable(t)
}

func (s *Store) ReadAllRows(_ context.Context) (ledger.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyTable(s.table), nil
}

func (s *Store) WriteAllRows(_ context.Context, t ledger.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = copyTable(t)
	return nil
}

func (s *Store) AppendRow(_ context.Context, row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table.Rows = append(s.table.Rows, append([]string(nil), row...))
	return nil
}

func (s *Store) ListKnownOwners(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.owners...), nil
}

func (s *Store) AppendOwner(_ context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owners = append(s.owners, owner)
	return nil
}

func copyTable(t ledger.Table) ledger.Table {
	out := ledger.Table{Header: append([]string(nil), t.Header...)}
	for _, row := range t.Rows {
		out.Rows = append(out.Rows, append([]string(nil), row...))
	}
	return out
}
