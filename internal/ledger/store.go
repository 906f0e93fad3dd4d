package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"registro/internal/core"
)

// Store is the persistence abstraction over a shared tabular backend. One
// table holds every owner's movements; the set of rows for a single owner is
// the only mutable unit during a write.
type Store struct {
	backend     TableBackend
	registry    OwnerRegistry // nil in single-tenant deployments
	multiTenant bool
}

// NewStore wires a store over a backend. registry may be nil when the whole
// backend belongs to one user.
func NewStore(backend TableBackend, registry OwnerRegistry, multiTenant bool) *Store {
	return &Store{backend: backend, registry: registry, multiTenant: multiTenant}
}

// LoadAll reads every row currently in the backend. Rows whose date fails to
// parse are retained with an invalid-date marker rather than dropped.
func (s *Store) LoadAll(ctx context.Context) ([]core.Movement, error) {
	all, _, err := s.decodeAll(ctx)
	return all, err
}

func (s *Store) decodeAll(ctx context.Context) ([]core.Movement, Layout, error) {
	t, err := s.backend.ReadAllRows(ctx)
	if err != nil {
		return nil, Layout{}, fmt.Errorf("read ledger table: %w", err)
	}
	if t.Empty() {
		return nil, Layout{}, nil
	}
	layout, err := ResolveLayout(t.Header)
	if err != nil {
		return nil, Layout{}, err
	}
	out := make([]core.Movement, 0, len(t.Rows))
	for _, row := range t.Rows {
		if blankRow(row) {
			continue
		}
		out = append(out, layout.Decode(row))
	}
	return out, layout, nil
}

// LoadForOwner returns the owner's partition of the ledger. When the table
// carries no Usuario column the whole store belongs to one user and every
// row is returned, whatever the configured tenancy says.
func (s *Store) LoadForOwner(ctx context.Context, owner string) ([]core.Movement, error) {
	all, layout, err := s.decodeAll(ctx)
	if err != nil {
		return nil, err
	}
	if !s.multiTenant || !layout.HasOwner() {
		return all, nil
	}
	out := make([]core.Movement, 0, len(all))
	for _, m := range all {
		if sameOwner(m.Owner, owner) {
			out = append(out, m)
		}
	}
	return out, nil
}

// SaveForOwner replaces the owner's partition with rows and rewrites the
// whole backend content: it reads the full table, drops every raw row whose
// Usuario equals owner, appends the given rows re-labeled with owner, and
// writes the union back. Rows of other owners are carried through
// byte-for-byte, never re-encoded.
//
// This is a read-modify-write over the entire backend, not a targeted
// update. Two concurrent writers can lose an update; backends able to detect
// that return ErrStaleWrite and the caller must reload and retry.
func (s *Store) SaveForOwner(ctx context.Context, owner string, rows []core.Movement) error {
	t, err := s.backend.ReadAllRows(ctx)
	if err != nil {
		return fmt.Errorf("read ledger table: %w", err)
	}
	header := t.Header
	if len(header) == 0 {
		header = DefaultHeader(s.multiTenant)
	}
	layout, err := ResolveLayout(header)
	if err != nil {
		return err
	}
	// A multi-tenant rewrite over a table with no Usuario column cannot
	// tell the owner's rows from anyone else's. Refusing is the only safe
	// answer; rewriting would wipe every historic row.
	if s.multiTenant && !layout.HasOwner() {
		return fmt.Errorf("ledger header has no %s column; refusing to rewrite an unpartitioned table", ColOwner)
	}

	var union [][]string
	if s.multiTenant {
		for _, row := range t.Rows {
			if blankRow(row) || sameOwner(cellAt(row, layout.owner), owner) {
				continue
			}
			union = append(union, row)
		}
	}
	for _, m := range rows {
		m.Owner = ""
		if s.multiTenant {
			m.Owner = owner
		}
		union = append(union, layout.Encode(m))
	}

	if err := s.backend.WriteAllRows(ctx, Table{Header: header, Rows: union}); err != nil {
		return fmt.Errorf("rewrite ledger table: %w", err)
	}
	slog.InfoContext(ctx, "Ledger partition saved",
		"owner", owner,
		"partition_rows", len(rows),
		"table_rows", len(union))
	return nil
}

// RegisterOwnerIfNew appends owner to the registry on first sighting. The
// registry is informational only, so a failure is logged and swallowed: a
// duplicate or missing entry must never block a ledger write.
func (s *Store) RegisterOwnerIfNew(ctx context.Context, owner string) {
	if s.registry == nil {
		return
	}
	known, err := s.registry.ListKnownOwners(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Owner registry read failed", "owner", owner, "error", err)
		return
	}
	for _, k := range known {
		if sameOwner(k, owner) {
			return
		}
	}
	if err := s.registry.AppendOwner(ctx, owner); err != nil {
		slog.WarnContext(ctx, "Owner registry append failed", "owner", owner, "error", err)
	}
}

func sameOwner(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
