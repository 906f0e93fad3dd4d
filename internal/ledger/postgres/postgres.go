// Package postgres is a multi-tenant ledger backend on PostgreSQL. Unlike
// the spreadsheet backend it can detect a concurrent writer: every rewrite
// checks a version token and fails with ErrStaleWrite instead of silently
// overwriting another session's save.
package postgres

import (
	"context"
	"fmt"
	"sync"

	"registro/internal/ledger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Backend struct {
	pool *pgxpool.Pool

	// version last seen by ReadAllRows; the token for the next rewrite.
	mu      sync.Mutex
	version int64
}

var (
	_ ledger.TableBackend  = (*Backend)(nil)
	_ ledger.OwnerRegistry = (*Backend)(nil)
)

const schema = `
CREATE TABLE IF NOT EXISTS movements (
    id BIGSERIAL PRIMARY KEY,
    fecha TEXT NOT NULL DEFAULT '',
    tipo TEXT NOT NULL DEFAULT '',
    categoria TEXT NOT NULL DEFAULT '',
    descripcion TEXT NOT NULL DEFAULT '',
    monto TEXT NOT NULL DEFAULT '',
    usuario TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS ledger_meta (
    id INT PRIMARY KEY CHECK (id = 1),
    version BIGINT NOT NULL DEFAULT 0
);
INSERT INTO ledger_meta (id, version) VALUES (1, 0) ON CONFLICT (id) DO NOTHING;
CREATE TABLE IF NOT EXISTS owners (
    email TEXT NOT NULL,
    first_seen TIMESTAMPTZ NOT NULL DEFAULT now()
);`

func New(ctx context.Context, url string) (*Backend, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ensure schema: %v", ledger.ErrStoreUnavailable, err)
	}
	return &Backend{pool: pool}, nil
}

func (b *Backend) Close() {
	b.pool.Close()
}

func (b *Backend) ReadAllRows(ctx context.Context) (ledger.Table, error) {
	tx, err := b.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return ledger.Table{}, fmt.Errorf("%w: begin read: %v", ledger.ErrStoreUnavailable, err)
	}
	defer tx.Rollback(ctx)

	var version int64
	if err := tx.QueryRow(ctx, `SELECT version FROM ledger_meta WHERE id = 1`).Scan(&version); err != nil {
		return ledger.Table{}, fmt.Errorf("%w: read version: %v", ledger.ErrStoreUnavailable, err)
	}

	rows, err := tx.Query(ctx,
		`SELECT fecha, tipo, categoria, descripcion, monto, usuario FROM movements ORDER BY id`)
	if err != nil {
		return ledger.Table{}, fmt.Errorf("%w: select movements: %v", ledger.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	t := ledger.Table{Header: ledger.DefaultHeader(true)}
	for rows.Next() {
		cells := make([]string, 6)
		if err := rows.Scan(&cells[0], &cells[1], &cells[2], &cells[3], &cells[4], &cells[5]); err != nil {
			return ledger.Table{}, fmt.Errorf("scan movement row: %w", err)
		}
		t.Rows = append(t.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return ledger.Table{}, fmt.Errorf("%w: iterate movements: %v", ledger.ErrStoreUnavailable, err)
	}

	b.mu.Lock()
	b.version = version
	b.mu.Unlock()
	return t, nil
}

// WriteAllRows rewrites the table only if nobody wrote since the last read.
func (b *Backend) WriteAllRows(ctx context.Context, t ledger.Table) error {
	b.mu.Lock()
	expected := b.version
	b.mu.Unlock()

	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin rewrite: %v", ledger.ErrStoreUnavailable, err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE ledger_meta SET version = version + 1 WHERE id = 1 AND version = $1`, expected)
	if err != nil {
		return fmt.Errorf("%w: bump version: %v", ledger.ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrStaleWrite
	}

	if _, err := tx.Exec(ctx, `TRUNCATE movements`); err != nil {
		return fmt.Errorf("clear movements: %w", err)
	}
	for _, row := range t.Rows {
		cells := make([]string, 6)
		copy(cells, row)
		if _, err := tx.Exec(ctx,
			`INSERT INTO movements (fecha, tipo, categoria, descripcion, monto, usuario) VALUES ($1, $2, $3, $4, $5, $6)`,
			cells[0], cells[1], cells[2], cells[3], cells[4], cells[5]); err != nil {
			return fmt.Errorf("insert movement: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit rewrite: %v", ledger.ErrStoreUnavailable, err)
	}

	b.mu.Lock()
	b.version = expected + 1
	b.mu.Unlock()
	return nil
}

func (b *Backend) AppendRow(ctx context.Context, row []string) error {
	cells := make([]string, 6)
	copy(cells, row)
	_, err := b.pool.Exec(ctx,
		`INSERT INTO movements (fecha, tipo, categoria, descripcion, monto, usuario) VALUES ($1, $2, $3, $4, $5, $6)`,
		cells[0], cells[1], cells[2], cells[3], cells[4], cells[5])
	if err != nil {
		return fmt.Errorf("%w: append movement: %v", ledger.ErrStoreUnavailable, err)
	}
	return nil
}

func (b *Backend) ListKnownOwners(ctx context.Context) ([]string, error) {
	rows, err := b.pool.Query(ctx, `SELECT email FROM owners ORDER BY first_seen`)
	if err != nil {
		return nil, fmt.Errorf("%w: select owners: %v", ledger.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		out = append(out, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate owners: %v", ledger.ErrStoreUnavailable, err)
	}
	return out, nil
}

func (b *Backend) AppendOwner(ctx context.Context, owner string) error {
	if _, err := b.pool.Exec(ctx, `INSERT INTO owners (email) VALUES ($1)`, owner); err != nil {
		return fmt.Errorf("%w: append owner: %v", ledger.ErrStoreUnavailable, err)
	}
	return nil
}
