// Package sqlite is the single-tenant local variant of the ledger backend:
// the whole store belongs to one user and lives in a SQLite file. Cells are
// stored as text so malformed historic values survive round-trips unchanged.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"registro/internal/ledger"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Backend struct {
	db *sql.DB
}

var _ ledger.TableBackend = (*Backend)(nil)

func New(dbPath string) (*Backend, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping database: %v", ledger.ErrStoreUnavailable, err)
	}
	if err := ensureSchema(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Backend{db: db}, nil
}

// ensureSchema applies the embedded migrations. The migrate driver takes
// ownership of the connection it wraps and closes it, so it gets a handle of
// its own rather than the backend's.
func ensureSchema(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		db.Close()
		return fmt.Errorf("sqlite migrate driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		db.Close()
		return fmt.Errorf("embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		db.Close()
		return fmt.Errorf("migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (b *Backend) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

func (b *Backend) ReadAllRows(ctx context.Context) (ledger.Table, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT fecha, tipo, categoria, descripcion, monto FROM movements ORDER BY id`)
	if err != nil {
		return ledger.Table{}, fmt.Errorf("%w: select movements: %v", ledger.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	t := ledger.Table{Header: ledger.DefaultHeader(false)}
	for rows.Next() {
		cells := make([]string, 5)
		if err := rows.Scan(&cells[0], &cells[1], &cells[2], &cells[3], &cells[4]); err != nil {
			return ledger.Table{}, fmt.Errorf("scan movement row: %w", err)
		}
		t.Rows = append(t.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return ledger.Table{}, fmt.Errorf("%w: iterate movements: %v", ledger.ErrStoreUnavailable, err)
	}
	return t, nil
}

// WriteAllRows replaces the whole table inside one transaction, matching the
// clear-and-rewrite contract of the shared-store variant.
func (b *Backend) WriteAllRows(ctx context.Context, t ledger.Table) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin rewrite: %v", ledger.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM movements`); err != nil {
		return fmt.Errorf("clear movements: %w", err)
	}
	for _, row := range t.Rows {
		if err := insertRow(ctx, tx, row); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit rewrite: %v", ledger.ErrStoreUnavailable, err)
	}
	return nil
}

func (b *Backend) AppendRow(ctx context.Context, row []string) error {
	return insertRow(ctx, b.db, row)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertRow(ctx context.Context, db execer, row []string) error {
	cells := make([]string, 5)
	copy(cells, row)
	_, err := db.ExecContext(ctx,
		`INSERT INTO movements (fecha, tipo, categoria, descripcion, monto) VALUES (?, ?, ?, ?, ?)`,
		cells[0], cells[1], cells[2], cells[3], cells[4])
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}
