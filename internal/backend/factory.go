package backend

import (
	"context"
	"fmt"
	"log/slog"

	"registro/internal/config"
	"registro/internal/ledger"
	gsheet "registro/internal/ledger/google"
	"registro/internal/ledger/memory"
	"registro/internal/ledger/postgres"
	"registro/internal/ledger/sqlite"
)

// Result bundles the wired store with its cleanup.
type Result struct {
	Store   *ledger.Store
	Cleanup CleanupFunc // nil when the backend holds no resources
}

// Factory creates ledger stores from configuration.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// CreateStore wires the backend named by cfg.DataBackend into a ledger store.
func (f *Factory) CreateStore(ctx context.Context, cfg *config.Config) (*Result, error) {
	bt := BackendType(cfg.DataBackend)
	if !bt.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	switch bt {
	case SheetsBackend:
		cli, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:       cfg.GoogleSpreadsheetID,
			LedgerSheet:         cfg.GoogleLedgerSheet,
			OwnersSpreadsheetID: cfg.GoogleOwnersSpreadsheetID,
			OwnersSheet:         cfg.GoogleOwnersSheet,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize Google Sheets backend: %w", err)
		}
		f.logger.Info("Initialized Google Sheets backend",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"ledger_sheet", cfg.GoogleLedgerSheet)
		return &Result{Store: ledger.NewStore(cli, cli, true)}, nil

	case SQLiteBackend:
		db, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize SQLite backend: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return &Result{
			Store:   ledger.NewStore(db, nil, false),
			Cleanup: db.Close,
		}, nil

	case PostgresBackend:
		pg, err := postgres.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("initialize Postgres backend: %w", err)
		}
		f.logger.Info("Initialized Postgres backend")
		return &Result{
			Store: ledger.NewStore(pg, pg, true),
			Cleanup: func() error {
				pg.Close()
				return nil
			},
		}, nil

	case MemoryBackend:
		store := memory.New()
		f.logger.Info("Initialized memory backend")
		return &Result{Store: ledger.NewStore(store, store, true)}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", bt)
	}
}
