package ledger_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"registro/internal/core"
	"registro/internal/ledger"
	"registro/internal/ledger/memory"
)

func seeded(t ledger.Table) (*ledger.Store, *memory.Store) {
	backend := memory.New()
	backend.Seed(t)
	return ledger.NewStore(backend, backend, true), backend
}

func sharedTable() ledger.Table {
	return ledger.Table{
		Header: ledger.DefaultHeader(true),
		Rows: [][]string{
			{"2024-01-05", "Ingreso", "Ventas", "venta mostrador", "1000.00", "ana@example.com"},
			{"2024-01-08", "Egreso", "Mercancías", "proveedor", "300.00", "beto@example.com"},
			{"2024-01-10", "Egreso", "Combustibles", "gasolina", "200.00", "ana@example.com"},
		},
	}
}

func TestLoadForOwnerFiltersPartition(t *testing.T) {
	store, _ := seeded(sharedTable())
	rows, err := store.LoadForOwner(context.Background(), "ana@example.com")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows for ana, got %d", len(rows))
	}
	for _, m := range rows {
		if m.Owner != "ana@example.com" {
			t.Fatalf("foreign row leaked into partition: %+v", m)
		}
	}
}

func TestLoadForOwnerMatchesCaseInsensitively(t *testing.T) {
	store, _ := seeded(sharedTable())
	rows, err := store.LoadForOwner(context.Background(), " ANA@Example.COM ")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("owner match must ignore case and spaces, got %d rows", len(rows))
	}
}

func TestSaveForOwnerRoundTrip(t *testing.T) {
	store, _ := seeded(sharedTable())
	ctx := context.Background()

	rows, err := store.LoadForOwner(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	rows = append(rows, core.Movement{
		Date:     core.NewDate(2024, 1, 15),
		Kind:     core.Income,
		Category: "Otros",
		Amount:   decimal.RequireFromString("50"),
	})
	if err := store.SaveForOwner(ctx, "ana@example.com", rows); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.LoadForOwner(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 rows after append, got %d", len(got))
	}
	last := got[2]
	if last.Date.String() != "2024-01-15" || last.Category != "Otros" || core.FormatAmount(last.Amount) != "50.00" {
		t.Fatalf("appended row did not survive the round trip: %+v", last)
	}
	if last.Owner != "ana@example.com" {
		t.Fatalf("saved row must be labeled with the owner, got %q", last.Owner)
	}
}

func TestSaveForOwnerLeavesOtherOwnersUntouched(t *testing.T) {
	store, backend := seeded(sharedTable())
	ctx := context.Background()

	if err := store.SaveForOwner(ctx, "ana@example.com", nil); err != nil {
		t.Fatalf("save: %v", err)
	}

	table, err := backend.ReadAllRows(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("expected only beto's row to remain, got %d rows", len(table.Rows))
	}
	want := sharedTable().Rows[1]
	for i, cell := range table.Rows[0] {
		if cell != want[i] {
			t.Fatalf("foreign row re-encoded: %v", table.Rows[0])
		}
	}
}

func TestSaveForOwnerPreservesForeignRawRows(t *testing.T) {
	table := sharedTable()
	// Beto's row carries cells no validator would accept today.
	table.Rows[1] = []string{"13/13/2023", "Egreso", "Mercancías", "", "1.2.3", "beto@example.com"}
	store, backend := seeded(table)
	ctx := context.Background()

	rows, err := store.LoadForOwner(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := store.SaveForOwner(ctx, "ana@example.com", rows); err != nil {
		t.Fatalf("save: %v", err)
	}

	after, err := backend.ReadAllRows(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	found := false
	for _, row := range after.Rows {
		if row[5] != "beto@example.com" {
			continue
		}
		found = true
		for i, cell := range table.Rows[1] {
			if row[i] != cell {
				t.Fatalf("foreign malformed row rewritten: %v", row)
			}
		}
	}
	if !found {
		t.Fatalf("foreign row dropped during save")
	}
}

func TestDeleteMiddleRowKeepsNeighbors(t *testing.T) {
	table := ledger.Table{
		Header: ledger.DefaultHeader(true),
		Rows: [][]string{
			{"2024-01-01", "Ingreso", "Ventas", "a", "1.00", "ana@example.com"},
			{"2024-01-02", "Ingreso", "Ventas", "b", "2.00", "ana@example.com"},
			{"2024-01-03", "Ingreso", "Ventas", "c", "3.00", "ana@example.com"},
		},
	}
	store, _ := seeded(table)
	ctx := context.Background()

	rows, err := store.LoadForOwner(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	rows = append(rows[:1], rows[2:]...)
	if err := store.SaveForOwner(ctx, "ana@example.com", rows); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.LoadForOwner(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows after delete, got %d", len(got))
	}
	if got[0].Description != "a" || got[1].Description != "c" {
		t.Fatalf("wrong rows survived: %+v", got)
	}
}

func TestLoadRetainsUnparseableDates(t *testing.T) {
	table := ledger.Table{
		Header: ledger.DefaultHeader(true),
		Rows: [][]string{
			{"2024-01-05", "Ingreso", "Ventas", "", "10.00", "ana@example.com"},
			{"someday", "Ingreso", "Ventas", "", "20.00", "ana@example.com"},
		},
	}
	store, _ := seeded(table)
	rows, err := store.LoadForOwner(context.Background(), "ana@example.com")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("malformed-date row must be retained, got %d rows", len(rows))
	}
	if rows[1].Date.Valid() || rows[1].Date.Raw != "someday" {
		t.Fatalf("invalid date marker wrong: %+v", rows[1].Date)
	}

	// The retained row is excluded from every date bucket.
	if got := core.Months(rows); len(got) != 1 {
		t.Fatalf("undated row leaked into month list: %v", got)
	}
	if got := core.CashflowSeries(rows, decimal.Zero); len(got) != 1 {
		t.Fatalf("undated row leaked into cashflow: %v", got)
	}
}

func TestLoadSkipsBlankRows(t *testing.T) {
	table := sharedTable()
	table.Rows = append(table.Rows, []string{"", "", "", "", "", ""})
	store, _ := seeded(table)
	rows, err := store.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("blank row should be skipped, got %d rows", len(rows))
	}
}

func TestSaveForOwnerWritesHeaderToEmptyBackend(t *testing.T) {
	backend := memory.New()
	store := ledger.NewStore(backend, backend, true)
	ctx := context.Background()

	err := store.SaveForOwner(ctx, "ana@example.com", []core.Movement{{
		Date:     core.NewDate(2024, 2, 1),
		Kind:     core.Expense,
		Category: "Otros",
		Amount:   decimal.RequireFromString("5"),
	}})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	table, err := backend.ReadAllRows(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(table.Header) != 6 || table.Header[0] != ledger.ColDate || table.Header[5] != ledger.ColOwner {
		t.Fatalf("default header not written: %v", table.Header)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(table.Rows))
	}
}

func TestRegisterOwnerIfNewDeduplicates(t *testing.T) {
	backend := memory.New()
	store := ledger.NewStore(backend, backend, true)
	ctx := context.Background()

	store.RegisterOwnerIfNew(ctx, "ana@example.com")
	store.RegisterOwnerIfNew(ctx, "ANA@example.com")
	store.RegisterOwnerIfNew(ctx, "beto@example.com")

	owners, err := backend.ListKnownOwners(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(owners) != 2 {
		t.Fatalf("expected 2 distinct owners, got %v", owners)
	}
}

func TestMultiTenantStoreOverOwnerlessTable(t *testing.T) {
	backend := memory.New()
	backend.Seed(ledger.Table{
		Header: ledger.DefaultHeader(false),
		Rows: [][]string{
			{"2024-01-05", "Ingreso", "Ventas", "", "10.00"},
			{"2024-01-06", "Egreso", "Otros", "", "5.00"},
		},
	})
	store := ledger.NewStore(backend, backend, true)
	ctx := context.Background()

	// No Usuario column: the whole table belongs to one user, so every
	// row loads regardless of the configured tenancy.
	rows, err := store.LoadForOwner(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("ownerless table must load in full, got %d rows", len(rows))
	}

	// A partitioned rewrite cannot tell whose rows are whose; it must be
	// refused rather than wipe the table.
	rows = append(rows, core.Movement{
		Date:     core.NewDate(2024, 1, 7),
		Kind:     core.Income,
		Category: "Otros",
		Amount:   decimal.RequireFromString("1"),
	})
	if err := store.SaveForOwner(ctx, "ana@example.com", rows); err == nil {
		t.Fatalf("expected error saving into an unpartitioned table")
	}

	table, err := backend.ReadAllRows(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("historic rows lost on refused save: %d rows remain", len(table.Rows))
	}
}

func TestSingleTenantStoreIgnoresOwner(t *testing.T) {
	backend := memory.New()
	backend.Seed(ledger.Table{
		Header: ledger.DefaultHeader(false),
		Rows: [][]string{
			{"2024-01-05", "Ingreso", "Ventas", "", "10.00"},
		},
	})
	store := ledger.NewStore(backend, nil, false)
	rows, err := store.LoadForOwner(context.Background(), "whoever")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("single-tenant store must return every row, got %d", len(rows))
	}
}
