package worker

import (
	"context"
	"testing"
	"time"

	"registro/internal/amqp"
	"registro/internal/ledger"
	"registro/internal/ledger/memory"
)

func mirrorFixture() (*MirrorWorker, *ledger.Store) {
	backend := memory.New()
	backend.Seed(ledger.Table{Header: ledger.DefaultHeader(true)})
	store := ledger.NewStore(backend, backend, true)
	return NewMirrorWorker(store), store
}

func recordedEvent() *amqp.MovementEvent {
	return &amqp.MovementEvent{
		Action:      amqp.ActionRecorded,
		Owner:       "ana@example.com",
		Date:        "2024-01-05",
		Kind:        "Ingreso",
		Category:    "Ventas",
		Description: "venta mostrador",
		Amount:      "1000.00",
		Timestamp:   time.Now(),
	}
}

func TestHandleRecordedAppendsRow(t *testing.T) {
	w, store := mirrorFixture()
	ctx := context.Background()

	if err := w.HandleEvent(ctx, recordedEvent()); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	rows, err := store.LoadForOwner(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 mirrored row, got %d", len(rows))
	}
	if rows[0].Category != "Ventas" || rows[0].Description != "venta mostrador" {
		t.Fatalf("mirrored row wrong: %+v", rows[0])
	}
}

func TestHandleRecordedIsIdempotent(t *testing.T) {
	w, store := mirrorFixture()
	ctx := context.Background()

	if err := w.HandleEvent(ctx, recordedEvent()); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := w.HandleEvent(ctx, recordedEvent()); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	rows, err := store.LoadForOwner(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("redelivered event duplicated the row: %d rows", len(rows))
	}
}

func TestHandleDeletedRemovesRow(t *testing.T) {
	w, store := mirrorFixture()
	ctx := context.Background()

	if err := w.HandleEvent(ctx, recordedEvent()); err != nil {
		t.Fatalf("record: %v", err)
	}
	del := recordedEvent()
	del.Action = amqp.ActionDeleted
	if err := w.HandleEvent(ctx, del); err != nil {
		t.Fatalf("delete: %v", err)
	}
	rows, err := store.LoadForOwner(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty mirror, got %d rows", len(rows))
	}
}

func TestHandleDeletedMissingRowIsNoError(t *testing.T) {
	w, _ := mirrorFixture()
	del := recordedEvent()
	del.Action = amqp.ActionDeleted
	if err := w.HandleEvent(context.Background(), del); err != nil {
		t.Fatalf("missing row must not error (no requeue loop), got %v", err)
	}
}

func TestHandleEventUnknownActionSkipped(t *testing.T) {
	w, store := mirrorFixture()
	ctx := context.Background()
	ev := recordedEvent()
	ev.Action = "archived"
	if err := w.HandleEvent(ctx, ev); err != nil {
		t.Fatalf("unknown action must be dropped, got %v", err)
	}
	rows, err := store.LoadForOwner(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("unknown action wrote to the mirror")
	}
}
