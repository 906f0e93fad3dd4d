// Package worker mirrors ledger changes from a local primary (sqlite or
// postgres deployments) into the shared Google Sheet, consuming the movement
// event bus. Delivery is at-least-once, so both handlers are idempotent.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"registro/internal/amqp"
	"registro/internal/core"
	"registro/internal/ledger"
)

type MirrorWorker struct {
	store *ledger.Store
}

func NewMirrorWorker(store *ledger.Store) *MirrorWorker {
	return &MirrorWorker{store: store}
}

// HandleEvent applies one movement event to the mirror. Errors bubble up so
// the consumer can nack and requeue.
func (w *MirrorWorker) HandleEvent(ctx context.Context, msg *amqp.MovementEvent) error {
	switch msg.Action {
	case amqp.ActionRecorded:
		return w.handleRecorded(ctx, msg)
	case amqp.ActionDeleted:
		return w.handleDeleted(ctx, msg)
	default:
		slog.WarnContext(ctx, "Skipping movement event with unknown action", "action", msg.Action)
		return nil
	}
}

func (w *MirrorWorker) handleRecorded(ctx context.Context, msg *amqp.MovementEvent) error {
	m := eventMovement(msg)
	rows, err := w.store.LoadForOwner(ctx, msg.Owner)
	if err != nil {
		return fmt.Errorf("load mirror partition: %w", err)
	}
	// A redelivered event must not duplicate the row.
	for _, existing := range rows {
		if sameMovement(existing, m) {
			slog.InfoContext(ctx, "Movement already mirrored, skipping",
				"owner", msg.Owner, "date", msg.Date, "amount", msg.Amount)
			return nil
		}
	}
	rows = append(rows, m)
	if err := w.store.SaveForOwner(ctx, msg.Owner, rows); err != nil {
		return fmt.Errorf("save mirror partition: %w", err)
	}
	slog.InfoContext(ctx, "Movement mirrored",
		"owner", msg.Owner, "kind", msg.Kind, "amount", msg.Amount)
	return nil
}

func (w *MirrorWorker) handleDeleted(ctx context.Context, msg *amqp.MovementEvent) error {
	m := eventMovement(msg)
	rows, err := w.store.LoadForOwner(ctx, msg.Owner)
	if err != nil {
		return fmt.Errorf("load mirror partition: %w", err)
	}
	idx := -1
	for i, existing := range rows {
		if sameMovement(existing, m) {
			idx = i
			break
		}
	}
	if idx == -1 {
		slog.WarnContext(ctx, "Movement to delete not found in mirror",
			"owner", msg.Owner, "date", msg.Date, "amount", msg.Amount)
		return nil
	}
	rows = append(rows[:idx], rows[idx+1:]...)
	if err := w.store.SaveForOwner(ctx, msg.Owner, rows); err != nil {
		return fmt.Errorf("save mirror partition: %w", err)
	}
	slog.InfoContext(ctx, "Mirrored movement deleted",
		"owner", msg.Owner, "date", msg.Date, "amount", msg.Amount)
	return nil
}

func eventMovement(msg *amqp.MovementEvent) core.Movement {
	m := core.Movement{
		Date:        core.ParseDate(msg.Date),
		Category:    msg.Category,
		Description: msg.Description,
		Owner:       msg.Owner,
	}
	if k, ok := core.ParseKind(msg.Kind); ok {
		m.Kind = k
	} else {
		m.Kind = core.Kind(msg.Kind)
	}
	if amount, err := core.ParseAmount(msg.Amount); err == nil {
		m.Amount = amount
	} else {
		m.RawAmount = msg.Amount
	}
	return m
}

func sameMovement(a, b core.Movement) bool {
	return a.Date.String() == b.Date.String() &&
		a.Kind == b.Kind &&
		strings.EqualFold(a.Category, b.Category) &&
		a.Description == b.Description &&
		a.Amount.Equal(b.Amount)
}
