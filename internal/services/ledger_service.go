// Package services orchestrates ledger operations for one interactive
// session: the current owner and their loaded partition are explicit
// arguments, never ambient state.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"registro/internal/amqp"
	"registro/internal/core"
	"registro/internal/ledger"
)

// EventPublisher publishes ledger-change events. Publishing is best-effort:
// a failed publish never fails the ledger write.
type EventPublisher interface {
	PublishMovementEvent(ctx context.Context, msg *amqp.MovementEvent) error
}

type LedgerService struct {
	store  *ledger.Store
	events EventPublisher // nil when no bus is configured
}

func NewLedgerService(store *ledger.Store, events EventPublisher) *LedgerService {
	return &LedgerService{store: store, events: events}
}

// Ledger returns the owner's current partition.
func (s *LedgerService) Ledger(ctx context.Context, owner string) ([]core.Movement, error) {
	return s.store.LoadForOwner(ctx, owner)
}

// Record appends an already validated movement to the owner's partition and
// persists it through the full-rewrite path. Returns the updated partition.
func (s *LedgerService) Record(ctx context.Context, owner string, m core.Movement) ([]core.Movement, error) {
	s.store.RegisterOwnerIfNew(ctx, owner)

	rows, err := s.store.LoadForOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("load partition: %w", err)
	}
	rows = append(rows, m)
	if err := s.store.SaveForOwner(ctx, owner, rows); err != nil {
		return nil, fmt.Errorf("save partition: %w", err)
	}

	s.publish(ctx, amqp.ActionRecorded, owner, m)

	slog.InfoContext(ctx, "Movement recorded",
		"owner", owner,
		"kind", string(m.Kind),
		"category", m.Category,
		"amount", core.FormatAmount(m.Amount))
	return rows, nil
}

// Delete removes one row by its position in the currently loaded,
// owner-filtered view and persists the shrunk partition. There is no
// update-in-place: correcting a row is delete and re-add.
func (s *LedgerService) Delete(ctx context.Context, owner string, index int) ([]core.Movement, error) {
	rows, err := s.store.LoadForOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("load partition: %w", err)
	}
	if index < 0 || index >= len(rows) {
		return nil, &core.ValidationError{Field: "index", Reason: fmt.Sprintf("row %d does not exist (partition has %d rows)", index, len(rows))}
	}
	removed := rows[index]
	rows = append(rows[:index], rows[index+1:]...)
	if err := s.store.SaveForOwner(ctx, owner, rows); err != nil {
		return nil, fmt.Errorf("save partition: %w", err)
	}

	s.publish(ctx, amqp.ActionDeleted, owner, removed)

	slog.InfoContext(ctx, "Movement deleted",
		"owner", owner,
		"row_index", index,
		"row_count", len(rows))
	return rows, nil
}

func (s *LedgerService) publish(ctx context.Context, action, owner string, m core.Movement) {
	if s.events == nil {
		return
	}
	event := &amqp.MovementEvent{
		Action:      action,
		Owner:       owner,
		Date:        m.Date.String(),
		Kind:        string(m.Kind),
		Category:    m.Category,
		Description: m.Description,
		Amount:      core.FormatAmount(m.Amount),
		Timestamp:   time.Now(),
	}
	if err := s.events.PublishMovementEvent(ctx, event); err != nil {
		// Ledger write already succeeded; the bus is best-effort.
		slog.ErrorContext(ctx, "Failed to publish movement event",
			"action", action,
			"owner", owner,
			"error", err)
	}
}
