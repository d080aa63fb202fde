package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/workshop-booking/internal/model"
)

// EventRepository reads events and their ticket tiers. Both tables belong to
// the organiser side; nothing here writes to them.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

const selectEvent = `
SELECT id, title, description, event_date, status, category_id, created_at, updated_at, published_at
FROM events
WHERE id = $1`

// GetEvent returns a single event or ErrNotFound.
func (r *EventRepository) GetEvent(ctx context.Context, eventID string) (*model.Event, error) {
	return r.getEvent(ctx, selectEvent, eventID)
}

// LockEvent is GetEvent with a row lock held until the surrounding
// transaction ends.
func (r *EventRepository) LockEvent(ctx context.Context, eventID string) (*model.Event, error) {
	return r.getEvent(ctx, selectEvent+` FOR UPDATE`, eventID)
}

func (r *EventRepository) getEvent(ctx context.Context, query, eventID string) (*model.Event, error) {
	var (
		e      model.Event
		status string
	)
	err := conn(ctx, r.db).QueryRow(ctx, query, eventID).Scan(
		&e.ID, &e.Title, &e.Description, &e.Date, &status,
		&e.CategoryID, &e.CreatedAt, &e.UpdatedAt, &e.PublishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	e.Status = model.EventStatus(status)
	return &e, nil
}

const selectTiers = `
SELECT event_id, tier, quantity, price
FROM ticket_tiers
WHERE event_id = $1
ORDER BY tier`

// ListTiers returns the configured tiers of an event.
func (r *EventRepository) ListTiers(ctx context.Context, eventID string) ([]model.TicketTier, error) {
	return r.listTiers(ctx, selectTiers, eventID)
}

// LockTiers returns the tiers of an event and locks their rows until the
// surrounding transaction ends. Concurrent bookings for the event queue
// behind this lock, so the capacity they read already includes every
// booking committed before them. Rows are locked in tier order to avoid
// deadlocks between bookers.
func (r *EventRepository) LockTiers(ctx context.Context, eventID string) ([]model.TicketTier, error) {
	return r.listTiers(ctx, selectTiers+` FOR UPDATE`, eventID)
}

func (r *EventRepository) listTiers(ctx context.Context, query, eventID string) ([]model.TicketTier, error) {
	rows, err := conn(ctx, r.db).Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("list ticket tiers: %w", err)
	}
	defer rows.Close()

	var tiers []model.TicketTier
	for rows.Next() {
		var (
			t    model.TicketTier
			tier string
		)
		// NUMERIC scans into decimal.Decimal through sql.Scanner.
		if err := rows.Scan(&t.EventID, &tier, &t.Quantity, &t.Price); err != nil {
			return nil, fmt.Errorf("scan ticket tier: %w", err)
		}
		t.Tier = model.Tier(tier)
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}
