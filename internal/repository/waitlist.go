package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/workshop-booking/internal/model"
)

// WaitlistRepository handles persistence for waitlist entries.
type WaitlistRepository struct {
	db *pgxpool.Pool
}

// NewWaitlistRepository constructs a WaitlistRepository.
func NewWaitlistRepository(db *pgxpool.Pool) *WaitlistRepository {
	return &WaitlistRepository{db: db}
}

// HasWaiting reports whether email already has a waiting entry for the event.
func (r *WaitlistRepository) HasWaiting(ctx context.Context, eventID, email string) (bool, error) {
	var exists bool
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM waitlist_entries
			WHERE event_id = $1 AND lower(email) = lower($2) AND status = 'waiting'
		)`,
		eventID, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check waiting entry: %w", err)
	}
	return exists, nil
}

// InsertEntry stores entry and sets its ID. A second waiting entry for the
// same event and email yields ErrDuplicate.
func (r *WaitlistRepository) InsertEntry(ctx context.Context, entry *model.WaitlistEntry) error {
	err := conn(ctx, r.db).QueryRow(ctx,
		`INSERT INTO waitlist_entries (event_id, attendee_name, email, tier, quantity, requested_at, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		entry.EventID, entry.AttendeeName, entry.Email, string(entry.Tier),
		entry.Quantity, entry.RequestedAt, string(entry.Status),
	).Scan(&entry.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert waitlist entry: %w", err)
	}
	return nil
}

// CountWaitingUpTo counts waiting entries of an event requested at or
// before at.
func (r *WaitlistRepository) CountWaitingUpTo(ctx context.Context, eventID string, at time.Time) (int, error) {
	var n int
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT COUNT(*) FROM waitlist_entries
		 WHERE event_id = $1 AND status = 'waiting' AND requested_at <= $2`,
		eventID, at,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count waiting entries: %w", err)
	}
	return n, nil
}

// ListWaiting returns waiting entries ordered by event date, then request
// time, then id. An empty eventID returns every event.
func (r *WaitlistRepository) ListWaiting(ctx context.Context, eventID string) ([]model.WaitlistListing, error) {
	rows, err := conn(ctx, r.db).Query(ctx,
		`SELECT w.id, w.event_id, w.attendee_name, w.email, w.tier, w.quantity,
		        w.requested_at, w.status, w.notified_at, e.title, e.event_date
		 FROM waitlist_entries w
		 JOIN events e ON e.id = w.event_id
		 WHERE w.status = 'waiting' AND ($1::text = '' OR w.event_id = $1)
		 ORDER BY e.event_date ASC, w.event_id ASC, w.requested_at ASC, w.id ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list waitlist: %w", err)
	}
	defer rows.Close()

	var out []model.WaitlistListing
	for rows.Next() {
		var (
			l            model.WaitlistListing
			tier, status string
		)
		if err := rows.Scan(
			&l.ID, &l.EventID, &l.AttendeeName, &l.Email, &tier, &l.Quantity,
			&l.RequestedAt, &status, &l.NotifiedAt, &l.EventTitle, &l.EventDate,
		); err != nil {
			return nil, fmt.Errorf("scan waitlist entry: %w", err)
		}
		l.Tier = model.Tier(tier)
		l.Status = model.WaitlistStatus(status)
		out = append(out, l)
	}
	return out, rows.Err()
}

// GetEntry returns a single entry or ErrNotFound.
func (r *WaitlistRepository) GetEntry(ctx context.Context, id int64) (*model.WaitlistEntry, error) {
	var (
		e            model.WaitlistEntry
		tier, status string
	)
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT id, event_id, attendee_name, email, tier, quantity, requested_at, status, notified_at
		 FROM waitlist_entries
		 WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.EventID, &e.AttendeeName, &e.Email, &tier, &e.Quantity, &e.RequestedAt, &status, &e.NotifiedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get waitlist entry: %w", err)
	}
	e.Tier = model.Tier(tier)
	e.Status = model.WaitlistStatus(status)
	return &e, nil
}

// UpdateStatus moves a waiting entry to status. It returns ErrConflict when
// the entry is no longer waiting.
func (r *WaitlistRepository) UpdateStatus(ctx context.Context, id int64, status model.WaitlistStatus, notifiedAt *time.Time) error {
	tag, err := conn(ctx, r.db).Exec(ctx,
		`UPDATE waitlist_entries
		 SET status = $1, notified_at = $2
		 WHERE id = $3 AND status = 'waiting'`,
		string(status), notifiedAt, id,
	)
	if err != nil {
		return fmt.Errorf("update waitlist status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}
