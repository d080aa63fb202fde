package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/workshop-booking/internal/model"
)

// Transactor runs fn so that every store call made with the context it
// receives belongs to one transaction. A nil return commits.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventReader reads the organiser-owned event and tier rows.
// The Lock variants must be called inside WithinTx.
type EventReader interface {
	GetEvent(ctx context.Context, eventID string) (*model.Event, error)
	LockEvent(ctx context.Context, eventID string) (*model.Event, error)
	ListTiers(ctx context.Context, eventID string) ([]model.TicketTier, error)
	LockTiers(ctx context.Context, eventID string) ([]model.TicketTier, error)
}

// BookingStore persists committed bookings.
type BookingStore interface {
	BookedByTier(ctx context.Context, eventID string) (map[model.Tier]int, error)
	InsertBookings(ctx context.Context, bookings []model.Booking) error
	ListReservation(ctx context.Context, reservationID uuid.UUID) ([]model.Booking, error)
}

// WaitlistStore persists waitlist entries.
type WaitlistStore interface {
	HasWaiting(ctx context.Context, eventID, email string) (bool, error)
	InsertEntry(ctx context.Context, entry *model.WaitlistEntry) error
	CountWaitingUpTo(ctx context.Context, eventID string, at time.Time) (int, error)
	ListWaiting(ctx context.Context, eventID string) ([]model.WaitlistListing, error)
	GetEntry(ctx context.Context, id int64) (*model.WaitlistEntry, error)
	UpdateStatus(ctx context.Context, id int64, status model.WaitlistStatus, notifiedAt *time.Time) error
}

// Store is everything the engine needs from persistence.
type Store interface {
	Transactor
	EventReader
	BookingStore
	WaitlistStore
}

// AvailabilityCache holds display snapshots of remaining seats.
type AvailabilityCache interface {
	Get(ctx context.Context, eventID string) (model.Availability, bool, error)
	Set(ctx context.Context, eventID string, a model.Availability) error
	Invalidate(ctx context.Context, eventID string) error
}

// Clock returns the current time.
type Clock func() time.Time
