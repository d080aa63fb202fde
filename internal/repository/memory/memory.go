// Package memory is an in-process store with single-writer semantics.
// A transaction holds the store mutex from start to finish.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/workshop-booking/internal/model"
	"github.com/Shivanand-hulikatti/workshop-booking/internal/repository"
)

type txKey struct{}

// Store keeps events, tiers, bookings and waitlist entries in memory.
type Store struct {
	mu sync.Mutex

	events   map[string]model.Event
	tiers    map[string][]model.TicketTier
	bookings []model.Booking
	waitlist []model.WaitlistEntry

	nextBookingID int64
	nextEntryID   int64
}

// New returns an empty store.
func New() *Store {
	return &Store{
		events: make(map[string]model.Event),
		tiers:  make(map[string][]model.TicketTier),
	}
}

// AddEvent creates or replaces an event together with its tiers. It stands
// in for the organiser side, which owns these rows.
func (s *Store) AddEvent(e model.Event, tiers ...model.TicketTier) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events[e.ID] = e
	cp := make([]model.TicketTier, 0, len(tiers))
	for _, t := range tiers {
		t.EventID = e.ID
		cp = append(cp, t)
	}
	sort.Slice(cp, func(i, j int) bool { return cp[i].Tier < cp[j].Tier })
	s.tiers[e.ID] = cp
}

// WithinTx holds the store lock while fn runs and undoes fn's writes if it
// returns an error. Nested calls join the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bookings := len(s.bookings)
	waitlist := append([]model.WaitlistEntry(nil), s.waitlist...)

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.bookings = s.bookings[:bookings]
		s.waitlist = waitlist
		return err
	}
	return nil
}

// lock takes the mutex unless ctx already belongs to a transaction.
func (s *Store) lock(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// GetEvent returns a copy of the event, or repository.ErrNotFound.
func (s *Store) GetEvent(ctx context.Context, eventID string) (*model.Event, error) {
	defer s.lock(ctx)()

	e, ok := s.events[eventID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

// LockEvent is GetEvent; the store lock already serialises writers.
func (s *Store) LockEvent(ctx context.Context, eventID string) (*model.Event, error) {
	return s.GetEvent(ctx, eventID)
}

// ListTiers returns a copy of the event's tiers in insertion order.
func (s *Store) ListTiers(ctx context.Context, eventID string) ([]model.TicketTier, error) {
	defer s.lock(ctx)()

	return append([]model.TicketTier(nil), s.tiers[eventID]...), nil
}

// LockTiers is ListTiers; the store lock already serialises writers.
func (s *Store) LockTiers(ctx context.Context, eventID string) ([]model.TicketTier, error) {
	return s.ListTiers(ctx, eventID)
}

// BookedByTier sums booked quantities per tier. Tiers with no bookings
// are absent from the map.
func (s *Store) BookedByTier(ctx context.Context, eventID string) (map[model.Tier]int, error) {
	defer s.lock(ctx)()

	booked := make(map[model.Tier]int)
	for _, b := range s.bookings {
		if b.EventID == eventID {
			booked[b.Tier] += b.Quantity
		}
	}
	return booked, nil
}

// InsertBookings assigns sequential IDs and appends the rows.
func (s *Store) InsertBookings(ctx context.Context, bookings []model.Booking) error {
	defer s.lock(ctx)()

	for i := range bookings {
		s.nextBookingID++
		bookings[i].ID = s.nextBookingID
		s.bookings = append(s.bookings, bookings[i])
	}
	return nil
}

// ListReservation returns the rows of one reservation in insert order.
// An unknown ID yields an empty slice, not an error.
func (s *Store) ListReservation(ctx context.Context, reservationID uuid.UUID) ([]model.Booking, error) {
	defer s.lock(ctx)()

	var out []model.Booking
	for _, b := range s.bookings {
		if b.ReservationID == reservationID {
			out = append(out, b)
		}
	}
	return out, nil
}

// HasWaiting reports whether email has a waiting entry for the event,
// ignoring case.
func (s *Store) HasWaiting(ctx context.Context, eventID, email string) (bool, error) {
	defer s.lock(ctx)()

	return s.hasWaiting(eventID, email), nil
}

func (s *Store) hasWaiting(eventID, email string) bool {
	for _, e := range s.waitlist {
		if e.EventID == eventID && e.Status == model.WaitlistWaiting && strings.EqualFold(e.Email, email) {
			return true
		}
	}
	return false
}

// InsertEntry mirrors the partial unique index of the Postgres schema.
func (s *Store) InsertEntry(ctx context.Context, entry *model.WaitlistEntry) error {
	defer s.lock(ctx)()

	if entry.Status == model.WaitlistWaiting && s.hasWaiting(entry.EventID, entry.Email) {
		return repository.ErrDuplicate
	}
	s.nextEntryID++
	entry.ID = s.nextEntryID
	s.waitlist = append(s.waitlist, *entry)
	return nil
}

// CountWaitingUpTo counts waiting entries of the event requested at or
// before at.
func (s *Store) CountWaitingUpTo(ctx context.Context, eventID string, at time.Time) (int, error) {
	defer s.lock(ctx)()

	n := 0
	for _, e := range s.waitlist {
		if e.EventID == eventID && e.Status == model.WaitlistWaiting && !e.RequestedAt.After(at) {
			n++
		}
	}
	return n, nil
}

// ListWaiting returns waiting entries ordered by event date, event ID,
// request time and entry ID. An empty eventID lists every event.
func (s *Store) ListWaiting(ctx context.Context, eventID string) ([]model.WaitlistListing, error) {
	defer s.lock(ctx)()

	var out []model.WaitlistListing
	for _, e := range s.waitlist {
		if e.Status != model.WaitlistWaiting || (eventID != "" && e.EventID != eventID) {
			continue
		}
		ev, ok := s.events[e.EventID]
		if !ok {
			continue
		}
		out = append(out, model.WaitlistListing{WaitlistEntry: e, EventTitle: ev.Title, EventDate: ev.Date})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.EventDate.Equal(b.EventDate) {
			return a.EventDate.Before(b.EventDate)
		}
		if a.EventID != b.EventID {
			return a.EventID < b.EventID
		}
		if !a.RequestedAt.Equal(b.RequestedAt) {
			return a.RequestedAt.Before(b.RequestedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

// GetEntry returns a copy of the entry, or repository.ErrNotFound.
func (s *Store) GetEntry(ctx context.Context, id int64) (*model.WaitlistEntry, error) {
	defer s.lock(ctx)()

	i := s.entryIndex(id)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	e := s.waitlist[i]
	return &e, nil
}

// UpdateStatus moves a waiting entry to status. It returns
// repository.ErrConflict if the entry is missing or no longer waiting.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status model.WaitlistStatus, notifiedAt *time.Time) error {
	defer s.lock(ctx)()

	i := s.entryIndex(id)
	if i < 0 || s.waitlist[i].Status != model.WaitlistWaiting {
		return repository.ErrConflict
	}
	s.waitlist[i].Status = status
	s.waitlist[i].NotifiedAt = notifiedAt
	return nil
}

func (s *Store) entryIndex(id int64) int {
	for i, e := range s.waitlist {
		if e.ID == id {
			return i
		}
	}
	return -1
}
