package service

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/workshop-booking/internal/model"
	"github.com/Shivanand-hulikatti/workshop-booking/internal/repository"
)

// Ledger derives remaining seats per tier from configured quantities and
// committed bookings.
type Ledger struct {
	events   EventReader
	bookings BookingStore
	cache    AvailabilityCache
	log      zerolog.Logger

	// gen counts invalidations per event. A read that saw the counter move
	// while it was in flight does not write its snapshot back. Other
	// processes sharing the cache are bounded by the cache TTL instead.
	mu  sync.Mutex
	gen map[string]uint64
}

// ComputeRemaining returns the raw remaining count per configured tier.
// The result is a point-in-time snapshot and may come from the cache.
func (l *Ledger) ComputeRemaining(ctx context.Context, eventID string) (model.Availability, error) {
	gen := l.generation(eventID)
	if l.cache != nil {
		a, ok, err := l.cache.Get(ctx, eventID)
		if err != nil {
			l.log.Warn().Err(err).Str("event_id", eventID).Msg("availability cache read failed")
		} else if ok {
			return a, nil
		}
	}

	_, a, err := l.snapshot(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if l.cache != nil {
		if l.generation(eventID) != gen {
			l.log.Debug().Str("event_id", eventID).Msg("bookings committed during read, not caching")
			return a, nil
		}
		if err := l.cache.Set(ctx, eventID, a); err != nil {
			l.log.Warn().Err(err).Str("event_id", eventID).Msg("availability cache write failed")
		}
	}
	return a, nil
}

// IsSoldOut reports whether every tier of the event has no seat left.
func (l *Ledger) IsSoldOut(ctx context.Context, eventID string) (bool, error) {
	a, err := l.ComputeRemaining(ctx, eventID)
	if err != nil {
		return false, err
	}
	return a.SoldOut(), nil
}

// Summary returns the display view of an event's availability, always read
// fresh from the store.
func (l *Ledger) Summary(ctx context.Context, eventID string) (*model.EventAvailability, error) {
	event, err := l.events.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "event", ID: eventID}
		}
		return nil, persistence("get event", err)
	}

	tiers, booked, err := l.read(ctx, eventID)
	if err != nil {
		return nil, err
	}
	a := model.ComputeAvailability(tiers, booked)

	out := &model.EventAvailability{
		EventID:        event.ID,
		Title:          event.Title,
		Date:           event.Date,
		Status:         event.Status,
		Tiers:          make([]model.TierAvailability, 0, len(tiers)),
		TotalRemaining: a.TotalRemaining(),
		SoldOut:        a.SoldOut(),
	}
	for _, t := range tiers {
		out.Tiers = append(out.Tiers, model.TierAvailability{
			Tier:      t.Tier,
			Quantity:  t.Quantity,
			Booked:    booked[t.Tier],
			Remaining: a.Clamped(t.Tier),
			Price:     t.Price,
		})
	}
	return out, nil
}

// snapshot bypasses the cache. Validation always goes through here.
func (l *Ledger) snapshot(ctx context.Context, eventID string) ([]model.TicketTier, model.Availability, error) {
	tiers, booked, err := l.read(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	return tiers, model.ComputeAvailability(tiers, booked), nil
}

// read loads tiers first, then booked totals.
func (l *Ledger) read(ctx context.Context, eventID string) ([]model.TicketTier, map[model.Tier]int, error) {
	tiers, err := l.events.ListTiers(ctx, eventID)
	if err != nil {
		return nil, nil, persistence("list ticket tiers", err)
	}
	booked, err := l.bookings.BookedByTier(ctx, eventID)
	if err != nil {
		return nil, nil, persistence("sum bookings", err)
	}
	return tiers, booked, nil
}

func (l *Ledger) generation(eventID string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen[eventID]
}

func (l *Ledger) invalidate(ctx context.Context, eventID string) {
	if l.cache == nil {
		return
	}
	l.mu.Lock()
	if l.gen == nil {
		l.gen = make(map[string]uint64)
	}
	l.gen[eventID]++
	l.mu.Unlock()

	if err := l.cache.Invalidate(ctx, eventID); err != nil {
		l.log.Warn().Err(err).Str("event_id", eventID).Msg("availability cache invalidation failed")
	}
}
