// Package service implements the availability and reservation engine:
// capacity accounting, request validation, booking commits and the waitlist.
package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Engine bundles the four components so handlers can share one instance.
type Engine struct {
	Ledger    *Ledger
	Validator *Validator
	Bookings  *BookingService
	Waitlist  *WaitlistQueue
}

type options struct {
	cache AvailabilityCache
	clock Clock
	log   zerolog.Logger
	newID func() uuid.UUID
}

// Option configures an Engine.
type Option func(*options)

// WithCache serves display availability through c.
func WithCache(c AvailabilityCache) Option {
	return func(o *options) { o.cache = c }
}

// WithClock overrides time.Now.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the logger used for state changes and store failures.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithReservationIDs overrides how reservation identifiers are generated.
func WithReservationIDs(f func() uuid.UUID) Option {
	return func(o *options) {
		if f != nil {
			o.newID = f
		}
	}
}

// NewEngine wires the engine components over store.
func NewEngine(store Store, opts ...Option) *Engine {
	o := options{
		clock: time.Now,
		log:   zerolog.Nop(),
		newID: uuid.New,
	}
	for _, opt := range opts {
		opt(&o)
	}

	ledger := &Ledger{events: store, bookings: store, cache: o.cache, log: o.log}
	validator := &Validator{events: store, waitlist: store, ledger: ledger, clock: o.clock}

	return &Engine{
		Ledger:    ledger,
		Validator: validator,
		Bookings: &BookingService{
			tx:        store,
			events:    store,
			bookings:  store,
			validator: validator,
			ledger:    ledger,
			clock:     o.clock,
			newID:     o.newID,
			log:       o.log,
		},
		Waitlist: &WaitlistQueue{
			tx:        store,
			events:    store,
			entries:   store,
			validator: validator,
			clock:     o.clock,
			log:       o.log,
		},
	}
}

// now truncates to the store's timestamp resolution so receipts match what
// is read back later.
func now(c Clock) time.Time {
	return c().UTC().Truncate(time.Microsecond)
}
