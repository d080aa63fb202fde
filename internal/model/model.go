// Package model defines the core domain types for the workshop booking engine.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxPerBooking caps the total number of seats one request may ask for,
// across all tiers.
const MaxPerBooking = 10

// Tier is the label of a priced seat category.
type Tier string

const (
	TierFull       Tier = "full"
	TierConcession Tier = "concession"
)

// Tiers lists every tier label in display order.
var Tiers = []Tier{TierFull, TierConcession}

// Valid reports whether t is one of the known tier labels.
func (t Tier) Valid() bool {
	return t == TierFull || t == TierConcession
}

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
)

// Event is owned by the organiser side; this core only reads it.
type Event struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Date        time.Time   `json:"date"`
	Status      EventStatus `json:"status"`
	CategoryID  *string     `json:"category_id,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	PublishedAt *time.Time  `json:"published_at,omitempty"`
}

// TicketTier is the configured capacity and price of one tier of an event.
type TicketTier struct {
	EventID  string          `json:"event_id"`
	Tier     Tier            `json:"tier"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Booking is one committed tier line of a reservation. Rows are immutable.
type Booking struct {
	ID            int64     `json:"id"`
	ReservationID uuid.UUID `json:"reservation_id"`
	EventID       string    `json:"event_id"`
	Tier          Tier      `json:"tier"`
	AttendeeName  string    `json:"attendee_name"`
	AttendeeEmail string    `json:"attendee_email,omitempty"`
	DietaryNotes  string    `json:"dietary_notes,omitempty"`
	Quantity      int       `json:"quantity"`
	BookingDate   time.Time `json:"booking_date"`
}

// WaitlistStatus is the state of a waitlist entry. Only waiting entries
// may transition; notified and removed are terminal.
type WaitlistStatus string

const (
	WaitlistWaiting  WaitlistStatus = "waiting"
	WaitlistNotified WaitlistStatus = "notified"
	WaitlistRemoved  WaitlistStatus = "removed"
)

// WaitlistEntry is a queued request for seats on a sold-out event.
type WaitlistEntry struct {
	ID           int64          `json:"id"`
	EventID      string         `json:"event_id"`
	AttendeeName string         `json:"attendee_name"`
	Email        string         `json:"email"`
	Tier         Tier           `json:"tier"`
	Quantity     int            `json:"quantity"`
	RequestedAt  time.Time      `json:"requested_at"`
	Status       WaitlistStatus `json:"status"`
	NotifiedAt   *time.Time     `json:"notified_at,omitempty"`
}

// Attendee identifies the person a booking or waitlist entry is for.
// Name length is counted in runes.
type Attendee struct {
	Name         string `json:"name" validate:"required,min=2,max=100"`
	Email        string `json:"email,omitempty" validate:"omitempty,email"`
	DietaryNotes string `json:"dietary_notes,omitempty"`
}

// BookingRequest asks for seats in one or more tiers of an event.
type BookingRequest struct {
	Tiers    map[Tier]int `json:"tiers"`
	Attendee Attendee     `json:"attendee"`
}

// Total returns the sum of requested quantities over all tiers.
func (r BookingRequest) Total() int {
	total := 0
	for _, q := range r.Tiers {
		total += q
	}
	return total
}

// WaitlistRequest asks to be queued for seats in a single tier. The
// attendee is validated on its own; max mirrors MaxPerBooking.
type WaitlistRequest struct {
	Attendee Attendee `json:"attendee" validate:"-"`
	Quantity int      `json:"quantity" validate:"min=1,max=10"`
	Tier     Tier     `json:"tier" validate:"oneof=full concession"`
}

// LineItem is one tier of a booking receipt.
type LineItem struct {
	Tier      Tier            `json:"tier"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// BookingReceipt summarises a committed reservation.
type BookingReceipt struct {
	ReservationID uuid.UUID       `json:"reservation_id"`
	EventID       string          `json:"event_id"`
	AttendeeName  string          `json:"attendee_name"`
	TotalQuantity int             `json:"total_quantity"`
	Items         []LineItem      `json:"items"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	BookedAt      time.Time       `json:"booked_at"`
}

// WaitlistReceipt is returned on join. Position is the estimate taken at
// insert time; ListWaiting recomputes the authoritative rank.
type WaitlistReceipt struct {
	Entry    WaitlistEntry `json:"entry"`
	Position int           `json:"position"`
}

// PositionedEntry is a waiting entry with its 1-based rank in its event.
type PositionedEntry struct {
	WaitlistEntry
	Position int `json:"position"`
}

// WaitlistGroup holds the waiting entries of one event in queue order.
type WaitlistGroup struct {
	EventID    string            `json:"event_id"`
	EventTitle string            `json:"event_title"`
	EventDate  time.Time         `json:"event_date"`
	Entries    []PositionedEntry `json:"entries"`
}

// WaitlistListing is a waiting entry joined with the event fields used to
// group and order the waitlist view.
type WaitlistListing struct {
	WaitlistEntry
	EventTitle string
	EventDate  time.Time
}

// TierAvailability is the display view of one tier.
type TierAvailability struct {
	Tier      Tier            `json:"tier"`
	Quantity  int             `json:"quantity"`
	Booked    int             `json:"booked"`
	Remaining int             `json:"remaining"`
	Price     decimal.Decimal `json:"price"`
}

// EventAvailability is the display view of an event's remaining seats.
type EventAvailability struct {
	EventID        string             `json:"event_id"`
	Title          string             `json:"title"`
	Date           time.Time          `json:"date"`
	Status         EventStatus        `json:"status"`
	Tiers          []TierAvailability `json:"tiers"`
	TotalRemaining int                `json:"total_remaining"`
	SoldOut        bool               `json:"sold_out"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error     string `json:"error"`
	Reason    string `json:"reason,omitempty"`
	Field     string `json:"field,omitempty"`
	Remaining *int   `json:"remaining,omitempty"`
}
