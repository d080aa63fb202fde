package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/workshop-booking/internal/model"
)

// BookingRepository handles persistence for bookings.
type BookingRepository struct {
	db *pgxpool.Pool
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{db: db}
}

// BookedByTier sums booked quantities per tier for an event.
func (r *BookingRepository) BookedByTier(ctx context.Context, eventID string) (map[model.Tier]int, error) {
	rows, err := conn(ctx, r.db).Query(ctx,
		`SELECT tier, COALESCE(SUM(quantity), 0)
		 FROM bookings
		 WHERE event_id = $1
		 GROUP BY tier`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("sum bookings: %w", err)
	}
	defer rows.Close()

	booked := make(map[model.Tier]int)
	for rows.Next() {
		var (
			tier string
			sum  int
		)
		if err := rows.Scan(&tier, &sum); err != nil {
			return nil, fmt.Errorf("scan booking sum: %w", err)
		}
		booked[model.Tier(tier)] = sum
	}
	return booked, rows.Err()
}

// InsertBookings inserts every row or none. IDs are written back into
// bookings.
func (r *BookingRepository) InsertBookings(ctx context.Context, bookings []model.Booking) error {
	return inTx(ctx, r.db, func(ctx context.Context) error {
		for i := range bookings {
			b := &bookings[i]
			err := conn(ctx, r.db).QueryRow(ctx,
				`INSERT INTO bookings
				 (reservation_id, event_id, tier, attendee_name, attendee_email, dietary_notes, quantity, booking_date)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				 RETURNING id`,
				b.ReservationID.String(), b.EventID, string(b.Tier), b.AttendeeName,
				nullable(b.AttendeeEmail), nullable(b.DietaryNotes), b.Quantity, b.BookingDate,
			).Scan(&b.ID)
			if err != nil {
				return fmt.Errorf("insert %s booking: %w", b.Tier, err)
			}
		}
		return nil
	})
}

// ListReservation returns the rows of one reservation in insertion order.
func (r *BookingRepository) ListReservation(ctx context.Context, reservationID uuid.UUID) ([]model.Booking, error) {
	rows, err := conn(ctx, r.db).Query(ctx,
		`SELECT id, reservation_id::text, event_id, tier, attendee_name, attendee_email, dietary_notes, quantity, booking_date
		 FROM bookings
		 WHERE reservation_id = $1
		 ORDER BY id ASC`,
		reservationID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list reservation: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		var (
			b            model.Booking
			resID, tier  string
			email, notes *string
		)
		if err := rows.Scan(&b.ID, &resID, &b.EventID, &tier, &b.AttendeeName, &email, &notes, &b.Quantity, &b.BookingDate); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		if b.ReservationID, err = uuid.Parse(resID); err != nil {
			return nil, fmt.Errorf("parse reservation id: %w", err)
		}
		b.Tier = model.Tier(tier)
		b.AttendeeEmail = deref(email)
		b.DietaryNotes = deref(notes)
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
