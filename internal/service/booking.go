package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Shivanand-hulikatti/workshop-booking/internal/model"
)

// BookingService commits validated reservations.
type BookingService struct {
	tx        Transactor
	events    EventReader
	bookings  BookingStore
	validator *Validator
	ledger    *Ledger
	clock     Clock
	newID     func() uuid.UUID
	log       zerolog.Logger
}

// CommitBooking validates req and records one booking row per requested
// tier, all in a single transaction.
//
// The event's tier rows are locked before capacity is read, so two requests
// for the same event cannot both pass validation against the same snapshot.
// Every row shares one reservation id and one booking timestamp; if any
// insert fails none of them are kept.
func (s *BookingService) CommitBooking(ctx context.Context, eventID string, req model.BookingRequest) (*model.BookingReceipt, error) {
	var receipt *model.BookingReceipt

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.events.LockTiers(ctx, eventID); err != nil {
			return persistence("lock ticket tiers", err)
		}

		vb, err := s.validator.ValidateBooking(ctx, eventID, req)
		if err != nil {
			return err
		}

		bookedAt := now(s.clock)
		reservationID := s.newID()

		rows := make([]model.Booking, 0, len(vb.Quantities))
		for _, tier := range model.Tiers {
			q, ok := vb.Quantities[tier]
			if !ok {
				continue
			}
			rows = append(rows, model.Booking{
				ReservationID: reservationID,
				EventID:       eventID,
				Tier:          tier,
				AttendeeName:  vb.Attendee.Name,
				AttendeeEmail: vb.Attendee.Email,
				DietaryNotes:  vb.Attendee.DietaryNotes,
				Quantity:      q,
				BookingDate:   bookedAt,
			})
		}

		if err := s.bookings.InsertBookings(ctx, rows); err != nil {
			return persistence("insert bookings", err)
		}

		receipt = buildReceipt(rows, vb.Tiers)
		return nil
	})
	if err != nil {
		err = persistence("commit booking", err)
		s.logFailure(err, eventID)
		return nil, err
	}

	s.ledger.invalidate(ctx, eventID)

	s.log.Info().
		Str("event_id", eventID).
		Str("reservation_id", receipt.ReservationID.String()).
		Int("quantity", receipt.TotalQuantity).
		Msg("booking committed")

	return receipt, nil
}

// GetReservation rebuilds the receipt of a committed reservation using the
// event's current tier prices.
func (s *BookingService) GetReservation(ctx context.Context, reservationID uuid.UUID) (*model.BookingReceipt, error) {
	rows, err := s.bookings.ListReservation(ctx, reservationID)
	if err != nil {
		return nil, persistence("list reservation", err)
	}
	if len(rows) == 0 {
		return nil, &NotFoundError{Resource: "reservation", ID: reservationID.String()}
	}

	tiers, err := s.events.ListTiers(ctx, rows[0].EventID)
	if err != nil {
		return nil, persistence("list ticket tiers", err)
	}
	byTier := make(map[model.Tier]model.TicketTier, len(tiers))
	for _, t := range tiers {
		byTier[t.Tier] = t
	}

	return buildReceipt(rows, byTier), nil
}

func buildReceipt(rows []model.Booking, tiers map[model.Tier]model.TicketTier) *model.BookingReceipt {
	r := &model.BookingReceipt{
		ReservationID: rows[0].ReservationID,
		EventID:       rows[0].EventID,
		AttendeeName:  rows[0].AttendeeName,
		BookedAt:      rows[0].BookingDate,
		Items:         make([]model.LineItem, 0, len(rows)),
	}
	for _, b := range rows {
		price := tiers[b.Tier].Price
		subtotal := price.Mul(decimal.NewFromInt(int64(b.Quantity)))
		r.Items = append(r.Items, model.LineItem{
			Tier:      b.Tier,
			Quantity:  b.Quantity,
			UnitPrice: price,
			Subtotal:  subtotal,
		})
		r.TotalQuantity += b.Quantity
		r.TotalPrice = r.TotalPrice.Add(subtotal)
	}
	return r
}

func (s *BookingService) logFailure(err error, eventID string) {
	var pe *PersistenceError
	if errors.As(err, &pe) {
		s.log.Error().Err(pe.Err).Str("op", pe.Op).Str("event_id", eventID).Msg("booking commit failed")
	}
}
