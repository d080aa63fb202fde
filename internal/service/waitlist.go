package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/workshop-booking/internal/model"
	"github.com/Shivanand-hulikatti/workshop-booking/internal/repository"
)

// WaitlistQueue is a FIFO queue of waiting requests per event.
//
// Entries move from waiting to either notified or removed, and never move
// again. Nothing here converts an entry into a booking: the organiser
// notifies the attendee, who then books normally.
type WaitlistQueue struct {
	tx        Transactor
	events    EventReader
	entries   WaitlistStore
	validator *Validator
	clock     Clock
	log       zerolog.Logger
}

// Join queues an attendee for an event.
//
// The returned position counts waiting entries with a request time at or
// before this one, including itself. Entries that share a timestamp share a
// position, so it is an estimate; ListWaiting gives the authoritative rank.
func (q *WaitlistQueue) Join(ctx context.Context, eventID string, req model.WaitlistRequest) (*model.WaitlistReceipt, error) {
	var receipt *model.WaitlistReceipt

	err := q.tx.WithinTx(ctx, func(ctx context.Context) error {
		// Serialises joins per event so the duplicate check and the position
		// count see every earlier join.
		if _, err := q.events.LockEvent(ctx, eventID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return persistence("lock event", err)
		}

		valid, err := q.validator.ValidateWaitlistJoin(ctx, eventID, req)
		if err != nil {
			return err
		}

		entry := &model.WaitlistEntry{
			EventID:      eventID,
			AttendeeName: valid.Attendee.Name,
			Email:        valid.Attendee.Email,
			Tier:         valid.Tier,
			Quantity:     valid.Quantity,
			RequestedAt:  now(q.clock),
			Status:       model.WaitlistWaiting,
		}
		if err := q.entries.InsertEntry(ctx, entry); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return &DuplicateWaitlistError{EventID: eventID, Email: entry.Email}
			}
			return persistence("insert waitlist entry", err)
		}

		position, err := q.entries.CountWaitingUpTo(ctx, eventID, entry.RequestedAt)
		if err != nil {
			return persistence("count waitlist position", err)
		}

		receipt = &model.WaitlistReceipt{Entry: *entry, Position: position}
		return nil
	})
	if err != nil {
		return nil, q.fail(persistence("join waitlist", err), "join")
	}

	q.log.Info().
		Str("event_id", eventID).
		Int64("entry_id", receipt.Entry.ID).
		Int("position", receipt.Position).
		Msg("waitlist joined")

	return receipt, nil
}

// ListWaiting returns waiting entries grouped by event, events ordered by
// date and entries by request time, with positions 1..N in each group.
// An empty eventID lists every event.
func (q *WaitlistQueue) ListWaiting(ctx context.Context, eventID string) ([]model.WaitlistGroup, error) {
	if eventID != "" {
		if _, err := q.events.GetEvent(ctx, eventID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, &NotFoundError{Resource: "event", ID: eventID}
			}
			return nil, q.fail(persistence("get event", err), "list")
		}
	}

	rows, err := q.entries.ListWaiting(ctx, eventID)
	if err != nil {
		return nil, q.fail(persistence("list waitlist", err), "list")
	}

	groups := []model.WaitlistGroup{}
	for _, row := range rows {
		if n := len(groups); n == 0 || groups[n-1].EventID != row.EventID {
			groups = append(groups, model.WaitlistGroup{
				EventID:    row.EventID,
				EventTitle: row.EventTitle,
				EventDate:  row.EventDate,
			})
		}
		g := &groups[len(groups)-1]
		g.Entries = append(g.Entries, model.PositionedEntry{
			WaitlistEntry: row.WaitlistEntry,
			Position:      len(g.Entries) + 1,
		})
	}
	return groups, nil
}

// Get returns a single entry in any state.
func (q *WaitlistQueue) Get(ctx context.Context, entryID int64) (*model.WaitlistEntry, error) {
	entry, err := q.entries.GetEntry(ctx, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "waitlist_entry", ID: strconv.FormatInt(entryID, 10)}
		}
		return nil, persistence("get waitlist entry", err)
	}
	return entry, nil
}

// MarkNotified records that the organiser contacted a waiting attendee.
func (q *WaitlistQueue) MarkNotified(ctx context.Context, entryID int64) (*model.WaitlistEntry, error) {
	return q.transition(ctx, entryID, model.WaitlistNotified)
}

// Remove takes a waiting entry off the queue.
func (q *WaitlistQueue) Remove(ctx context.Context, entryID int64) (*model.WaitlistEntry, error) {
	return q.transition(ctx, entryID, model.WaitlistRemoved)
}

func (q *WaitlistQueue) transition(ctx context.Context, entryID int64, to model.WaitlistStatus) (*model.WaitlistEntry, error) {
	var updated *model.WaitlistEntry

	err := q.tx.WithinTx(ctx, func(ctx context.Context) error {
		entry, err := q.Get(ctx, entryID)
		if err != nil {
			return err
		}
		if entry.Status != model.WaitlistWaiting {
			return &TransitionError{EntryID: entryID, From: entry.Status, To: to}
		}

		notifiedAt := entry.NotifiedAt
		if to == model.WaitlistNotified {
			t := now(q.clock)
			notifiedAt = &t
		}

		if err := q.entries.UpdateStatus(ctx, entryID, to, notifiedAt); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return &TransitionError{EntryID: entryID, From: entry.Status, To: to}
			}
			return persistence("update waitlist status", err)
		}

		entry.Status = to
		entry.NotifiedAt = notifiedAt
		updated = entry
		return nil
	})
	if err != nil {
		return nil, q.fail(persistence("update waitlist status", err), string(to))
	}

	q.log.Info().
		Str("event_id", updated.EventID).
		Int64("entry_id", entryID).
		Str("status", string(to)).
		Msg("waitlist entry updated")

	return updated, nil
}

func (q *WaitlistQueue) fail(err error, action string) error {
	var pe *PersistenceError
	if errors.As(err, &pe) {
		q.log.Error().Err(pe.Err).Str("op", pe.Op).Str("action", action).Msg("waitlist store failure")
	}
	return err
}
