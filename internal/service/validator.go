package service

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Shivanand-hulikatti/workshop-booking/internal/model"
	"github.com/Shivanand-hulikatti/workshop-booking/internal/repository"
)

const (
	minNameLen = 2
	maxNameLen = 100
)

// validate checks the struct tags on request types. Field names in its
// errors are the JSON names.
var validate = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validator checks booking and waitlist requests before they are committed.
type Validator struct {
	events   EventReader
	waitlist WaitlistStore
	ledger   *Ledger
	clock    Clock
}

// ValidatedBooking is a normalised request that passed every check.
type ValidatedBooking struct {
	Event    *model.Event
	Attendee model.Attendee
	// Quantities holds only tiers with a positive quantity.
	Quantities   map[model.Tier]int
	Tiers        map[model.Tier]model.TicketTier
	Availability model.Availability
}

// ValidateBooking runs the checks in order and stops at the first failure.
// Capacity is read fresh, never from the cache.
func (v *Validator) ValidateBooking(ctx context.Context, eventID string, req model.BookingRequest) (*ValidatedBooking, error) {
	attendee, err := normaliseAttendee(req.Attendee, false)
	if err != nil {
		return nil, err
	}

	total := req.Total()
	if total < 1 || total > model.MaxPerBooking {
		return nil, invalid(ReasonQuantityRange, "tiers",
			"total quantity must be between 1 and %d, got %d", model.MaxPerBooking, total)
	}
	for tier, q := range req.Tiers {
		if q < 0 {
			return nil, invalid(ReasonNegativeQuantity, "tiers", "quantity for %s cannot be negative", tier)
		}
	}
	quantities := make(map[model.Tier]int, len(req.Tiers))
	for tier, q := range req.Tiers {
		if !tier.Valid() {
			return nil, invalid(ReasonUnknownTier, "tiers", "unknown ticket tier %q", tier)
		}
		if q > 0 {
			quantities[tier] = q
		}
	}

	event, err := v.publishedEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !onOrAfter(event.Date, now(v.clock)) {
		return nil, invalid(ReasonEventInPast, "event", "event took place on %s", event.Date.Format(time.DateOnly))
	}

	tiers, a, err := v.ledger.snapshot(ctx, eventID)
	if err != nil {
		return nil, err
	}
	for _, tier := range model.Tiers {
		q, ok := quantities[tier]
		if !ok {
			continue
		}
		if remaining := a.Remaining(tier); q > remaining {
			return nil, &CapacityExceededError{Tier: tier, Requested: q, Remaining: remaining}
		}
	}

	byTier := make(map[model.Tier]model.TicketTier, len(tiers))
	for _, t := range tiers {
		byTier[t.Tier] = t
	}

	return &ValidatedBooking{
		Event:        event,
		Attendee:     attendee,
		Quantities:   quantities,
		Tiers:        byTier,
		Availability: a,
	}, nil
}

// ValidateWaitlistJoin checks a waitlist request, including that the email
// is not already waiting for the event.
func (v *Validator) ValidateWaitlistJoin(ctx context.Context, eventID string, req model.WaitlistRequest) (*model.WaitlistRequest, error) {
	attendee, err := normaliseAttendee(req.Attendee, true)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, fieldRejection(err)
	}

	if _, err := v.publishedEvent(ctx, eventID); err != nil {
		return nil, err
	}

	waiting, err := v.waitlist.HasWaiting(ctx, eventID, attendee.Email)
	if err != nil {
		return nil, persistence("check waitlist", err)
	}
	if waiting {
		return nil, &DuplicateWaitlistError{EventID: eventID, Email: attendee.Email}
	}

	return &model.WaitlistRequest{Attendee: attendee, Tier: req.Tier, Quantity: req.Quantity}, nil
}

func (v *Validator) publishedEvent(ctx context.Context, eventID string) (*model.Event, error) {
	if strings.TrimSpace(eventID) == "" {
		return nil, &NotFoundError{Resource: "event", ID: eventID}
	}
	event, err := v.events.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "event", ID: eventID}
		}
		return nil, persistence("get event", err)
	}
	if event.Status != model.EventPublished {
		return nil, invalid(ReasonEventNotPublished, "event", "event is not open for booking")
	}
	return event, nil
}

func normaliseAttendee(a model.Attendee, emailRequired bool) (model.Attendee, error) {
	a.Name = strings.TrimSpace(a.Name)
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	a.DietaryNotes = strings.TrimSpace(a.DietaryNotes)

	// Name is declared before email, so its error is reported first.
	if err := validate.Struct(a); err != nil {
		return a, fieldRejection(err)
	}
	if emailRequired {
		if err := validate.Var(a.Email, "required"); err != nil {
			return a, invalid(ReasonEmailRequired, "email", "email is required")
		}
	}
	return a, nil
}

// fieldRejection maps the first failed struct tag to a rejection reason.
func fieldRejection(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return err
	}
	fe := errs[0]
	switch fe.Field() {
	case "name":
		return invalid(ReasonNameLength, "name", "name must be between %d and %d characters", minNameLen, maxNameLen)
	case "email":
		if fe.Tag() == "required" {
			return invalid(ReasonEmailRequired, "email", "email is required")
		}
		return invalid(ReasonEmailInvalid, "email", "%q is not a valid email address", fe.Value())
	case "quantity":
		return invalid(ReasonQuantityRange, "quantity",
			"quantity must be between 1 and %d, got %v", model.MaxPerBooking, fe.Value())
	case "tier":
		return invalid(ReasonUnknownTier, "tier", "unknown ticket tier %q", fe.Value())
	}
	return invalid(ReasonCode(fe.Tag()), fe.Field(), "%s failed on %s", fe.Field(), fe.Tag())
}

// onOrAfter compares calendar dates only.
func onOrAfter(eventDate, now time.Time) bool {
	ey, em, ed := eventDate.Date()
	ny, nm, nd := now.Date()
	return !time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC).Before(time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC))
}
