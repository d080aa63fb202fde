package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/workshop-booking/internal/model"
	"github.com/Shivanand-hulikatti/workshop-booking/internal/repository/memory"
	"github.com/Shivanand-hulikatti/workshop-booking/internal/service"
)

var today = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// workshop is event E: full quantity 2 at 10, concession quantity 1 at 5.
func workshop(id string) (model.Event, []model.TicketTier) {
	return model.Event{
			ID:     id,
			Title:  "Sourdough basics",
			Date:   time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
			Status: model.EventPublished,
		}, []model.TicketTier{
			{Tier: model.TierFull, Quantity: 2, Price: money("10")},
			{Tier: model.TierConcession, Quantity: 1, Price: money("5")},
		}
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// assertMoney compares amounts by value, so 20 and 20.00 are equal.
func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, money(want).Equal(got), "got %s, want %s", got, want)
}

func assertItems(t *testing.T, want, got []model.LineItem) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Tier, got[i].Tier)
		assert.Equal(t, want[i].Quantity, got[i].Quantity)
		assertMoney(t, want[i].UnitPrice.String(), got[i].UnitPrice)
		assertMoney(t, want[i].Subtotal.String(), got[i].Subtotal)
	}
}

func newEngine(t *testing.T, opts ...service.Option) (*service.Engine, *memory.Store, *fakeClock) {
	t.Helper()

	store := memory.New()
	event, tiers := workshop("E")
	store.AddEvent(event, tiers...)

	clk := &fakeClock{t: today}
	opts = append([]service.Option{service.WithClock(clk.Now)}, opts...)
	return service.NewEngine(store, opts...), store, clk
}

func booking(name string, full, concession int) model.BookingRequest {
	return model.BookingRequest{
		Tiers:    map[model.Tier]int{model.TierFull: full, model.TierConcession: concession},
		Attendee: model.Attendee{Name: name},
	}
}

func waitlistReq(name, email string, quantity int) model.WaitlistRequest {
	return model.WaitlistRequest{
		Attendee: model.Attendee{Name: name, Email: email},
		Tier:     model.TierFull,
		Quantity: quantity,
	}
}

// failingStore lets a test fail selected writes of an otherwise working
// in-memory store.
type failingStore struct {
	*memory.Store
	mock.Mock
}

// InsertBookings writes the first row before failing, like a store that
// dies part way through a multi-row insert.
func (s *failingStore) InsertBookings(ctx context.Context, bookings []model.Booking) error {
	args := s.Called(ctx, bookings)
	if err := args.Error(0); err != nil {
		_ = s.Store.InsertBookings(ctx, bookings[:1])
		return err
	}
	return s.Store.InsertBookings(ctx, bookings)
}

func (s *failingStore) InsertEntry(ctx context.Context, entry *model.WaitlistEntry) error {
	args := s.Called(ctx, entry)
	if err := args.Error(0); err != nil {
		return err
	}
	return s.Store.InsertEntry(ctx, entry)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, eventID string) (model.Availability, bool, error) {
	args := m.Called(ctx, eventID)
	a, _ := args.Get(0).(model.Availability)
	return a, args.Bool(1), args.Error(2)
}

func (m *mockCache) Set(ctx context.Context, eventID string, a model.Availability) error {
	return m.Called(ctx, eventID, a).Error(0)
}

func (m *mockCache) Invalidate(ctx context.Context, eventID string) error {
	return m.Called(ctx, eventID).Error(0)
}
