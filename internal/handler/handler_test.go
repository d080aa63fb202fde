package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/workshop-booking/internal/handler"
	"github.com/Shivanand-hulikatti/workshop-booking/internal/model"
	"github.com/Shivanand-hulikatti/workshop-booking/internal/repository/memory"
	"github.com/Shivanand-hulikatti/workshop-booking/internal/service"
)

var now = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := memory.New()
	store.AddEvent(model.Event{
		ID:     "E",
		Title:  "Sourdough basics",
		Date:   time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
		Status: model.EventPublished,
	},
		model.TicketTier{Tier: model.TierFull, Quantity: 2, Price: decimal.RequireFromString("10.50")},
		model.TicketTier{Tier: model.TierConcession, Quantity: 1, Price: decimal.NewFromInt(5)},
	)

	engine := service.NewEngine(store, service.WithClock(func() time.Time { return now }))
	srv := httptest.NewServer(handler.NewRouter(handler.New(engine, zerolog.Nop()), zerolog.Nop()))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()

	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestHealthCheck(t *testing.T) {
	srv := newServer(t)

	resp := do(t, srv, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]string{"status": "ok"}, decode[map[string]string](t, resp))
}

func TestBookingFlow(t *testing.T) {
	srv := newServer(t)

	resp := do(t, srv, http.MethodPost, "/events/E/bookings", map[string]any{
		"tiers":    map[string]int{"full": 2},
		"attendee": map[string]string{"name": "Alice", "email": "alice@example.com"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var raw map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.JSONEq(t, `"21"`, string(raw["total_price"]), "money is sent as a decimal string")
	var receipt model.BookingReceipt
	require.NoError(t, json.Unmarshal(mustMarshal(t, raw), &receipt))
	assert.Equal(t, 2, receipt.TotalQuantity)
	assert.True(t, decimal.NewFromInt(21).Equal(receipt.TotalPrice))

	resp = do(t, srv, http.MethodGet, "/reservations/"+receipt.ReservationID.String(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	again := decode[model.BookingReceipt](t, resp)
	assert.Equal(t, receipt.ReservationID, again.ReservationID)
	assert.Equal(t, receipt.Items, again.Items)

	resp = do(t, srv, http.MethodPost, "/events/E/bookings", map[string]any{
		"tiers":    map[string]int{"full": 1},
		"attendee": map[string]string{"name": "Bob"},
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	e := decode[model.ErrorResponse](t, resp)
	assert.Equal(t, "insufficient_capacity", e.Reason)
	require.NotNil(t, e.Remaining)
	assert.Equal(t, 0, *e.Remaining)

	resp = do(t, srv, http.MethodGet, "/events/E/availability", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := decode[model.EventAvailability](t, resp)
	assert.Equal(t, 1, summary.TotalRemaining)
	assert.False(t, summary.SoldOut)

	resp = do(t, srv, http.MethodGet, "/events/E/remaining", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	remaining := decode[struct {
		Remaining map[string]int `json:"remaining"`
		SoldOut   bool           `json:"sold_out"`
	}](t, resp)
	assert.Equal(t, map[string]int{"full": 0, "concession": 1}, remaining.Remaining)
}

func TestValidateBookingDoesNotWrite(t *testing.T) {
	srv := newServer(t)
	body := map[string]any{
		"tiers":    map[string]int{"full": 2, "concession": 1},
		"attendee": map[string]string{"name": "  Alice "},
	}

	for i := 0; i < 2; i++ {
		resp := do(t, srv, http.MethodPost, "/events/E/bookings/validate", body)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		v := decode[struct {
			Valid         bool           `json:"valid"`
			TotalQuantity int            `json:"total_quantity"`
			Attendee      model.Attendee `json:"attendee"`
		}](t, resp)
		assert.True(t, v.Valid)
		assert.Equal(t, 3, v.TotalQuantity)
		assert.Equal(t, "Alice", v.Attendee.Name)
	}
}

func TestErrorMapping(t *testing.T) {
	srv := newServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		reason string
	}{
		{
			name:   "validation",
			method: http.MethodPost,
			path:   "/events/E/bookings",
			body: map[string]any{
				"tiers":    map[string]int{"full": 1},
				"attendee": map[string]string{"name": "A"},
			},
			status: http.StatusUnprocessableEntity,
			reason: "name_length",
		},
		{
			name:   "unknown event",
			method: http.MethodPost,
			path:   "/events/nope/bookings",
			body: map[string]any{
				"tiers":    map[string]int{"full": 1},
				"attendee": map[string]string{"name": "Alice"},
			},
			status: http.StatusNotFound,
			reason: "event_not_found",
		},
		{
			name:   "unknown reservation",
			method: http.MethodGet,
			path:   "/reservations/5d7b0c8e-4b8e-4a3e-9d2f-1c1e2b3a4d5f",
			status: http.StatusNotFound,
			reason: "reservation_not_found",
		},
		{
			name:   "malformed reservation id",
			method: http.MethodGet,
			path:   "/reservations/abc",
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown body field",
			method: http.MethodPost,
			path:   "/events/E/bookings",
			body:   map[string]any{"seats": 1},
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown waitlist entry",
			method: http.MethodPost,
			path:   "/waitlist/99/notify",
			status: http.StatusNotFound,
			reason: "waitlist_entry_not_found",
		},
		{
			name:   "malformed waitlist entry id",
			method: http.MethodPost,
			path:   "/waitlist/x/remove",
			status: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := do(t, srv, tc.method, tc.path, tc.body)

			assert.Equal(t, tc.status, resp.StatusCode)
			e := decode[model.ErrorResponse](t, resp)
			assert.NotEmpty(t, e.Error)
			assert.Equal(t, tc.reason, e.Reason)
		})
	}
}

func TestWaitlistFlow(t *testing.T) {
	srv := newServer(t)
	join := func(name, email string) *http.Response {
		return do(t, srv, http.MethodPost, "/events/E/waitlist", map[string]any{
			"attendee": map[string]string{"name": name, "email": email},
			"tier":     "full",
			"quantity": 1,
		})
	}

	resp := join("Bob", "bob@example.com")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	bob := decode[model.WaitlistReceipt](t, resp)
	assert.Equal(t, 1, bob.Position)

	resp = join("Carol", "carol@example.com")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 2, decode[model.WaitlistReceipt](t, resp).Position)

	resp = join("Bob", "BOB@example.com")
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "duplicate_waitlist", decode[model.ErrorResponse](t, resp).Reason)

	resp = do(t, srv, http.MethodGet, "/waitlist", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	groups := decode[[]model.WaitlistGroup](t, resp)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Entries, 2)
	assert.Equal(t, "Sourdough basics", groups[0].EventTitle)

	path := "/waitlist/" + strconv.FormatInt(bob.Entry.ID, 10)
	resp = do(t, srv, http.MethodPost, path+"/notify", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entry := decode[model.WaitlistEntry](t, resp)
	assert.Equal(t, model.WaitlistNotified, entry.Status)
	require.NotNil(t, entry.NotifiedAt)

	resp = do(t, srv, http.MethodPost, path+"/remove", nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "invalid_transition", decode[model.ErrorResponse](t, resp).Reason)

	resp = do(t, srv, http.MethodGet, "/events/E/waitlist", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	groups = decode[[]model.WaitlistGroup](t, resp)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Entries, 1)
	assert.Equal(t, "carol@example.com", groups[0].Entries[0].Email)
	assert.Equal(t, 1, groups[0].Entries[0].Position)

	resp = do(t, srv, http.MethodGet, "/events/nope/waitlist", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	srv := newServer(t)

	resp := do(t, srv, http.MethodOptions, "/events/E/bookings", nil)

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
