// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/workshop-booking/internal/model"
	"github.com/Shivanand-hulikatti/workshop-booking/internal/service"
)

// Handler holds all HTTP handlers for the booking API.
type Handler struct {
	engine *service.Engine
	log    zerolog.Logger
}

// New constructs a Handler.
func New(engine *service.Engine, log zerolog.Logger) *Handler {
	return &Handler{engine: engine, log: log}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeServiceError maps the service error taxonomy onto status codes.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve  *service.ValidationError
		nf  *service.NotFoundError
		ce  *service.CapacityExceededError
		dup *service.DuplicateWaitlistError
		te  *service.TransitionError
	)

	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, model.ErrorResponse{
			Error:  ve.Message,
			Reason: string(ve.Code),
			Field:  ve.Field,
		})
	case errors.As(err, &nf):
		writeJSON(w, http.StatusNotFound, model.ErrorResponse{
			Error:  nf.Error(),
			Reason: string(nf.Reason()),
		})
	case errors.As(err, &ce):
		remaining := ce.Remaining
		writeJSON(w, http.StatusConflict, model.ErrorResponse{
			Error:     ce.Error(),
			Reason:    string(ce.Reason()),
			Field:     "tiers." + string(ce.Tier),
			Remaining: &remaining,
		})
	case errors.As(err, &dup):
		writeJSON(w, http.StatusConflict, model.ErrorResponse{
			Error:  dup.Error(),
			Reason: string(dup.Reason()),
			Field:  "attendee.email",
		})
	case errors.As(err, &te):
		writeJSON(w, http.StatusConflict, model.ErrorResponse{
			Error:  te.Error(),
			Reason: string(te.Reason()),
		})
	default:
		h.log.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
			Error:  "internal error",
			Reason: string(service.ReasonPersistence),
		})
	}
}

func entryID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "entryID"), 10, 64)
	return id, err == nil && id > 0
}

// ─── Availability ─────────────────────────────────────────────────────────────

// Availability handles GET /events/{id}/availability
// Returns per-tier remaining seats for display.
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	summary, err := h.engine.Ledger.Summary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

type remainingResponse struct {
	EventID        string             `json:"event_id"`
	Remaining      map[model.Tier]int `json:"remaining"`
	TotalRemaining int                `json:"total_remaining"`
	SoldOut        bool               `json:"sold_out"`
}

// Remaining handles GET /events/{id}/remaining
// Returns the raw remaining count per tier, served from the cache when one
// is configured.
func (h *Handler) Remaining(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	a, err := h.engine.Ledger.ComputeRemaining(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, remainingResponse{
		EventID:        id,
		Remaining:      a,
		TotalRemaining: a.TotalRemaining(),
		SoldOut:        a.SoldOut(),
	})
}

// ─── Bookings ─────────────────────────────────────────────────────────────────

type validateResponse struct {
	Valid         bool               `json:"valid"`
	EventID       string             `json:"event_id"`
	TotalQuantity int                `json:"total_quantity"`
	Tiers         map[model.Tier]int `json:"tiers"`
	Remaining     map[model.Tier]int `json:"remaining"`
	Attendee      model.Attendee     `json:"attendee"`
}

// ValidateBooking handles POST /events/{id}/bookings/validate
// Runs every booking check without writing anything.
func (h *Handler) ValidateBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req model.BookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	valid, err := h.engine.Validator.ValidateBooking(r.Context(), id, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	total := 0
	for _, q := range valid.Quantities {
		total += q
	}
	writeJSON(w, http.StatusOK, validateResponse{
		Valid:         true,
		EventID:       id,
		TotalQuantity: total,
		Tiers:         valid.Quantities,
		Remaining:     valid.Availability,
		Attendee:      valid.Attendee,
	})
}

// CommitBooking handles POST /events/{id}/bookings
// Validates and commits a booking atomically.
func (h *Handler) CommitBooking(w http.ResponseWriter, r *http.Request) {
	var req model.BookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	receipt, err := h.engine.Bookings.CommitBooking(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, receipt)
}

// GetReservation handles GET /reservations/{id}
func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	receipt, err := h.engine.Bookings.GetReservation(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, receipt)
}

// ─── Waitlist ─────────────────────────────────────────────────────────────────

// JoinWaitlist handles POST /events/{id}/waitlist
func (h *Handler) JoinWaitlist(w http.ResponseWriter, r *http.Request) {
	var req model.WaitlistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	receipt, err := h.engine.Waitlist.Join(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, receipt)
}

// ListWaitlist handles GET /waitlist and GET /events/{id}/waitlist
// Returns waiting entries grouped by event with their queue positions.
func (h *Handler) ListWaitlist(w http.ResponseWriter, r *http.Request) {
	groups, err := h.engine.Waitlist.ListWaiting(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, groups)
}

// NotifyEntry handles POST /waitlist/{entryID}/notify
func (h *Handler) NotifyEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid waitlist entry id")
		return
	}

	entry, err := h.engine.Waitlist.MarkNotified(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// RemoveEntry handles POST /waitlist/{entryID}/remove
func (h *Handler) RemoveEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid waitlist entry id")
		return
	}

	entry, err := h.engine.Waitlist.Remove(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
