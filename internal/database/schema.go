package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// events and ticket_tiers are maintained by the organiser side of the
// application; they are created here so a fresh database is usable.
var schema = []struct {
	name string
	ddl  string
}{
	{"events", `
CREATE TABLE IF NOT EXISTS events (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	event_date   DATE NOT NULL,
	status       TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'published')),
	category_id  TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	published_at TIMESTAMPTZ
)`},
	{"ticket_tiers", `
CREATE TABLE IF NOT EXISTS ticket_tiers (
	id       BIGSERIAL PRIMARY KEY,
	event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	tier     TEXT NOT NULL,
	quantity INTEGER NOT NULL CHECK (quantity >= 0),
	price    NUMERIC(10, 2) NOT NULL CHECK (price >= 0),
	UNIQUE (event_id, tier)
)`},
	{"bookings", `
CREATE TABLE IF NOT EXISTS bookings (
	id             BIGSERIAL PRIMARY KEY,
	reservation_id UUID NOT NULL,
	event_id       TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	tier           TEXT NOT NULL,
	attendee_name  TEXT NOT NULL,
	attendee_email TEXT,
	dietary_notes  TEXT,
	quantity       INTEGER NOT NULL CHECK (quantity > 0),
	booking_date   TIMESTAMPTZ NOT NULL
)`},
	{"bookings_event_tier_idx", `
CREATE INDEX IF NOT EXISTS bookings_event_tier_idx ON bookings (event_id, tier)`},
	{"bookings_reservation_idx", `
CREATE INDEX IF NOT EXISTS bookings_reservation_idx ON bookings (reservation_id)`},
	{"waitlist_entries", `
CREATE TABLE IF NOT EXISTS waitlist_entries (
	id            BIGSERIAL PRIMARY KEY,
	event_id      TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	attendee_name TEXT NOT NULL,
	email         TEXT NOT NULL,
	tier          TEXT NOT NULL,
	quantity      INTEGER NOT NULL CHECK (quantity > 0),
	requested_at  TIMESTAMPTZ NOT NULL,
	status        TEXT NOT NULL DEFAULT 'waiting' CHECK (status IN ('waiting', 'notified', 'removed')),
	notified_at   TIMESTAMPTZ
)`},
	{"waitlist_one_waiting_per_email", `
CREATE UNIQUE INDEX IF NOT EXISTS waitlist_one_waiting_per_email
	ON waitlist_entries (event_id, lower(email)) WHERE status = 'waiting'`},
}

// InitSchema creates the tables and indexes the service needs.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range schema {
		if _, err := pool.Exec(ctx, s.ddl); err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
