package store

import "context"

// schema is applied with CREATE TABLE IF NOT EXISTS so Bootstrap can run
// on every startup, from every instance, without coordination beyond the
// startup lock.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	name          TEXT NOT NULL,
	role          TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS medicines (
	id            BIGSERIAL PRIMARY KEY,
	name          TEXT NOT NULL,
	manufacturer  TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS pharmacies (
	id             BIGSERIAL PRIMARY KEY,
	owner_user_id  BIGINT NOT NULL REFERENCES users(id),
	name           TEXT NOT NULL,
	address        TEXT NOT NULL DEFAULT '',
	phone          TEXT NOT NULL DEFAULT '',
	working_hours  TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS inventory (
	pharmacy_id  BIGINT NOT NULL REFERENCES pharmacies(id),
	medicine_id  BIGINT NOT NULL REFERENCES medicines(id),
	quantity     INT NOT NULL CHECK (quantity >= 0),
	status       TEXT NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (pharmacy_id, medicine_id)
);

CREATE TABLE IF NOT EXISTS reservations (
	id                BIGSERIAL PRIMARY KEY,
	patient_id        BIGINT NOT NULL REFERENCES users(id),
	pharmacy_id       BIGINT NOT NULL REFERENCES pharmacies(id),
	medicine_id       BIGINT NOT NULL REFERENCES medicines(id),
	quantity          INT NOT NULL CHECK (quantity > 0),
	status            TEXT NOT NULL,
	request_time      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	accepted_time     TIMESTAMPTZ,
	rejected_time     TIMESTAMPTZ,
	no_response_time  TIMESTAMPTZ,
	patient_phone     TEXT,
	note              TEXT,
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_reservations_pending_overdue
	ON reservations (request_time) WHERE status = 'PENDING';

CREATE TABLE IF NOT EXISTS notifications (
	id          BIGSERIAL PRIMARY KEY,
	user_id     BIGINT NOT NULL REFERENCES users(id),
	type        TEXT NOT NULL,
	title       TEXT NOT NULL,
	message     TEXT NOT NULL,
	is_read     BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS processed_events (
	event_id      TEXT PRIMARY KEY,
	event_type    TEXT NOT NULL,
	processed_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// Bootstrap applies the idempotent schema. Callers serialize it behind
// the Redis startup lock; re-running it is harmless either way.
func (s *Store) Bootstrap(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}
