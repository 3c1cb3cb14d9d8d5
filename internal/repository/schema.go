package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var schema = []struct {
	name string
	ddl  string
}{
	{"venues", `
CREATE TABLE IF NOT EXISTS venues (
	id UUID PRIMARY KEY,
	owner_id UUID NOT NULL,
	name VARCHAR(255) NOT NULL,
	capacity INTEGER NOT NULL CHECK (capacity > 0),
	price_per_hour BIGINT NOT NULL CHECK (price_per_hour >= 0),
	created_at TIMESTAMP WITH TIME ZONE NOT NULL
);`},
	{"venue_blocked_dates", `
CREATE TABLE IF NOT EXISTS venue_blocked_dates (
	venue_id UUID NOT NULL REFERENCES venues(id),
	blocked_date DATE NOT NULL,
	PRIMARY KEY (venue_id, blocked_date)
);`},
	{"bookings", `
CREATE TABLE IF NOT EXISTS bookings (
	id UUID PRIMARY KEY,
	requester_id UUID NOT NULL,
	venue_id UUID NOT NULL REFERENCES venues(id),
	event_id UUID,
	date DATE NOT NULL,
	start_time TIMESTAMP WITH TIME ZONE NOT NULL,
	end_time TIMESTAMP WITH TIME ZONE NOT NULL,
	expected_guests INTEGER NOT NULL,
	purpose TEXT NOT NULL DEFAULT '',
	total_amount BIGINT NOT NULL,
	platform_fee BIGINT NOT NULL,
	status VARCHAR(32) NOT NULL,
	payment_status VARCHAR(32) NOT NULL,
	payment_ref UUID,
	rejection_reason TEXT NOT NULL DEFAULT '',
	cancellation_reason TEXT NOT NULL DEFAULT '',
	owner_responded_at TIMESTAMP WITH TIME ZONE,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL,
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
	CHECK (end_time > start_time)
);
CREATE INDEX IF NOT EXISTS bookings_venue_window_idx ON bookings (venue_id, start_time, end_time);`},
	{"events", `
CREATE TABLE IF NOT EXISTS events (
	id UUID PRIMARY KEY,
	organizer_id UUID NOT NULL,
	venue_id UUID NOT NULL,
	booking_id UUID,
	title VARCHAR(255) NOT NULL,
	visibility VARCHAR(16) NOT NULL,
	ticket_type VARCHAR(16) NOT NULL,
	ticket_price BIGINT NOT NULL,
	max_attendees INTEGER NOT NULL,
	current_attendees INTEGER NOT NULL DEFAULT 0,
	venue_approval_status VARCHAR(16) NOT NULL,
	venue_approval_reason TEXT NOT NULL DEFAULT '',
	venue_approval_by UUID,
	venue_approval_at TIMESTAMP WITH TIME ZONE,
	admin_approval_status VARCHAR(16) NOT NULL,
	admin_approval_reason TEXT NOT NULL DEFAULT '',
	admin_approval_by UUID,
	admin_approval_at TIMESTAMP WITH TIME ZONE,
	status VARCHAR(16) NOT NULL,
	private_code VARCHAR(32),
	starts_at TIMESTAMP WITH TIME ZONE NOT NULL,
	ends_at TIMESTAMP WITH TIME ZONE NOT NULL,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL,
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
	CHECK (current_attendees >= 0 AND current_attendees <= max_attendees)
);`},
	{"payments", `
CREATE TABLE IF NOT EXISTS payments (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL,
	type VARCHAR(32) NOT NULL,
	reference_kind VARCHAR(16) NOT NULL,
	reference_id UUID NOT NULL,
	amount BIGINT NOT NULL,
	currency CHAR(3) NOT NULL,
	platform_fee_percentage DOUBLE PRECISION NOT NULL,
	platform_fee BIGINT NOT NULL,
	net_amount BIGINT NOT NULL,
	gateway_order_id VARCHAR(255) UNIQUE,
	gateway_transaction_id VARCHAR(255) NOT NULL DEFAULT '',
	gateway_signature VARCHAR(255) NOT NULL DEFAULT '',
	status VARCHAR(16) NOT NULL,
	paid_at TIMESTAMP WITH TIME ZONE,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL,
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
	CHECK (platform_fee + net_amount = amount)
);
CREATE INDEX IF NOT EXISTS payments_reference_idx ON payments (reference_kind, reference_id);
ALTER TABLE payments ADD COLUMN IF NOT EXISTS gateway_signature VARCHAR(255) NOT NULL DEFAULT '';
CREATE INDEX IF NOT EXISTS payments_status_idx ON payments (status, updated_at);`},
	{"tickets", `
CREATE TABLE IF NOT EXISTS tickets (
	id UUID PRIMARY KEY,
	ticket_code VARCHAR(32) NOT NULL UNIQUE,
	user_id UUID NOT NULL,
	event_id UUID NOT NULL REFERENCES events(id),
	qr_payload TEXT NOT NULL,
	ticket_type VARCHAR(16) NOT NULL,
	price BIGINT NOT NULL,
	quantity INTEGER NOT NULL CHECK (quantity > 0),
	payment_ref UUID,
	status VARCHAR(16) NOT NULL,
	is_used BOOLEAN NOT NULL DEFAULT FALSE,
	used_at TIMESTAMP WITH TIME ZONE,
	checked_in_by UUID,
	cancel_reason TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP WITH TIME ZONE NOT NULL,
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL
);`},
	{"refunds", `
CREATE TABLE IF NOT EXISTS refunds (
	id UUID PRIMARY KEY,
	payment_id UUID NOT NULL REFERENCES payments(id),
	user_id UUID NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	amount BIGINT NOT NULL CHECK (amount > 0),
	refund_type VARCHAR(16) NOT NULL,
	status VARCHAR(16) NOT NULL,
	reviewed_by UUID,
	review_notes TEXT NOT NULL DEFAULT '',
	gateway_refund_id VARCHAR(255) NOT NULL DEFAULT '',
	failure_reason TEXT NOT NULL DEFAULT '',
	processed_at TIMESTAMP WITH TIME ZONE,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL,
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL
);
CREATE INDEX IF NOT EXISTS refunds_payment_idx ON refunds (payment_id);`},
	{"ledger_events", `
CREATE TABLE IF NOT EXISTS ledger_events (
	event_id UUID PRIMARY KEY,
	published_at TIMESTAMP WITH TIME ZONE NOT NULL,
	event_name VARCHAR(255) NOT NULL,
	event_payload JSONB NOT NULL
);`},
	{"read_model_event_sales", `
CREATE TABLE IF NOT EXISTS read_model_event_sales (
	event_id UUID PRIMARY KEY,
	payload JSONB NOT NULL
);
CREATE TABLE IF NOT EXISTS read_model_applied_messages (
	message_id VARCHAR(255) PRIMARY KEY,
	applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
);`},
}

func InitializeDBSchema(ctx context.Context, db *sqlx.DB) error {
	for _, table := range schema {
		_, err := db.ExecContext(ctx, table.ddl)
		if err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	return nil
}
