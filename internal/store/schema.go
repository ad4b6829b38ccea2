package store

import (
	"context"
	"database/sql"
)

const schema = `
	CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY DEFAULT (gen_random_uuid()::text),
		email         TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		first_name    TEXT NOT NULL DEFAULT '',
		last_name     TEXT NOT NULL DEFAULT '',
		role          TEXT NOT NULL,
		department    TEXT NOT NULL DEFAULT '',
		phone         TEXT NOT NULL DEFAULT '',
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS student_profiles (
		user_id        TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		roll_number    TEXT UNIQUE NOT NULL,
		class_name     TEXT NOT NULL DEFAULT '',
		section        TEXT NOT NULL DEFAULT '',
		year           INT NOT NULL DEFAULT 1,
		residency_type TEXT NOT NULL,
		parent_phone   TEXT NOT NULL DEFAULT '',
		parent_email   TEXT NOT NULL DEFAULT '',
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS gate_passes (
		id               TEXT PRIMARY KEY,
		student_id       TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		pass_type        TEXT NOT NULL,
		reason           TEXT NOT NULL,
		out_datetime     TIMESTAMPTZ NOT NULL,
		in_datetime      TIMESTAMPTZ NOT NULL,
		status           TEXT NOT NULL DEFAULT 'pending',
		approved_by      TEXT REFERENCES users(id) ON DELETE SET NULL,
		approver_comment TEXT NOT NULL DEFAULT '',
		qr_token         TEXT UNIQUE NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS gate_logs (
		id           TEXT PRIMARY KEY,
		gate_pass_id TEXT NOT NULL REFERENCES gate_passes(id) ON DELETE CASCADE,
		action       TEXT NOT NULL,
		timestamp    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		marked_by    TEXT REFERENCES users(id) ON DELETE SET NULL,
		notes        TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_gate_passes_student ON gate_passes(student_id);
	CREATE INDEX IF NOT EXISTS idx_gate_passes_status  ON gate_passes(status);
	CREATE INDEX IF NOT EXISTS idx_gate_logs_pass      ON gate_logs(gate_pass_id);
`

// EnsureSchema applies the idempotent schema. Every entrypoint runs it at
// startup, so a fresh database needs no manual provisioning.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
