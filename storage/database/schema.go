package database

import (
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// schema bootstraps the tables on startup. Statements are idempotent so a
// restart against an existing database is a no-op.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS "user" (
		id            UUID PRIMARY KEY,
		full_name     TEXT NOT NULL DEFAULT '',
		username      TEXT NOT NULL UNIQUE,
		email         TEXT NOT NULL UNIQUE,
		track         TEXT NOT NULL DEFAULT '',
		avatar_url    TEXT NOT NULL DEFAULT '',
		bio           TEXT NOT NULL DEFAULT '',
		location      TEXT NOT NULL DEFAULT '',
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		roles         JSONB NOT NULL DEFAULT '[]',
		password_hash BYTEA,
		join_date     TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL,
		last_login    TIMESTAMPTZ NOT NULL DEFAULT 'epoch'
	)`,

	`CREATE TABLE IF NOT EXISTS course (
		id               UUID PRIMARY KEY,
		title            TEXT NOT NULL,
		subtitle         TEXT NOT NULL DEFAULT '',
		description      TEXT NOT NULL DEFAULT '',
		author_id        UUID NOT NULL,
		provider         JSONB NOT NULL DEFAULT '{}',
		thumbnail_url    TEXT NOT NULL DEFAULT '',
		rating           DOUBLE PRECISION NOT NULL DEFAULT 0,
		review_count     INTEGER NOT NULL DEFAULT 0,
		enrollment_count INTEGER NOT NULL DEFAULT 0,
		difficulty       TEXT NOT NULL DEFAULT '',
		duration_text    TEXT NOT NULL DEFAULT '',
		category         TEXT NOT NULL DEFAULT '',
		price            DOUBLE PRECISION NOT NULL DEFAULT 0,
		skills           JSONB NOT NULL DEFAULT '[]',
		what_youll_learn JSONB NOT NULL DEFAULT '[]',
		requirements     JSONB NOT NULL DEFAULT '[]',
		status           TEXT NOT NULL,
		curriculum       JSONB NOT NULL DEFAULT '{}',
		published_date   TIMESTAMPTZ NOT NULL DEFAULT 'epoch',
		created_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS course_author_idx ON course (author_id)`,
	`CREATE INDEX IF NOT EXISTS course_status_idx ON course (status)`,

	`CREATE TABLE IF NOT EXISTS enrollment (
		user_id          UUID NOT NULL,
		course_id        UUID NOT NULL,
		progress_percent INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (user_id, course_id)
	)`,

	`CREATE TABLE IF NOT EXISTS banner (
		id            UUID PRIMARY KEY,
		title         TEXT NOT NULL,
		description   TEXT NOT NULL DEFAULT '',
		image_url     TEXT NOT NULL,
		target_url    TEXT NOT NULL DEFAULT '',
		visibility    TEXT NOT NULL,
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		schedule_date TIMESTAMPTZ,
		expiry_date   TIMESTAMPTZ,
		display_order INTEGER NOT NULL DEFAULT 0,
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
}

func EnsureSchema(db *sqlx.DB) error {
	if err := ping(db); err != nil {
		return err
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return errors.Wrap(err, "ensuring schema")
		}
	}
	return nil
}
