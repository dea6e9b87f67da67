package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type migration struct {
	version int
	name    string
	sql     string
}

// migrations are applied in order and recorded in schema_migrations.
// Append only; never edit an applied entry.
var migrations = []migration{
	{
		version: 1,
		name:    "profiles",
		sql: `
			CREATE TABLE IF NOT EXISTS profiles (
				id               UUID PRIMARY KEY,
				alias            TEXT NOT NULL DEFAULT '',
				avatar_public_id TEXT,
				gender           TEXT CHECK (gender IN ('MALE', 'FEMALE', 'OTHER')),
				updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);`,
	},
	{
		version: 2,
		name:    "huddles",
		sql: `
			CREATE TABLE IF NOT EXISTS huddles (
				id               UUID PRIMARY KEY,
				creator_id       UUID NOT NULL,
				title            VARCHAR(100) NOT NULL,
				description      TEXT NOT NULL DEFAULT '',
				lat              DOUBLE PRECISION NOT NULL CHECK (lat BETWEEN -90 AND 90),
				lon              DOUBLE PRECISION NOT NULL CHECK (lon BETWEEN -180 AND 180),
				location_name    TEXT NOT NULL DEFAULT '',
				geohash          VARCHAR(12) NOT NULL,
				start_time       TIMESTAMPTZ NOT NULL,
				end_time         TIMESTAMPTZ NOT NULL,
				max_participants INTEGER NOT NULL CHECK (max_participants >= 2),
				gender_filter    TEXT NOT NULL DEFAULT 'EVERYONE'
				                 CHECK (gender_filter IN ('EVERYONE', 'WOMEN_ONLY', 'MEN_ONLY')),
				status           TEXT NOT NULL DEFAULT 'OPEN'
				                 CHECK (status IN ('OPEN', 'FULL', 'CANCELLED', 'COMPLETED')),
				created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				CHECK (end_time > start_time)
			);
			CREATE INDEX IF NOT EXISTS huddles_lat_lon_idx ON huddles (lat, lon);
			CREATE INDEX IF NOT EXISTS huddles_status_end_time_idx ON huddles (status, end_time);

			CREATE TABLE IF NOT EXISTS huddle_participants (
				huddle_id  UUID NOT NULL REFERENCES huddles (id),
				user_id    UUID NOT NULL,
				status     TEXT NOT NULL DEFAULT 'JOINED'
				           CHECK (status IN ('JOINED', 'LEFT', 'REMOVED')),
				joined_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				PRIMARY KEY (huddle_id, user_id)
			);
			CREATE INDEX IF NOT EXISTS huddle_participants_user_idx ON huddle_participants (user_id);`,
	},
	{
		version: 3,
		name:    "karma_transactions",
		sql: `
			CREATE TABLE IF NOT EXISTS karma_transactions (
				id          UUID PRIMARY KEY,
				user_id     UUID NOT NULL,
				amount      INTEGER NOT NULL,
				source_type TEXT NOT NULL
				            CHECK (source_type IN ('VIBE_CHECK', 'HUDDLE_HOST', 'DAILY_LOGIN', 'REFERRAL', 'CONTENT_CREATION')),
				source_id   TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS karma_transactions_user_created_idx
				ON karma_transactions (user_id, created_at DESC);
			CREATE UNIQUE INDEX IF NOT EXISTS karma_transactions_once_per_source_key
				ON karma_transactions (user_id, source_type, source_id)
				WHERE source_type IN ('HUDDLE_HOST', 'DAILY_LOGIN', 'REFERRAL');`,
	},
	{
		version: 4,
		name:    "vibe_checks",
		sql: `
			CREATE TABLE IF NOT EXISTS vibe_checks (
				id          UUID PRIMARY KEY,
				huddle_id   UUID NOT NULL REFERENCES huddles (id),
				reviewer_id UUID NOT NULL,
				reviewee_id UUID NOT NULL,
				rating      SMALLINT NOT NULL CHECK (rating BETWEEN 1 AND 5),
				tags        TEXT[] NOT NULL DEFAULT '{}',
				created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				CONSTRAINT vibe_checks_unique_review UNIQUE (huddle_id, reviewer_id, reviewee_id),
				CHECK (reviewer_id <> reviewee_id)
			);`,
	},
}

// Migrate applies every migration newer than the recorded schema version.
func (db *DB) Migrate(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return errors.Wrap(err, "create schema_migrations")
	}

	var current int
	err = db.pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil {
		return errors.Wrap(err, "read schema version")
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		err := db.RunInTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, m.sql); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.version, m.name)
			return err
		})
		if err != nil {
			return errors.Wrapf(err, "apply migration %d_%s", m.version, m.name)
		}

		log.WithFields(log.Fields{"version": m.version, "name": m.name}).Info("migration applied")
	}

	return nil
}
