// Package postgres implements the huddle, karma, vibe-check and profile
// stores on top of pgx.
package postgres

import (
	"errors"

	"github.com/bwise1/huddle_karma/internal/db"
	"github.com/bwise1/huddle_karma/internal/huddle"
	"github.com/bwise1/huddle_karma/internal/karma"
	"github.com/bwise1/huddle_karma/internal/vibecheck"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation = "23505"

	constraintParticipant  = "huddle_participants_pkey"
	constraintKarmaSource  = "karma_transactions_once_per_source_key"
	constraintVibeCheckKey = "vibe_checks_unique_review"
)

type Store struct {
	db *db.DB
}

var (
	_ huddle.Store         = (*Store)(nil)
	_ huddle.ProfileSource = (*Store)(nil)
	_ karma.Store          = (*Store)(nil)
	_ vibecheck.Store      = (*Store)(nil)
)

func New(database *db.DB) *Store {
	return &Store{db: database}
}

// isUniqueViolation reports whether err is a unique violation on constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraint
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
