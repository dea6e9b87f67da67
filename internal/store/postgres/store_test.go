package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: constraintVibeCheckKey}

	testCases := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{"matching constraint", dup, constraintVibeCheckKey, true},
		{"wrapped", fmt.Errorf("insert: %w", dup), constraintVibeCheckKey, true},
		{"other constraint", dup, constraintKarmaSource, false},
		{"other code", &pgconn.PgError{Code: "23503", ConstraintName: constraintVibeCheckKey}, constraintVibeCheckKey, false},
		{"plain error", errors.New("boom"), constraintVibeCheckKey, false},
		{"nil", nil, constraintVibeCheckKey, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isUniqueViolation(tc.err, tc.constraint); got != tc.want {
				t.Errorf("isUniqueViolation() = %v; want %v", got, tc.want)
			}
		})
	}
}

func TestUUIDStrings(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	got := uuidStrings([]uuid.UUID{a, b})
	if len(got) != 2 || got[0] != a.String() || got[1] != b.String() {
		t.Errorf("uuidStrings = %v", got)
	}
}
