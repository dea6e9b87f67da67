package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("bad %s", "input"), KindValidation},
		{"forbidden", Forbidden("no"), KindForbidden},
		{"not found", NotFound("missing"), KindNotFound},
		{"conflict", Conflict("twice"), KindConflict},
		{"wrapped", fmt.Errorf("outer: %w", Conflict("inner")), KindConflict},
		{"plain", errors.New("boom"), KindInternal},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Errorf("KindOf(%v) = %v; want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestMessageFormatting(t *testing.T) {
	err := Validation("rating must be between %d and %d", 1, 5)
	if err.Error() != "rating must be between 1 and 5" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if Is(nil, KindValidation) {
		t.Error("Is(nil) should be false")
	}
}
