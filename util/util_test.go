package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/bwise1/huddle_karma/internal/apperr"
	"github.com/bwise1/huddle_karma/util/tracing"
	"github.com/bwise1/huddle_karma/util/values"
	"github.com/google/uuid"
)

func TestErrorStatus(t *testing.T) {
	testCases := []struct {
		name        string
		err         error
		wantStatus  string
		wantMessage string
		wantCode    int
	}{
		{"validation", apperr.Validation("rating must be between 1 and 5"), values.BadRequestBody, "rating must be between 1 and 5", http.StatusBadRequest},
		{"forbidden", apperr.Forbidden("only the creator can complete this huddle"), values.NotAllowed, "only the creator can complete this huddle", http.StatusForbidden},
		{"not found", apperr.NotFound("huddle missing"), values.NotFound, "huddle missing", http.StatusNotFound},
		{"conflict", apperr.Conflict("huddle is full"), values.Conflict, "huddle is full", http.StatusConflict},
		{"wrapped conflict", fmt.Errorf("join: %w", apperr.Conflict("huddle is full")), values.Conflict, "huddle is full", http.StatusConflict},
		{"internal", fmt.Errorf("connection reset"), values.Error, "fallback", http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, message := ErrorStatus(tc.err, "fallback")
			if status != tc.wantStatus || message != tc.wantMessage {
				t.Errorf("ErrorStatus() = %q, %q; want %q, %q", status, message, tc.wantStatus, tc.wantMessage)
			}
			if code := StatusCode(status); code != tc.wantCode {
				t.Errorf("StatusCode(%q) = %d; want %d", status, code, tc.wantCode)
			}
		})
	}
}

func TestStatusCodeDefaultsToOK(t *testing.T) {
	for _, status := range []string{values.Success, "", "anything"} {
		if got := StatusCode(status); got != http.StatusOK {
			t.Errorf("StatusCode(%q) = %d; want 200", status, got)
		}
	}
}

func TestDecodeJSONBody(t *testing.T) {
	tc := tracing.Context{RequestID: "req-1", RequestSource: "test"}

	var target struct {
		Rating int `json:"rating"`
	}
	if err := DecodeJSONBody(&tc, io.NopCloser(strings.NewReader(`{"rating":4}`)), &target); err != nil {
		t.Fatalf("DecodeJSONBody() error = %v", err)
	}
	if target.Rating != 4 {
		t.Errorf("rating = %d; want 4", target.Rating)
	}

	if err := DecodeJSONBody(&tc, io.NopCloser(strings.NewReader(`{"rating":`)), &target); err == nil {
		t.Error("expected error for truncated body")
	}
	if err := DecodeJSONBody(&tc, nil, &target); err == nil {
		t.Error("expected error for nil body")
	}
}

func TestGetUserIDFromContext(t *testing.T) {
	id := uuid.New()

	got, err := GetUserIDFromContext(context.WithValue(context.Background(), values.ContextUserIDKey, id.String()))
	if err != nil || got != id {
		t.Errorf("GetUserIDFromContext() = %v, %v; want %v", got, err, id)
	}

	if _, err := GetUserIDFromContext(context.Background()); err == nil {
		t.Error("expected error for missing user id")
	}
	if _, err := GetUserIDFromContext(context.WithValue(context.Background(), values.ContextUserIDKey, "nope")); err == nil {
		t.Error("expected error for malformed user id")
	}
}

func TestQueryFloat(t *testing.T) {
	q := url.Values{"radius": {"2.5"}, "lat": {" "}, "lon": {"abc"}}

	testCases := []struct {
		name    string
		keys    []string
		want    float64
		wantOK  bool
		wantErr bool
	}{
		{"alias", []string{"radiusKm", "radius"}, 2.5, true, false},
		{"blank", []string{"lat"}, 0, false, false},
		{"absent", []string{"missing"}, 0, false, false},
		{"malformed", []string{"lon"}, 0, true, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok, err := QueryFloat(q, tc.keys...)
			if (err != nil) != tc.wantErr || ok != tc.wantOK || got != tc.want {
				t.Errorf("QueryFloat(%v) = %v, %v, %v", tc.keys, got, ok, err)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" open, full ,,cancelled")
	want := []string{"OPEN", "FULL", "CANCELLED"}
	if len(got) != len(want) {
		t.Fatalf("SplitList() = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SplitList()[%d] = %q; want %q", i, got[i], want[i])
		}
	}
	if SplitList("") != nil {
		t.Error("SplitList(\"\") should be nil")
	}
}

func TestValidateStructCoordinates(t *testing.T) {
	type point struct {
		Lat *float64 `validate:"required,latitude"`
		Lon *float64 `validate:"required,longitude"`
	}
	lat, lon, bad := 12.97, 77.59, 200.0

	if err := ValidateStruct(point{Lat: &lat, Lon: &lon}); err != nil {
		t.Errorf("ValidateStruct(valid) error = %v", err)
	}

	err := ValidateStruct(point{Lat: &lat, Lon: &bad})
	if err == nil {
		t.Fatal("expected error for out of range longitude")
	}
	if msg := ValidationMessage(err); !strings.Contains(msg, "Lon failed longitude") {
		t.Errorf("ValidationMessage() = %q", msg)
	}

	if err := ValidateStruct(point{Lon: &lon}); err == nil {
		t.Error("expected error for missing latitude")
	}
}
