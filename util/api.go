package util

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bwise1/huddle_karma/internal/apperr"
	"github.com/bwise1/huddle_karma/util/tracing"
	"github.com/bwise1/huddle_karma/util/values"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// StatusCode returns the status code represented
// by the specified status. Note that this function
// returns a status code of 200 by default
func StatusCode(status string) int {
	switch status {
	case values.Error, values.Failed:
		return http.StatusInternalServerError
	case values.Created:
		return http.StatusCreated
	case values.BadRequestBody:
		return http.StatusBadRequest
	case values.Unprocessable:
		return http.StatusUnprocessableEntity
	case values.NotAllowed:
		return http.StatusForbidden
	case values.Conflict:
		return http.StatusConflict
	case values.NotFound:
		return http.StatusNotFound
	case values.NotAuthorised, values.TokenExpired:
		return http.StatusUnauthorized
	case values.ActiveLogin:
		return http.StatusForbidden
	default:
		return http.StatusOK
	}
}

// ErrorStatus maps an engine error to a response status and a client-safe
// message. Unclassified errors keep the fallback message.
func ErrorStatus(err error, fallback string) (string, string) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		return values.Error, fallback
	}

	switch appErr.Kind {
	case apperr.KindValidation:
		return values.BadRequestBody, appErr.Message
	case apperr.KindForbidden:
		return values.NotAllowed, appErr.Message
	case apperr.KindNotFound:
		return values.NotFound, appErr.Message
	case apperr.KindConflict:
		return values.Conflict, appErr.Message
	default:
		return values.Error, fallback
	}
}

// DecodeJSONBody ...
func DecodeJSONBody(tc *tracing.Context, body io.ReadCloser, target interface{}) error {
	if body == nil {
		return fmt.Errorf("missing request body for request: %v", tc)
	}
	defer func() {
		_ = body.Close()
	}()

	if err := json.NewDecoder(body).Decode(target); err != nil {
		return errors.Wrapf(err, "Error parsing json body for request: %v", tc)
	}

	return nil
}

// GetUserIDFromContext extracts the user ID from the context.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, error) {
	userIDStr, ok := ctx.Value(values.ContextUserIDKey).(string)
	if !ok || userIDStr == "" {
		return uuid.Nil, errors.New("user ID not found in context")
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, errors.New("invalid user ID format")
	}

	return userID, nil
}
