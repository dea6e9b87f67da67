package rest

import (
	"net/http"

	"github.com/bwise1/huddle_karma/internal/model"
	"github.com/bwise1/huddle_karma/util"
	"github.com/bwise1/huddle_karma/util/tracing"
	"github.com/bwise1/huddle_karma/util/values"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (api *API) KarmaRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Group(func(r chi.Router) {
		r.Use(api.RequireLogin)
		r.Method(http.MethodPost, "/vibe-check", Handler(api.SubmitVibeCheck))
		r.Method(http.MethodGet, "/score", Handler(api.GetMyScore))
		r.Method(http.MethodGet, "/users/{userID}/score", Handler(api.GetUserScore))
		r.Method(http.MethodGet, "/history", Handler(api.GetKarmaHistory))
		r.Method(http.MethodPost, "/daily-login", Handler(api.ClaimDailyLogin))
	})

	return mux
}

func (api *API) SubmitVibeCheck(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	var req model.SubmitVibeCheckRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}

	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, util.ValidationMessage(err), values.BadRequestBody, &tc)
	}

	reviewerID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	result, status, message, err := api.SubmitVibeCheckHelper(r.Context(), reviewerID, req)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return respondWithData(result, message, status)
}

func (api *API) GetMyScore(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	score, status, message, err := api.GetScoreHelper(r.Context(), userID)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return respondWithData(score, message, status)
}

func (api *API) GetUserScore(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		return respondWithError(err, "invalid user id", values.BadRequestBody, &tc)
	}

	score, status, message, err := api.GetScoreHelper(r.Context(), userID)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return respondWithData(score, message, status)
}

func (api *API) GetKarmaHistory(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	history, status, message, err := api.GetKarmaHistoryHelper(r.Context(), userID)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return respondWithData(history, message, status)
}

func (api *API) ClaimDailyLogin(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	entry, status, message, err := api.ClaimDailyLoginHelper(r.Context(), userID)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return respondWithData(entry, message, status)
}
