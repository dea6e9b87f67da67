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

func (api *API) HuddleRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Group(func(r chi.Router) {
		r.Use(api.RequireLogin)
		r.Method(http.MethodPost, "/", Handler(api.CreateHuddle))
		r.Method(http.MethodGet, "/", Handler(api.GetNearbyHuddles))

		r.Method(http.MethodGet, "/{huddleID}", Handler(api.GetHuddle))
		r.Method(http.MethodPost, "/{huddleID}/join", Handler(api.JoinHuddle))
		r.Method(http.MethodPost, "/{huddleID}/leave", Handler(api.LeaveHuddle))
		r.Method(http.MethodPost, "/{huddleID}/complete", Handler(api.CompleteHuddle))
		r.Method(http.MethodPost, "/{huddleID}/cancel", Handler(api.CancelHuddle))
		r.Method(http.MethodGet, "/{huddleID}/participants", Handler(api.GetParticipants))
		r.Method(http.MethodDelete, "/{huddleID}/participants/{userID}", Handler(api.RemoveParticipant))
		r.Method(http.MethodGet, "/{huddleID}/vibe-checks", Handler(api.GetMyVibeChecks))
	})

	return mux
}

// huddleRequest pulls the tracing context, the caller and the {huddleID}
// path parameter shared by every huddle route.
func huddleRequest(r *http.Request) (tracing.Context, uuid.UUID, uuid.UUID, *ServerResponse) {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return tc, uuid.Nil, uuid.Nil, respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	huddleID, err := uuid.Parse(chi.URLParam(r, "huddleID"))
	if err != nil {
		return tc, userID, uuid.Nil, respondWithError(err, "invalid huddle id", values.BadRequestBody, &tc)
	}

	return tc, userID, huddleID, nil
}

func (api *API) CreateHuddle(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	var req model.CreateHuddleRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}

	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, util.ValidationMessage(err), values.BadRequestBody, &tc)
	}

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	huddle, status, message, err := api.CreateHuddleHelper(r.Context(), userID, req)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return respondWithData(huddle, message, status)
}

func (api *API) GetNearbyHuddles(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	query := r.URL.Query()

	lat, ok, err := util.QueryFloat(query, "lat", "latitude")
	if err != nil || !ok {
		return respondWithError(err, "lat is required and must be a number", values.BadRequestBody, &tc)
	}
	lon, ok, err := util.QueryFloat(query, "lon", "lng", "longitude")
	if err != nil || !ok {
		return respondWithError(err, "lon is required and must be a number", values.BadRequestBody, &tc)
	}
	radius, _, err := util.QueryFloat(query, "radiusKm", "radius")
	if err != nil {
		return respondWithError(err, "radiusKm must be a number", values.BadRequestBody, &tc)
	}

	q := model.NearbyQuery{Lat: lat, Lon: lon, RadiusKm: radius}
	for _, s := range util.SplitList(query.Get("status")) {
		q.Statuses = append(q.Statuses, model.HuddleStatus(s))
	}

	huddles, status, message, err := api.GetNearbyHuddlesHelper(r.Context(), userID, q)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return respondWithData(huddles, message, status)
}

func (api *API) GetHuddle(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc, userID, huddleID, errResp := huddleRequest(r)
	if errResp != nil {
		return errResp
	}

	huddle, status, message, err := api.GetHuddleHelper(r.Context(), huddleID, userID)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return respondWithData(huddle, message, status)
}

func (api *API) JoinHuddle(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc, userID, huddleID, errResp := huddleRequest(r)
	if errResp != nil {
		return errResp
	}

	huddle, status, message, err := api.JoinHuddleHelper(r.Context(), huddleID, userID)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return respondWithData(huddle, message, status)
}

func (api *API) LeaveHuddle(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc, userID, huddleID, errResp := huddleRequest(r)
	if errResp != nil {
		return errResp
	}

	huddle, status, message, err := api.LeaveHuddleHelper(r.Context(), huddleID, userID)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return respondWithData(huddle, message, status)
}

func (api *API) CompleteHuddle(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc, userID, huddleID, errResp := huddleRequest(r)
	if errResp != nil {
		return errResp
	}

	huddle, status, message, err := api.CompleteHuddleHelper(r.Context(), huddleID, userID)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return respondWithData(huddle, message, status)
}

func (api *API) CancelHuddle(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc, userID, huddleID, errResp := huddleRequest(r)
	if errResp != nil {
		return errResp
	}

	huddle, status, message, err := api.CancelHuddleHelper(r.Context(), huddleID, userID)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return respondWithData(huddle, message, status)
}

func (api *API) GetParticipants(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc, _, huddleID, errResp := huddleRequest(r)
	if errResp != nil {
		return errResp
	}

	participants, status, message, err := api.GetParticipantsHelper(r.Context(), huddleID)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return respondWithData(participants, message, status)
}

func (api *API) RemoveParticipant(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc, requesterID, huddleID, errResp := huddleRequest(r)
	if errResp != nil {
		return errResp
	}

	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		return respondWithError(err, "invalid user id", values.BadRequestBody, &tc)
	}

	huddle, status, message, err := api.RemoveParticipantHelper(r.Context(), huddleID, requesterID, userID)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return respondWithData(huddle, message, status)
}

func (api *API) GetMyVibeChecks(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc, userID, huddleID, errResp := huddleRequest(r)
	if errResp != nil {
		return errResp
	}

	checks, status, message, err := api.GetMyVibeChecksHelper(r.Context(), huddleID, userID)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return respondWithData(checks, message, status)
}
