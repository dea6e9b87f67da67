package rest

import (
	"context"

	"github.com/bwise1/huddle_karma/internal/model"
	"github.com/bwise1/huddle_karma/util"
	"github.com/bwise1/huddle_karma/util/values"
	"github.com/google/uuid"
)

func (api *API) CreateHuddleHelper(ctx context.Context, creatorID uuid.UUID, req model.CreateHuddleRequest) (model.HuddleView, string, string, error) {
	huddle, err := api.Deps.Huddles.Create(ctx, creatorID, req)
	if err != nil {
		status, message := util.ErrorStatus(err, "Failed to create huddle")
		return model.HuddleView{}, status, message, err
	}
	return huddle, values.Success, "Huddle created successfully", nil
}

func (api *API) GetNearbyHuddlesHelper(ctx context.Context, viewerID uuid.UUID, q model.NearbyQuery) ([]model.HuddleView, string, string, error) {
	huddles, err := api.Deps.Huddles.Nearby(ctx, viewerID, q)
	if err != nil {
		status, message := util.ErrorStatus(err, "Failed to fetch nearby huddles")
		return nil, status, message, err
	}
	return huddles, values.Success, "Nearby huddles fetched successfully", nil
}

func (api *API) GetHuddleHelper(ctx context.Context, huddleID, viewerID uuid.UUID) (model.HuddleView, string, string, error) {
	huddle, err := api.Deps.Huddles.Get(ctx, huddleID, viewerID)
	if err != nil {
		status, message := util.ErrorStatus(err, "Failed to fetch huddle")
		return model.HuddleView{}, status, message, err
	}
	return huddle, values.Success, "Huddle fetched successfully", nil
}

func (api *API) JoinHuddleHelper(ctx context.Context, huddleID, userID uuid.UUID) (model.HuddleView, string, string, error) {
	huddle, err := api.Deps.Huddles.Join(ctx, huddleID, userID)
	if err != nil {
		status, message := util.ErrorStatus(err, "Failed to join huddle")
		return model.HuddleView{}, status, message, err
	}
	return huddle, values.Success, "Joined huddle successfully", nil
}

func (api *API) LeaveHuddleHelper(ctx context.Context, huddleID, userID uuid.UUID) (model.HuddleView, string, string, error) {
	huddle, err := api.Deps.Huddles.Leave(ctx, huddleID, userID)
	if err != nil {
		status, message := util.ErrorStatus(err, "Failed to leave huddle")
		return model.HuddleView{}, status, message, err
	}
	return huddle, values.Success, "Left huddle successfully", nil
}

func (api *API) CompleteHuddleHelper(ctx context.Context, huddleID, requesterID uuid.UUID) (model.HuddleView, string, string, error) {
	huddle, err := api.Deps.Huddles.Complete(ctx, huddleID, requesterID)
	if err != nil {
		status, message := util.ErrorStatus(err, "Failed to complete huddle")
		return model.HuddleView{}, status, message, err
	}
	return huddle, values.Success, "Huddle completed successfully", nil
}

func (api *API) CancelHuddleHelper(ctx context.Context, huddleID, requesterID uuid.UUID) (model.HuddleView, string, string, error) {
	huddle, err := api.Deps.Huddles.Cancel(ctx, huddleID, requesterID)
	if err != nil {
		status, message := util.ErrorStatus(err, "Failed to cancel huddle")
		return model.HuddleView{}, status, message, err
	}
	return huddle, values.Success, "Huddle cancelled successfully", nil
}

func (api *API) GetParticipantsHelper(ctx context.Context, huddleID uuid.UUID) ([]model.ParticipantResponse, string, string, error) {
	huddle, err := api.Deps.Huddles.Get(ctx, huddleID, uuid.Nil)
	if err != nil {
		status, message := util.ErrorStatus(err, "Failed to fetch participants")
		return nil, status, message, err
	}

	members, err := api.Deps.Huddles.Participants(ctx, huddleID)
	if err != nil {
		status, message := util.ErrorStatus(err, "Failed to fetch participants")
		return nil, status, message, err
	}

	participants := make([]model.ParticipantResponse, len(members))
	for i, m := range members {
		participants[i] = model.ParticipantResponse{
			UserID:    m.UserID,
			Alias:     m.Profile.Alias,
			AvatarURL: api.Deps.Cloudinary.AvatarURL(m.Profile.AvatarPublicID),
			IsCreator: m.UserID == huddle.CreatorID,
			JoinedAt:  m.JoinedAt,
		}
	}
	return participants, values.Success, "Participants fetched successfully", nil
}

func (api *API) RemoveParticipantHelper(ctx context.Context, huddleID, requesterID, userID uuid.UUID) (model.HuddleView, string, string, error) {
	huddle, err := api.Deps.Huddles.RemoveParticipant(ctx, huddleID, requesterID, userID)
	if err != nil {
		status, message := util.ErrorStatus(err, "Failed to remove participant")
		return model.HuddleView{}, status, message, err
	}
	return huddle, values.Success, "Participant removed successfully", nil
}

func (api *API) GetMyVibeChecksHelper(ctx context.Context, huddleID, reviewerID uuid.UUID) ([]model.VibeCheck, string, string, error) {
	checks, err := api.Deps.VibeChecks.Mine(ctx, huddleID, reviewerID)
	if err != nil {
		status, message := util.ErrorStatus(err, "Failed to fetch vibe checks")
		return nil, status, message, err
	}
	return checks, values.Success, "Vibe checks fetched successfully", nil
}
