package rest

import (
	"context"

	"github.com/bwise1/huddle_karma/internal/model"
	"github.com/bwise1/huddle_karma/util"
	"github.com/bwise1/huddle_karma/util/values"
	"github.com/google/uuid"
)

func (api *API) SubmitVibeCheckHelper(ctx context.Context, reviewerID uuid.UUID, req model.SubmitVibeCheckRequest) (model.VibeCheckResponse, string, string, error) {
	result, err := api.Deps.VibeChecks.Submit(ctx, reviewerID, req)
	if err != nil {
		status, message := util.ErrorStatus(err, "Failed to submit vibe check")
		return model.VibeCheckResponse{}, status, message, err
	}
	return result, values.Success, "Vibe check submitted successfully", nil
}

func (api *API) GetScoreHelper(ctx context.Context, userID uuid.UUID) (model.KarmaScore, string, string, error) {
	score, err := api.Deps.Ledger.Score(ctx, userID)
	if err != nil {
		status, message := util.ErrorStatus(err, "Failed to fetch karma score")
		return model.KarmaScore{}, status, message, err
	}
	return score, values.Success, "Karma score fetched successfully", nil
}

func (api *API) GetKarmaHistoryHelper(ctx context.Context, userID uuid.UUID) ([]model.KarmaTransaction, string, string, error) {
	history, err := api.Deps.Ledger.History(ctx, userID)
	if err != nil {
		status, message := util.ErrorStatus(err, "Failed to fetch karma history")
		return nil, status, message, err
	}
	return history, values.Success, "Karma history fetched successfully", nil
}

func (api *API) ClaimDailyLoginHelper(ctx context.Context, userID uuid.UUID) (model.KarmaTransaction, string, string, error) {
	entry, err := api.Deps.Ledger.ClaimDailyLogin(ctx, userID)
	if err != nil {
		status, message := util.ErrorStatus(err, "Failed to claim daily login")
		return model.KarmaTransaction{}, status, message, err
	}
	return entry, values.Success, "Daily login karma awarded", nil
}
