// Package vibecheck admits peer ratings for completed huddles and turns each
// admitted rating into exactly one karma entry for the reviewee.
package vibecheck

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwise1/huddle_karma/internal/apperr"
	"github.com/bwise1/huddle_karma/internal/huddle"
	"github.com/bwise1/huddle_karma/internal/karma"
	"github.com/bwise1/huddle_karma/internal/model"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	MinRating    = 1
	MaxRating    = 5
	MaxTags      = 10
	MaxTagLength = 32
)

var ErrDuplicate = errors.New("vibe check already submitted")

// AwardFunc appends the reviewee's karma entry through app.
type AwardFunc func(ctx context.Context, app karma.Appender) (model.KarmaTransaction, error)

type Store interface {
	// Submit persists vc and runs award in the same transaction. A second row
	// for the same (huddle, reviewer, reviewee) fails with ErrDuplicate.
	Submit(ctx context.Context, vc model.VibeCheck, award AwardFunc) (model.KarmaTransaction, error)
	ListByReviewer(ctx context.Context, huddleID, reviewerID uuid.UUID) ([]model.VibeCheck, error)
}

// HuddleReader is the read side of huddle.Store the gate depends on.
type HuddleReader interface {
	Get(ctx context.Context, id uuid.UUID) (model.Huddle, error)
	Roster(ctx context.Context, id uuid.UUID) ([]model.Participant, error)
}

type Gate struct {
	store   Store
	huddles HuddleReader
	ledger  *karma.Ledger
	now     func() time.Time
}

func NewGate(store Store, huddles HuddleReader, ledger *karma.Ledger, now func() time.Time) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{store: store, huddles: huddles, ledger: ledger, now: now}
}

func (g *Gate) Submit(ctx context.Context, reviewerID uuid.UUID, req model.SubmitVibeCheckRequest) (model.VibeCheckResponse, error) {
	h, err := g.huddles.Get(ctx, req.HuddleID)
	if errors.Is(err, huddle.ErrNotFound) {
		return model.VibeCheckResponse{}, apperr.NotFound("huddle %s not found", req.HuddleID)
	}
	if err != nil {
		return model.VibeCheckResponse{}, fmt.Errorf("get huddle: %w", err)
	}

	switch h.Status {
	case model.HuddleCompleted:
	case model.HuddleCancelled:
		return model.VibeCheckResponse{}, apperr.Conflict("huddle was cancelled")
	default:
		return model.VibeCheckResponse{}, apperr.Conflict("huddle not completed yet")
	}

	if req.Rating < MinRating || req.Rating > MaxRating {
		return model.VibeCheckResponse{}, apperr.Validation("rating must be between %d and %d", MinRating, MaxRating)
	}
	tags, err := normalizeTags(req.Tags)
	if err != nil {
		return model.VibeCheckResponse{}, err
	}

	if reviewerID == req.RevieweeID {
		return model.VibeCheckResponse{}, apperr.Forbidden("you cannot rate yourself")
	}
	if err := g.requireParticipants(ctx, h, reviewerID, req.RevieweeID); err != nil {
		return model.VibeCheckResponse{}, err
	}

	vc := model.VibeCheck{
		ID:         uuid.New(),
		HuddleID:   h.ID,
		ReviewerID: reviewerID,
		RevieweeID: req.RevieweeID,
		Rating:     req.Rating,
		Tags:       tags,
		CreatedAt:  g.now().UTC(),
	}

	entry, err := g.store.Submit(ctx, vc, func(ctx context.Context, app karma.Appender) (model.KarmaTransaction, error) {
		return g.ledger.AwardVia(ctx, app, vc.RevieweeID, g.ledger.RatingAmount(vc.Rating), model.KarmaSourceVibeCheck,
			h.ID.String(), fmt.Sprintf("Vibe check from %s", h.Title))
	})
	if errors.Is(err, ErrDuplicate) {
		return model.VibeCheckResponse{}, apperr.Conflict("you already rated this user for this huddle")
	}
	if err != nil {
		return model.VibeCheckResponse{}, err
	}

	log.WithFields(log.Fields{
		"huddle_id":   h.ID,
		"reviewer_id": reviewerID,
		"reviewee_id": req.RevieweeID,
		"rating":      req.Rating,
	}).Info("vibe check submitted")

	return model.VibeCheckResponse{VibeCheck: vc, Transaction: entry}, nil
}

func (g *Gate) requireParticipants(ctx context.Context, h model.Huddle, reviewerID, revieweeID uuid.UUID) error {
	roster, err := g.huddles.Roster(ctx, h.ID)
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}

	onRoster := map[uuid.UUID]bool{h.CreatorID: true}
	for _, p := range roster {
		onRoster[p.UserID] = true
	}

	if !onRoster[reviewerID] {
		return apperr.Forbidden("only participants can rate this huddle")
	}
	if !onRoster[revieweeID] {
		return apperr.Forbidden("reviewee was not a participant of this huddle")
	}
	return nil
}

// Mine lists the ratings reviewerID has already given for a huddle.
func (g *Gate) Mine(ctx context.Context, huddleID, reviewerID uuid.UUID) ([]model.VibeCheck, error) {
	if _, err := g.huddles.Get(ctx, huddleID); err != nil {
		if errors.Is(err, huddle.ErrNotFound) {
			return nil, apperr.NotFound("huddle %s not found", huddleID)
		}
		return nil, fmt.Errorf("get huddle: %w", err)
	}

	checks, err := g.store.ListByReviewer(ctx, huddleID, reviewerID)
	if err != nil {
		return nil, fmt.Errorf("list vibe checks: %w", err)
	}
	if checks == nil {
		checks = []model.VibeCheck{}
	}
	return checks, nil
}

// normalizeTags trims tags, drops blanks and removes case-insensitive repeats.
func normalizeTags(raw []string) ([]string, error) {
	tags := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))

	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if len([]rune(t)) > MaxTagLength {
			return nil, apperr.Validation("tag %q is longer than %d characters", t, MaxTagLength)
		}
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		tags = append(tags, t)
	}

	if len(tags) > MaxTags {
		return nil, apperr.Validation("at most %d tags are allowed", MaxTags)
	}
	return tags, nil
}
