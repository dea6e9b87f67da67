package model

import (
	"time"

	"github.com/google/uuid"
)

type VibeCheck struct {
	ID         uuid.UUID `json:"id"`
	HuddleID   uuid.UUID `json:"huddleId"`
	ReviewerID uuid.UUID `json:"reviewerId"`
	RevieweeID uuid.UUID `json:"revieweeId"`
	Rating     int       `json:"rating"`
	Tags       []string  `json:"tags"`
	CreatedAt  time.Time `json:"createdAt"`
}

type SubmitVibeCheckRequest struct {
	HuddleID   uuid.UUID `json:"huddleId" validate:"required"`
	RevieweeID uuid.UUID `json:"revieweeId" validate:"required"`
	// Rating range and tags are checked by vibecheck.Gate after the huddle
	// status, so a bad rating on a cancelled huddle still reports the status.
	Rating int      `json:"rating"`
	Tags   []string `json:"tags"`
}

type VibeCheckResponse struct {
	VibeCheck   VibeCheck        `json:"vibeCheck"`
	Transaction KarmaTransaction `json:"transaction"`
}
