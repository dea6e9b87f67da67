package model

import (
	"time"

	"github.com/google/uuid"
)

type ParticipantStatus string

const (
	ParticipantJoined  ParticipantStatus = "JOINED"
	ParticipantLeft    ParticipantStatus = "LEFT"
	ParticipantRemoved ParticipantStatus = "REMOVED"
)

// Participant is the single row a user holds for a huddle. Only JOINED rows
// count toward the roster.
type Participant struct {
	HuddleID  uuid.UUID         `json:"huddleId"`
	UserID    uuid.UUID         `json:"userId"`
	Status    ParticipantStatus `json:"status"`
	JoinedAt  time.Time         `json:"joinedAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

type ParticipantResponse struct {
	UserID    uuid.UUID `json:"userId"`
	Alias     string    `json:"alias"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	IsCreator bool      `json:"isCreator"`
	JoinedAt  time.Time `json:"joinedAt"`
}
