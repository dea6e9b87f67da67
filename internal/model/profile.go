package model

import "github.com/google/uuid"

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

// Profile is the slice of a user profile this service reads. Profiles are
// owned by the profile service; rows here are never written by the API.
type Profile struct {
	UserID         uuid.UUID `json:"userId"`
	Alias          string    `json:"alias"`
	AvatarPublicID string    `json:"-"`
	Gender         Gender    `json:"gender,omitempty"`
}
