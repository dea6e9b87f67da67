package model

import (
	"time"

	"github.com/google/uuid"
)

type HuddleStatus string

const (
	HuddleOpen      HuddleStatus = "OPEN"
	HuddleFull      HuddleStatus = "FULL"
	HuddleCancelled HuddleStatus = "CANCELLED"
	HuddleCompleted HuddleStatus = "COMPLETED"
)

// Terminal statuses accept no further transitions.
func (s HuddleStatus) Terminal() bool {
	return s == HuddleCancelled || s == HuddleCompleted
}

func (s HuddleStatus) Valid() bool {
	switch s {
	case HuddleOpen, HuddleFull, HuddleCancelled, HuddleCompleted:
		return true
	}
	return false
}

type GenderFilter string

const (
	GenderFilterEveryone  GenderFilter = "EVERYONE"
	GenderFilterWomenOnly GenderFilter = "WOMEN_ONLY"
	GenderFilterMenOnly   GenderFilter = "MEN_ONLY"
)

func (f GenderFilter) Valid() bool {
	switch f {
	case GenderFilterEveryone, GenderFilterWomenOnly, GenderFilterMenOnly:
		return true
	}
	return false
}

// Admits reports whether a user who declared gender g may join. An undeclared
// gender only passes the EVERYONE filter.
func (f GenderFilter) Admits(g Gender) bool {
	switch f {
	case GenderFilterWomenOnly:
		return g == GenderFemale
	case GenderFilterMenOnly:
		return g == GenderMale
	default:
		return true
	}
}

type Huddle struct {
	ID              uuid.UUID    `json:"id"`
	CreatorID       uuid.UUID    `json:"creatorId"`
	Title           string       `json:"title"`
	Description     string       `json:"description,omitempty"`
	Lat             float64      `json:"lat"`
	Lon             float64      `json:"lon"`
	LocationName    string       `json:"locationName,omitempty"`
	Geohash         string       `json:"geohash,omitempty"`
	StartTime       time.Time    `json:"startTime"`
	EndTime         time.Time    `json:"endTime"`
	MaxParticipants int          `json:"maxParticipants"`
	GenderFilter    GenderFilter `json:"genderFilter"`
	Status          HuddleStatus `json:"status"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// HuddleView is a huddle as seen by one caller.
type HuddleView struct {
	Huddle
	CurrentParticipants int      `json:"currentParticipants"`
	DistanceKm          *float64 `json:"distanceKm,omitempty"`
	IsJoined            bool     `json:"isJoined"`
}

type CreateHuddleRequest struct {
	Title           string       `json:"title" validate:"required,max=100"`
	Description     string       `json:"description" validate:"max=2000"`
	Lat             *float64     `json:"lat" validate:"required,latitude"`
	Lon             *float64     `json:"lon" validate:"required,longitude"`
	LocationName    string       `json:"locationName" validate:"max=255"`
	StartTime       time.Time    `json:"startTime" validate:"required"`
	EndTime         time.Time    `json:"endTime" validate:"required"`
	MaxParticipants *int         `json:"maxParticipants"`
	GenderFilter    GenderFilter `json:"genderFilter" validate:"omitempty,oneof=EVERYONE WOMEN_ONLY MEN_ONLY"`
}

type NearbyQuery struct {
	Lat      float64
	Lon      float64
	RadiusKm float64
	Statuses []HuddleStatus
}
