package model

import (
	"time"

	"github.com/google/uuid"
)

type KarmaSource string

const (
	KarmaSourceVibeCheck       KarmaSource = "VIBE_CHECK"
	KarmaSourceHuddleHost      KarmaSource = "HUDDLE_HOST"
	KarmaSourceDailyLogin      KarmaSource = "DAILY_LOGIN"
	KarmaSourceReferral        KarmaSource = "REFERRAL"
	KarmaSourceContentCreation KarmaSource = "CONTENT_CREATION"
)

func (s KarmaSource) Valid() bool {
	switch s {
	case KarmaSourceVibeCheck, KarmaSourceHuddleHost, KarmaSourceDailyLogin,
		KarmaSourceReferral, KarmaSourceContentCreation:
		return true
	}
	return false
}

// OncePerSource reports whether a user may hold at most one entry of this
// type per source id.
func (s KarmaSource) OncePerSource() bool {
	switch s {
	case KarmaSourceHuddleHost, KarmaSourceDailyLogin, KarmaSourceReferral:
		return true
	}
	return false
}

// KarmaTransaction is an immutable ledger entry.
type KarmaTransaction struct {
	ID          uuid.UUID   `json:"id"`
	UserID      uuid.UUID   `json:"userId"`
	Amount      int         `json:"amount"`
	SourceType  KarmaSource `json:"sourceType"`
	SourceID    string      `json:"sourceId"`
	Description string      `json:"description,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

type KarmaScore struct {
	UserID uuid.UUID `json:"userId"`
	Score  int       `json:"score"`
}
