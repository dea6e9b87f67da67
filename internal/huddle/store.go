package huddle

import (
	"context"
	"errors"
	"time"

	"github.com/bwise1/huddle_karma/internal/geo"
	"github.com/bwise1/huddle_karma/internal/model"
	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("huddle not found")
	ErrAlreadyJoined  = errors.New("user already joined huddle")
	ErrNotParticipant = errors.New("user is not a participant of huddle")
	// ErrStaleStatus is returned when a conditional status transition matched no row.
	ErrStaleStatus = errors.New("huddle status changed concurrently")
)

// RosterStat summarises a roster for one huddle relative to a viewer.
type RosterStat struct {
	Count        int
	ViewerJoined bool
}

// Store persists huddles and their participation rows. It enforces data
// integrity only; lifecycle rules live in Service.
type Store interface {
	// Create inserts h together with a JOINED participation row for its creator.
	Create(ctx context.Context, h model.Huddle) (model.Huddle, error)
	Get(ctx context.Context, id uuid.UUID) (model.Huddle, error)
	// FindInBox returns huddles of any status located inside box.
	FindInBox(ctx context.Context, box geo.BoundingBox) ([]model.Huddle, error)
	// Roster lists JOINED participants ordered by join time.
	Roster(ctx context.Context, id uuid.UUID) ([]model.Participant, error)
	RosterStats(ctx context.Context, ids []uuid.UUID, viewer uuid.UUID) (map[uuid.UUID]RosterStat, error)
	// Overdue lists OPEN or FULL huddles whose end time is before cutoff.
	Overdue(ctx context.Context, cutoff time.Time) ([]model.Huddle, error)
	// WithHuddle runs fn while holding an exclusive lock on the huddle. Changes
	// made through tx are committed only when fn returns nil.
	WithHuddle(ctx context.Context, id uuid.UUID, fn func(tx Tx) error) error
}

// Tx is a locked view of one huddle and its participation rows.
type Tx interface {
	Huddle() model.Huddle
	// Roster lists JOINED participants.
	Roster() []model.Participant
	// Membership returns the user's row in any status.
	Membership(userID uuid.UUID) (model.Participant, bool)
	// AddParticipant inserts a JOINED row, or flips an existing row back to JOINED.
	AddParticipant(ctx context.Context, userID uuid.UUID, at time.Time) error
	SetParticipantStatus(ctx context.Context, userID uuid.UUID, status model.ParticipantStatus, at time.Time) error
	// TransitionStatus moves the huddle to `to` only if its current status is one of from.
	TransitionStatus(ctx context.Context, from []model.HuddleStatus, to model.HuddleStatus, at time.Time) error
	AppendKarma(ctx context.Context, entry model.KarmaTransaction) error
}

// ProfileSource resolves read-only profile data owned by the profile service.
// Missing users are absent from the returned map.
type ProfileSource interface {
	Profiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Profile, error)
}
