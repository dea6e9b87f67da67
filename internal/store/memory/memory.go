// Package memory is an in-process implementation of the huddle, karma and
// vibe-check stores. One mutex serialises every write, which gives the same
// guarantees the Postgres row locks and unique indexes give.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bwise1/huddle_karma/internal/geo"
	"github.com/bwise1/huddle_karma/internal/huddle"
	"github.com/bwise1/huddle_karma/internal/karma"
	"github.com/bwise1/huddle_karma/internal/model"
	"github.com/bwise1/huddle_karma/internal/vibecheck"
	"github.com/google/uuid"
)

type Store struct {
	mu           sync.Mutex
	huddles      map[uuid.UUID]model.Huddle
	participants map[uuid.UUID][]model.Participant
	karma        []model.KarmaTransaction
	vibeChecks   []model.VibeCheck

	profileMu sync.RWMutex
	profiles  map[uuid.UUID]model.Profile
}

var (
	_ huddle.Store         = (*Store)(nil)
	_ huddle.ProfileSource = (*Store)(nil)
	_ karma.Store          = (*Store)(nil)
	_ vibecheck.Store      = (*Store)(nil)
)

func New() *Store {
	return &Store{
		huddles:      make(map[uuid.UUID]model.Huddle),
		participants: make(map[uuid.UUID][]model.Participant),
		profiles:     make(map[uuid.UUID]model.Profile),
	}
}

// PutProfile seeds the read-only profile view.
func (s *Store) PutProfile(p model.Profile) {
	s.profileMu.Lock()
	defer s.profileMu.Unlock()
	s.profiles[p.UserID] = p
}

func (s *Store) Profiles(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Profile, error) {
	s.profileMu.RLock()
	defer s.profileMu.RUnlock()

	out := make(map[uuid.UUID]model.Profile, len(ids))
	for _, id := range ids {
		if p, ok := s.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (s *Store) Create(_ context.Context, h model.Huddle) (model.Huddle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.huddles[h.ID] = h
	s.participants[h.ID] = []model.Participant{{
		HuddleID:  h.ID,
		UserID:    h.CreatorID,
		Status:    model.ParticipantJoined,
		JoinedAt:  h.CreatedAt,
		UpdatedAt: h.CreatedAt,
	}}
	return h, nil
}

func (s *Store) Get(_ context.Context, id uuid.UUID) (model.Huddle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.huddles[id]
	if !ok {
		return model.Huddle{}, huddle.ErrNotFound
	}
	return h, nil
}

func (s *Store) FindInBox(_ context.Context, box geo.BoundingBox) ([]model.Huddle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Huddle
	for _, h := range s.huddles {
		if box.Contains(geo.Point{Lat: h.Lat, Lon: h.Lon}) {
			out = append(out, h)
		}
	}
	return out, nil
}

func joined(rows []model.Participant) []model.Participant {
	out := make([]model.Participant, 0, len(rows))
	for _, p := range rows {
		if p.Status == model.ParticipantJoined {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out
}

func (s *Store) Roster(_ context.Context, id uuid.UUID) ([]model.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return joined(s.participants[id]), nil
}

func (s *Store) RosterStats(_ context.Context, ids []uuid.UUID, viewer uuid.UUID) (map[uuid.UUID]huddle.RosterStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[uuid.UUID]huddle.RosterStat, len(ids))
	for _, id := range ids {
		var st huddle.RosterStat
		for _, p := range joined(s.participants[id]) {
			st.Count++
			if p.UserID == viewer {
				st.ViewerJoined = true
			}
		}
		out[id] = st
	}
	return out, nil
}

func (s *Store) Overdue(_ context.Context, cutoff time.Time) ([]model.Huddle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Huddle
	for _, h := range s.huddles {
		if !h.Status.Terminal() && h.EndTime.Before(cutoff) {
			out = append(out, h)
		}
	}
	return out, nil
}

// WithHuddle works on copies of the huddle and its rows and publishes them
// only when fn succeeds.
func (s *Store) WithHuddle(ctx context.Context, id uuid.UUID, fn func(tx huddle.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.huddles[id]
	if !ok {
		return huddle.ErrNotFound
	}

	tx := &huddleTx{
		store:  s,
		huddle: h,
		rows:   append([]model.Participant(nil), s.participants[id]...),
	}
	if err := fn(tx); err != nil {
		return err
	}

	s.huddles[id] = tx.huddle
	s.participants[id] = tx.rows
	s.karma = append(s.karma, tx.karma...)
	return nil
}

type huddleTx struct {
	store  *Store
	huddle model.Huddle
	rows   []model.Participant
	karma  []model.KarmaTransaction
}

func (tx *huddleTx) Huddle() model.Huddle {
	return tx.huddle
}

func (tx *huddleTx) Roster() []model.Participant {
	return joined(tx.rows)
}

func (tx *huddleTx) Membership(userID uuid.UUID) (model.Participant, bool) {
	for _, p := range tx.rows {
		if p.UserID == userID {
			return p, true
		}
	}
	return model.Participant{}, false
}

func (tx *huddleTx) AddParticipant(_ context.Context, userID uuid.UUID, at time.Time) error {
	for i, p := range tx.rows {
		if p.UserID != userID {
			continue
		}
		if p.Status == model.ParticipantJoined {
			return huddle.ErrAlreadyJoined
		}
		tx.rows[i].Status = model.ParticipantJoined
		tx.rows[i].JoinedAt = at
		tx.rows[i].UpdatedAt = at
		return nil
	}

	tx.rows = append(tx.rows, model.Participant{
		HuddleID:  tx.huddle.ID,
		UserID:    userID,
		Status:    model.ParticipantJoined,
		JoinedAt:  at,
		UpdatedAt: at,
	})
	return nil
}

func (tx *huddleTx) SetParticipantStatus(_ context.Context, userID uuid.UUID, status model.ParticipantStatus, at time.Time) error {
	for i, p := range tx.rows {
		if p.UserID == userID {
			tx.rows[i].Status = status
			tx.rows[i].UpdatedAt = at
			return nil
		}
	}
	return huddle.ErrNotParticipant
}

func (tx *huddleTx) TransitionStatus(_ context.Context, from []model.HuddleStatus, to model.HuddleStatus, at time.Time) error {
	for _, st := range from {
		if tx.huddle.Status == st {
			tx.huddle.Status = to
			tx.huddle.UpdatedAt = at
			return nil
		}
	}
	return huddle.ErrStaleStatus
}

func (tx *huddleTx) AppendKarma(_ context.Context, entry model.KarmaTransaction) error {
	if tx.store.karmaExists(entry, tx.karma) {
		return karma.ErrDuplicateEntry
	}
	tx.karma = append(tx.karma, entry)
	return nil
}

// karmaExists must be called with s.mu held.
func (s *Store) karmaExists(entry model.KarmaTransaction, pending []model.KarmaTransaction) bool {
	if !entry.SourceType.OncePerSource() {
		return false
	}
	same := func(e model.KarmaTransaction) bool {
		return e.UserID == entry.UserID && e.SourceType == entry.SourceType && e.SourceID == entry.SourceID
	}
	for _, e := range s.karma {
		if same(e) {
			return true
		}
	}
	for _, e := range pending {
		if same(e) {
			return true
		}
	}
	return false
}

func (s *Store) AppendKarma(_ context.Context, entry model.KarmaTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.karmaExists(entry, nil) {
		return karma.ErrDuplicateEntry
	}
	s.karma = append(s.karma, entry)
	return nil
}

func (s *Store) SumForUser(_ context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := 0
	for _, e := range s.karma {
		if e.UserID == userID {
			sum += e.Amount
		}
	}
	return sum, nil
}

func (s *Store) ListForUser(_ context.Context, userID uuid.UUID) ([]model.KarmaTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.KarmaTransaction
	for i := len(s.karma) - 1; i >= 0; i-- {
		if s.karma[i].UserID == userID {
			out = append(out, s.karma[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type pendingKarma struct {
	store   *Store
	entries []model.KarmaTransaction
}

func (p *pendingKarma) AppendKarma(_ context.Context, entry model.KarmaTransaction) error {
	if p.store.karmaExists(entry, p.entries) {
		return karma.ErrDuplicateEntry
	}
	p.entries = append(p.entries, entry)
	return nil
}

func (s *Store) Submit(ctx context.Context, vc model.VibeCheck, award vibecheck.AwardFunc) (model.KarmaTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.vibeChecks {
		if existing.HuddleID == vc.HuddleID && existing.ReviewerID == vc.ReviewerID && existing.RevieweeID == vc.RevieweeID {
			return model.KarmaTransaction{}, vibecheck.ErrDuplicate
		}
	}

	pending := &pendingKarma{store: s}
	entry, err := award(ctx, pending)
	if err != nil {
		return model.KarmaTransaction{}, err
	}

	s.vibeChecks = append(s.vibeChecks, vc)
	s.karma = append(s.karma, pending.entries...)
	return entry, nil
}

func (s *Store) ListByReviewer(_ context.Context, huddleID, reviewerID uuid.UUID) ([]model.VibeCheck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.VibeCheck
	for _, vc := range s.vibeChecks {
		if vc.HuddleID == huddleID && vc.ReviewerID == reviewerID {
			out = append(out, vc)
		}
	}
	return out, nil
}
