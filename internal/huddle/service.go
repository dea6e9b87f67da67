// Package huddle runs the huddle lifecycle: creation, nearby search, roster
// changes and the creator-only terminal transitions.
//
//	OPEN <-> FULL          join and leave while the huddle is live
//	OPEN|FULL -> CANCELLED creator cancel, or the opt-in overdue sweep
//	OPEN|FULL -> COMPLETED creator complete, awards the host bonus
package huddle

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwise1/huddle_karma/internal/apperr"
	"github.com/bwise1/huddle_karma/internal/geo"
	"github.com/bwise1/huddle_karma/internal/karma"
	"github.com/bwise1/huddle_karma/internal/model"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultMaxParticipants = 5
	MinParticipants        = 2
	MaxTitleLength         = 100
	GeohashPrecision       = 9
)

var liveStatuses = []model.HuddleStatus{model.HuddleOpen, model.HuddleFull}

type Options struct {
	DefaultRadiusKm float64
	MaxRadiusKm     float64
	ExpiryGrace     time.Duration
	Now             func() time.Time
}

type Service struct {
	store    Store
	profiles ProfileSource
	ledger   *karma.Ledger
	opts     Options
}

// Member is a JOINED participant with the profile data shown on a roster.
type Member struct {
	model.Participant
	Profile model.Profile
}

func NewService(store Store, profiles ProfileSource, ledger *karma.Ledger, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DefaultRadiusKm <= 0 {
		opts.DefaultRadiusKm = 10
	}
	if opts.MaxRadiusKm < opts.DefaultRadiusKm {
		opts.MaxRadiusKm = opts.DefaultRadiusKm
	}
	return &Service{store: store, profiles: profiles, ledger: ledger, opts: opts}
}

func (s *Service) now() time.Time {
	return s.opts.Now().UTC()
}

func (s *Service) Create(ctx context.Context, creatorID uuid.UUID, req model.CreateHuddleRequest) (model.HuddleView, error) {
	if err := s.validateCreate(req); err != nil {
		return model.HuddleView{}, err
	}

	maxParticipants := DefaultMaxParticipants
	if req.MaxParticipants != nil {
		maxParticipants = *req.MaxParticipants
	}
	filter := req.GenderFilter
	if filter == "" {
		filter = model.GenderFilterEveryone
	}

	now := s.now()
	point := geo.Point{Lat: *req.Lat, Lon: *req.Lon}
	h := model.Huddle{
		ID:              uuid.New(),
		CreatorID:       creatorID,
		Title:           strings.TrimSpace(req.Title),
		Description:     strings.TrimSpace(req.Description),
		Lat:             point.Lat,
		Lon:             point.Lon,
		LocationName:    strings.TrimSpace(req.LocationName),
		Geohash:         geo.Geohash(point, GeohashPrecision),
		StartTime:       req.StartTime.UTC(),
		EndTime:         req.EndTime.UTC(),
		MaxParticipants: maxParticipants,
		GenderFilter:    filter,
		Status:          model.HuddleOpen,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	created, err := s.store.Create(ctx, h)
	if err != nil {
		return model.HuddleView{}, fmt.Errorf("create huddle: %w", err)
	}

	log.WithFields(log.Fields{"huddle_id": created.ID, "user_id": creatorID}).Info("huddle created")

	return model.HuddleView{Huddle: created, CurrentParticipants: 1, IsJoined: true}, nil
}

func (s *Service) validateCreate(req model.CreateHuddleRequest) error {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return apperr.Validation("title is required")
	}
	if len([]rune(title)) > MaxTitleLength {
		return apperr.Validation("title must be at most %d characters", MaxTitleLength)
	}
	if req.Lat == nil || req.Lon == nil {
		return apperr.Validation("lat and lon are required")
	}
	if !(geo.Point{Lat: *req.Lat, Lon: *req.Lon}).Valid() {
		return apperr.Validation("lat/lon out of range")
	}
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return apperr.Validation("startTime and endTime are required")
	}
	if !req.EndTime.After(req.StartTime) {
		return apperr.Validation("endTime must be after startTime")
	}
	if req.StartTime.Before(s.now()) {
		return apperr.Validation("startTime cannot be in the past")
	}
	if req.MaxParticipants != nil && *req.MaxParticipants < MinParticipants {
		return apperr.Validation("maxParticipants must be at least %d", MinParticipants)
	}
	if req.GenderFilter != "" && !req.GenderFilter.Valid() {
		return apperr.Validation("unknown genderFilter %q", req.GenderFilter)
	}
	return nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (model.Huddle, error) {
	h, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return model.Huddle{}, apperr.NotFound("huddle %s not found", id)
	}
	if err != nil {
		return model.Huddle{}, fmt.Errorf("get huddle: %w", err)
	}
	return h, nil
}

func (s *Service) Get(ctx context.Context, id, viewerID uuid.UUID) (model.HuddleView, error) {
	h, err := s.load(ctx, id)
	if err != nil {
		return model.HuddleView{}, err
	}
	views, err := s.views(ctx, []model.Huddle{h}, viewerID)
	if err != nil {
		return model.HuddleView{}, err
	}
	return views[0], nil
}

func (s *Service) views(ctx context.Context, huddles []model.Huddle, viewerID uuid.UUID) ([]model.HuddleView, error) {
	ids := make([]uuid.UUID, len(huddles))
	for i, h := range huddles {
		ids[i] = h.ID
	}

	stats, err := s.store.RosterStats(ctx, ids, viewerID)
	if err != nil {
		return nil, fmt.Errorf("roster stats: %w", err)
	}

	views := make([]model.HuddleView, len(huddles))
	for i, h := range huddles {
		st := stats[h.ID]
		views[i] = model.HuddleView{Huddle: h, CurrentParticipants: st.Count, IsJoined: st.ViewerJoined}
	}
	return views, nil
}

// Nearby lists huddles within q.RadiusKm of (q.Lat, q.Lon). Without an
// explicit status filter only live huddles that have not ended are returned.
func (s *Service) Nearby(ctx context.Context, viewerID uuid.UUID, q model.NearbyQuery) ([]model.HuddleView, error) {
	center := geo.Point{Lat: q.Lat, Lon: q.Lon}
	if !center.Valid() {
		return nil, apperr.Validation("lat/lon out of range")
	}

	radius := q.RadiusKm
	switch {
	case radius < 0:
		return nil, apperr.Validation("radius must be positive")
	case radius == 0:
		radius = s.opts.DefaultRadiusKm
	case radius > s.opts.MaxRadiusKm:
		radius = s.opts.MaxRadiusKm
	}

	statuses := q.Statuses
	liveOnly := len(statuses) == 0
	if liveOnly {
		statuses = liveStatuses
	}
	for _, st := range statuses {
		if !st.Valid() {
			return nil, apperr.Validation("unknown status %q", st)
		}
	}

	candidates, err := s.store.FindInBox(ctx, geo.Box(center, radius))
	if err != nil {
		return nil, fmt.Errorf("find huddles: %w", err)
	}

	now := s.now()
	distances := make(map[uuid.UUID]float64, len(candidates))
	matched := make([]model.Huddle, 0, len(candidates))
	for _, h := range candidates {
		if !hasStatus(statuses, h.Status) {
			continue
		}
		if liveOnly && !h.EndTime.After(now) {
			continue
		}
		d := geo.DistanceKm(center, geo.Point{Lat: h.Lat, Lon: h.Lon})
		if d > radius {
			continue
		}
		distances[h.ID] = d
		matched = append(matched, h)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].StartTime.Equal(matched[j].StartTime) {
			return matched[i].StartTime.Before(matched[j].StartTime)
		}
		return distances[matched[i].ID] < distances[matched[j].ID]
	})

	views, err := s.views(ctx, matched, viewerID)
	if err != nil {
		return nil, err
	}
	for i := range views {
		d := distances[views[i].ID]
		views[i].DistanceKm = &d
	}
	return views, nil
}

func hasStatus(statuses []model.HuddleStatus, st model.HuddleStatus) bool {
	for _, s := range statuses {
		if s == st {
			return true
		}
	}
	return false
}

// mutate runs fn under the huddle lock and translates store sentinels.
func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(tx Tx) error) error {
	err := s.store.WithHuddle(ctx, id, fn)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return apperr.NotFound("huddle %s not found", id)
	case errors.Is(err, ErrAlreadyJoined):
		return apperr.Conflict("already joined this huddle")
	case errors.Is(err, ErrStaleStatus):
		return apperr.Conflict("huddle status changed, retry with fresh state")
	}
	return err
}

// Join adds userID to the roster. The capacity check and the FULL transition
// happen under the huddle lock, so concurrent joins cannot overfill it.
func (s *Service) Join(ctx context.Context, huddleID, userID uuid.UUID) (model.HuddleView, error) {
	var view model.HuddleView

	err := s.mutate(ctx, huddleID, func(tx Tx) error {
		h := tx.Huddle()
		now := s.now()

		if h.Status.Terminal() {
			return apperr.Forbidden("huddle is %s", strings.ToLower(string(h.Status)))
		}
		if !h.EndTime.After(now) {
			return apperr.Forbidden("huddle has already ended")
		}

		if h.GenderFilter != model.GenderFilterEveryone {
			profiles, err := s.profiles.Profiles(ctx, []uuid.UUID{userID})
			if err != nil {
				return fmt.Errorf("load profile: %w", err)
			}
			if !h.GenderFilter.Admits(profiles[userID].Gender) {
				return apperr.Forbidden("huddle is restricted to %s", strings.ToLower(string(h.GenderFilter)))
			}
		}

		if p, ok := tx.Membership(userID); ok {
			switch p.Status {
			case model.ParticipantJoined:
				return apperr.Conflict("already joined this huddle")
			case model.ParticipantRemoved:
				return apperr.Forbidden("you were removed from this huddle")
			}
		}

		count := len(tx.Roster())
		if count >= h.MaxParticipants {
			return apperr.Conflict("huddle is full")
		}

		if err := tx.AddParticipant(ctx, userID, now); err != nil {
			return err
		}
		count++

		if count >= h.MaxParticipants && h.Status == model.HuddleOpen {
			if err := tx.TransitionStatus(ctx, []model.HuddleStatus{model.HuddleOpen}, model.HuddleFull, now); err != nil {
				return err
			}
			h.Status = model.HuddleFull
			h.UpdatedAt = now
		}

		view = model.HuddleView{Huddle: h, CurrentParticipants: count, IsJoined: true}
		return nil
	})
	if err != nil {
		return model.HuddleView{}, err
	}

	log.WithFields(log.Fields{"huddle_id": huddleID, "user_id": userID, "status": view.Status}).Info("huddle joined")
	return view, nil
}

// Leave is a no-op when the huddle is terminal or the user is not on the roster.
func (s *Service) Leave(ctx context.Context, huddleID, userID uuid.UUID) (model.HuddleView, error) {
	var view model.HuddleView
	left := false

	err := s.mutate(ctx, huddleID, func(tx Tx) error {
		h := tx.Huddle()
		roster := tx.Roster()
		view = model.HuddleView{Huddle: h, CurrentParticipants: len(roster)}

		p, ok := tx.Membership(userID)
		joined := ok && p.Status == model.ParticipantJoined
		if h.Status.Terminal() {
			view.IsJoined = joined
			return nil
		}
		if h.CreatorID == userID {
			return apperr.Validation("the creator cannot leave their own huddle, cancel it instead")
		}
		if !joined {
			return nil
		}

		now := s.now()
		if err := s.dropFromRoster(ctx, tx, &h, userID, model.ParticipantLeft, len(roster), now); err != nil {
			return err
		}

		left = true
		view = model.HuddleView{Huddle: h, CurrentParticipants: len(roster) - 1}
		return nil
	})
	if err != nil {
		return model.HuddleView{}, err
	}

	if left {
		log.WithFields(log.Fields{"huddle_id": huddleID, "user_id": userID, "status": view.Status}).Info("huddle left")
	}
	return view, nil
}

// RemoveParticipant lets the creator take a participant off the roster. The
// removed user cannot rejoin.
func (s *Service) RemoveParticipant(ctx context.Context, huddleID, requesterID, userID uuid.UUID) (model.HuddleView, error) {
	var view model.HuddleView

	err := s.mutate(ctx, huddleID, func(tx Tx) error {
		h := tx.Huddle()
		if h.CreatorID != requesterID {
			return apperr.Forbidden("only the creator can remove participants")
		}
		if userID == requesterID {
			return apperr.Forbidden("the creator cannot remove themself")
		}
		if h.Status.Terminal() {
			return apperr.Conflict("huddle is %s", strings.ToLower(string(h.Status)))
		}

		p, ok := tx.Membership(userID)
		if !ok || p.Status != model.ParticipantJoined {
			return apperr.NotFound("user is not a participant of this huddle")
		}

		roster := tx.Roster()
		now := s.now()
		if err := s.dropFromRoster(ctx, tx, &h, userID, model.ParticipantRemoved, len(roster), now); err != nil {
			return err
		}

		view = model.HuddleView{Huddle: h, CurrentParticipants: len(roster) - 1, IsJoined: true}
		return nil
	})
	if err != nil {
		return model.HuddleView{}, err
	}

	log.WithFields(log.Fields{"huddle_id": huddleID, "user_id": userID}).Info("participant removed")
	return view, nil
}

func (s *Service) dropFromRoster(ctx context.Context, tx Tx, h *model.Huddle, userID uuid.UUID, status model.ParticipantStatus, rosterSize int, now time.Time) error {
	if err := tx.SetParticipantStatus(ctx, userID, status, now); err != nil {
		if errors.Is(err, ErrNotParticipant) {
			return apperr.NotFound("user is not a participant of this huddle")
		}
		return err
	}

	if h.Status == model.HuddleFull && rosterSize-1 < h.MaxParticipants {
		if err := tx.TransitionStatus(ctx, []model.HuddleStatus{model.HuddleFull}, model.HuddleOpen, now); err != nil {
			return err
		}
		h.Status = model.HuddleOpen
		h.UpdatedAt = now
	}
	return nil
}

// Participants lists the JOINED roster, creator included, with profile data.
func (s *Service) Participants(ctx context.Context, huddleID uuid.UUID) ([]Member, error) {
	if _, err := s.load(ctx, huddleID); err != nil {
		return nil, err
	}

	roster, err := s.store.Roster(ctx, huddleID)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}

	ids := make([]uuid.UUID, len(roster))
	for i, p := range roster {
		ids[i] = p.UserID
	}
	profiles, err := s.profiles.Profiles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}

	members := make([]Member, len(roster))
	for i, p := range roster {
		profile, ok := profiles[p.UserID]
		if !ok {
			profile = model.Profile{UserID: p.UserID}
		}
		members[i] = Member{Participant: p, Profile: profile}
	}
	return members, nil
}

// Complete closes the huddle for good and awards the creator the host bonus
// in the same transaction. Only one concurrent caller can win the transition.
func (s *Service) Complete(ctx context.Context, huddleID, requesterID uuid.UUID) (model.HuddleView, error) {
	view, err := s.finish(ctx, huddleID, requesterID, model.HuddleCompleted, func(ctx context.Context, tx Tx, h model.Huddle) error {
		_, err := s.ledger.AwardVia(ctx, tx, h.CreatorID, s.ledger.HostBonus(), model.KarmaSourceHuddleHost,
			h.ID.String(), fmt.Sprintf("Hosted huddle: %s", h.Title))
		return err
	})
	if err != nil {
		return model.HuddleView{}, err
	}

	log.WithFields(log.Fields{"huddle_id": huddleID, "user_id": requesterID}).Info("huddle completed")
	return view, nil
}

func (s *Service) Cancel(ctx context.Context, huddleID, requesterID uuid.UUID) (model.HuddleView, error) {
	view, err := s.finish(ctx, huddleID, requesterID, model.HuddleCancelled, nil)
	if err != nil {
		return model.HuddleView{}, err
	}

	log.WithFields(log.Fields{"huddle_id": huddleID, "user_id": requesterID}).Info("huddle cancelled")
	return view, nil
}

func (s *Service) finish(ctx context.Context, huddleID, requesterID uuid.UUID, to model.HuddleStatus, after func(context.Context, Tx, model.Huddle) error) (model.HuddleView, error) {
	var view model.HuddleView

	err := s.mutate(ctx, huddleID, func(tx Tx) error {
		h := tx.Huddle()
		if h.CreatorID != requesterID {
			return apperr.Forbidden("only the creator can %s this huddle", verb(to))
		}
		if h.Status.Terminal() {
			return apperr.Conflict("huddle is already %s", strings.ToLower(string(h.Status)))
		}

		now := s.now()
		if err := tx.TransitionStatus(ctx, liveStatuses, to, now); err != nil {
			return err
		}
		h.Status = to
		h.UpdatedAt = now

		if after != nil {
			if err := after(ctx, tx, h); err != nil {
				return err
			}
		}

		view = model.HuddleView{Huddle: h, CurrentParticipants: len(tx.Roster()), IsJoined: true}
		return nil
	})
	return view, err
}

func verb(to model.HuddleStatus) string {
	if to == model.HuddleCompleted {
		return "complete"
	}
	return "cancel"
}

// ExpireOverdue cancels live huddles whose end time passed more than the
// configured grace period ago. It returns how many were cancelled.
func (s *Service) ExpireOverdue(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.opts.ExpiryGrace)

	overdue, err := s.store.Overdue(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list overdue huddles: %w", err)
	}

	expired := 0
	for _, h := range overdue {
		changed := false
		err := s.mutate(ctx, h.ID, func(tx Tx) error {
			if tx.Huddle().Status.Terminal() {
				return nil
			}
			changed = true
			return tx.TransitionStatus(ctx, liveStatuses, model.HuddleCancelled, s.now())
		})
		if err != nil {
			log.WithError(err).WithField("huddle_id", h.ID).Error("failed to expire huddle")
			continue
		}
		if changed {
			expired++
		}
	}

	if expired > 0 {
		log.WithField("count", expired).Info("overdue huddles cancelled")
	}
	return expired, nil
}
