package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwise1/huddle_karma/internal/geo"
	"github.com/bwise1/huddle_karma/internal/huddle"
	"github.com/bwise1/huddle_karma/internal/karma"
	"github.com/bwise1/huddle_karma/internal/model"
	"github.com/bwise1/huddle_karma/internal/vibecheck"
	"github.com/google/uuid"
)

func seedHuddle(t *testing.T, s *Store, lat, lon float64) model.Huddle {
	t.Helper()

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	h, err := s.Create(context.Background(), model.Huddle{
		ID:              uuid.New(),
		CreatorID:       uuid.New(),
		Title:           "Board games",
		Lat:             lat,
		Lon:             lon,
		StartTime:       now.Add(time.Hour),
		EndTime:         now.Add(2 * time.Hour),
		MaxParticipants: 3,
		GenderFilter:    model.GenderFilterEveryone,
		Status:          model.HuddleOpen,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return h
}

func TestWithHuddleRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	h := seedHuddle(t, s, 0, 0)
	boom := errors.New("boom")

	err := s.WithHuddle(ctx, h.ID, func(tx huddle.Tx) error {
		if err := tx.AddParticipant(ctx, uuid.New(), time.Now()); err != nil {
			return err
		}
		if err := tx.TransitionStatus(ctx, []model.HuddleStatus{model.HuddleOpen}, model.HuddleFull, time.Now()); err != nil {
			return err
		}
		if err := tx.AppendKarma(ctx, model.KarmaTransaction{UserID: h.CreatorID, Amount: 5, SourceType: model.KarmaSourceHuddleHost, SourceID: h.ID.String()}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithHuddle() error = %v; want boom", err)
	}

	got, _ := s.Get(ctx, h.ID)
	if got.Status != model.HuddleOpen {
		t.Errorf("status = %s; want OPEN after rollback", got.Status)
	}
	roster, _ := s.Roster(ctx, h.ID)
	if len(roster) != 1 {
		t.Errorf("roster size = %d; want 1 after rollback", len(roster))
	}
	if sum, _ := s.SumForUser(ctx, h.CreatorID); sum != 0 {
		t.Errorf("karma sum = %d; want 0 after rollback", sum)
	}
}

func TestWithHuddleUnknown(t *testing.T) {
	err := New().WithHuddle(context.Background(), uuid.New(), func(huddle.Tx) error { return nil })
	if !errors.Is(err, huddle.ErrNotFound) {
		t.Errorf("WithHuddle() error = %v; want ErrNotFound", err)
	}
}

func TestTxParticipantRules(t *testing.T) {
	ctx := context.Background()
	s := New()
	h := seedHuddle(t, s, 0, 0)
	user := uuid.New()

	err := s.WithHuddle(ctx, h.ID, func(tx huddle.Tx) error {
		if err := tx.AddParticipant(ctx, h.CreatorID, time.Now()); !errors.Is(err, huddle.ErrAlreadyJoined) {
			t.Errorf("AddParticipant(creator) error = %v; want ErrAlreadyJoined", err)
		}
		if err := tx.SetParticipantStatus(ctx, user, model.ParticipantLeft, time.Now()); !errors.Is(err, huddle.ErrNotParticipant) {
			t.Errorf("SetParticipantStatus(stranger) error = %v; want ErrNotParticipant", err)
		}
		if err := tx.TransitionStatus(ctx, []model.HuddleStatus{model.HuddleFull}, model.HuddleOpen, time.Now()); !errors.Is(err, huddle.ErrStaleStatus) {
			t.Errorf("TransitionStatus(stale) error = %v; want ErrStaleStatus", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithHuddle() error = %v", err)
	}
}

func TestFindInBoxAndRosterStats(t *testing.T) {
	ctx := context.Background()
	s := New()
	near := seedHuddle(t, s, 12.97, 77.59)
	seedHuddle(t, s, 48.85, 2.35)

	found, err := s.FindInBox(ctx, geo.Box(geo.Point{Lat: 12.97, Lon: 77.59}, 5))
	if err != nil {
		t.Fatalf("FindInBox() error = %v", err)
	}
	if len(found) != 1 || found[0].ID != near.ID {
		t.Errorf("FindInBox() = %d huddles; want the nearby one", len(found))
	}

	stats, err := s.RosterStats(ctx, []uuid.UUID{near.ID}, near.CreatorID)
	if err != nil {
		t.Fatalf("RosterStats() error = %v", err)
	}
	if st := stats[near.ID]; st.Count != 1 || !st.ViewerJoined {
		t.Errorf("stats = %+v; want count 1 with viewer joined", st)
	}
}

func TestSubmitDiscardsKarmaWhenAwardFails(t *testing.T) {
	ctx := context.Background()
	s := New()
	vc := model.VibeCheck{ID: uuid.New(), HuddleID: uuid.New(), ReviewerID: uuid.New(), RevieweeID: uuid.New(), Rating: 4}
	boom := errors.New("boom")

	_, err := s.Submit(ctx, vc, func(ctx context.Context, app karma.Appender) (model.KarmaTransaction, error) {
		if err := app.AppendKarma(ctx, model.KarmaTransaction{UserID: vc.RevieweeID, Amount: 4, SourceType: model.KarmaSourceVibeCheck}); err != nil {
			return model.KarmaTransaction{}, err
		}
		return model.KarmaTransaction{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Submit() error = %v; want boom", err)
	}
	if sum, _ := s.SumForUser(ctx, vc.RevieweeID); sum != 0 {
		t.Errorf("karma sum = %d; want 0", sum)
	}

	award := func(ctx context.Context, app karma.Appender) (model.KarmaTransaction, error) {
		return model.KarmaTransaction{}, nil
	}
	if _, err := s.Submit(ctx, vc, award); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if _, err := s.Submit(ctx, vc, award); !errors.Is(err, vibecheck.ErrDuplicate) {
		t.Errorf("duplicate Submit() error = %v; want ErrDuplicate", err)
	}
}
