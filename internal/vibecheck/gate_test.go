package vibecheck_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwise1/huddle_karma/internal/apperr"
	"github.com/bwise1/huddle_karma/internal/huddle"
	"github.com/bwise1/huddle_karma/internal/karma"
	"github.com/bwise1/huddle_karma/internal/model"
	"github.com/bwise1/huddle_karma/internal/store/memory"
	"github.com/bwise1/huddle_karma/internal/vibecheck"
	"github.com/google/uuid"
)

type env struct {
	ctx     context.Context
	huddles *huddle.Service
	ledger  *karma.Ledger
	gate    *vibecheck.Gate

	creator uuid.UUID
	alice   uuid.UUID
	bob     uuid.UUID
	huddle  model.HuddleView
}

// newEnv creates a huddle hosted by creator with alice and bob on the roster.
func newEnv(t *testing.T, curve karma.Curve) *env {
	t.Helper()

	now := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	store := memory.New()
	ledger := karma.NewLedger(store, karma.Options{Baseline: 100, HostBonus: 5, Curve: curve, Now: clock})
	svc := huddle.NewService(store, store, ledger, huddle.Options{Now: clock})
	gate := vibecheck.NewGate(store, store, ledger, clock)

	e := &env{
		ctx:     context.Background(),
		huddles: svc,
		ledger:  ledger,
		gate:    gate,
		creator: uuid.New(),
		alice:   uuid.New(),
		bob:     uuid.New(),
	}

	lat, lon, maxP := 12.9716, 77.5946, 4
	h, err := svc.Create(e.ctx, e.creator, model.CreateHuddleRequest{
		Title:           "Sunset walk",
		Lat:             &lat,
		Lon:             &lon,
		StartTime:       now.Add(time.Hour),
		EndTime:         now.Add(2 * time.Hour),
		MaxParticipants: &maxP,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	e.huddle = h

	for _, u := range []uuid.UUID{e.alice, e.bob} {
		if _, err := svc.Join(e.ctx, h.ID, u); err != nil {
			t.Fatalf("Join() error = %v", err)
		}
	}
	return e
}

func (e *env) complete(t *testing.T) {
	t.Helper()
	if _, err := e.huddles.Complete(e.ctx, e.huddle.ID, e.creator); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
}

func (e *env) rate(reviewer, reviewee uuid.UUID, rating int, tags ...string) (model.VibeCheckResponse, error) {
	return e.gate.Submit(e.ctx, reviewer, model.SubmitVibeCheckRequest{
		HuddleID:   e.huddle.ID,
		RevieweeID: reviewee,
		Rating:     rating,
		Tags:       tags,
	})
}

func (e *env) score(t *testing.T, user uuid.UUID) int {
	t.Helper()
	s, err := e.ledger.Score(e.ctx, user)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	return s.Score
}

func TestFiveStarRatingRaisesScore(t *testing.T) {
	e := newEnv(t, nil)
	e.complete(t)

	res, err := e.rate(e.alice, e.bob, 5, "Funny")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if res.Transaction.Amount != 5 || res.Transaction.SourceType != model.KarmaSourceVibeCheck {
		t.Errorf("transaction = %+v", res.Transaction)
	}
	if res.Transaction.SourceID != e.huddle.ID.String() {
		t.Errorf("source id = %q; want huddle id", res.Transaction.SourceID)
	}
	if got := e.score(t, e.bob); got != 105 {
		t.Errorf("bob score = %d; want 105", got)
	}
	if got := e.score(t, e.alice); got != 100 {
		t.Errorf("alice score = %d; want 100", got)
	}
}

func TestCreatorCanRateAndBeRated(t *testing.T) {
	e := newEnv(t, nil)
	e.complete(t)

	if _, err := e.rate(e.alice, e.creator, 4); err != nil {
		t.Fatalf("rating creator error = %v", err)
	}
	if _, err := e.rate(e.creator, e.alice, 3); err != nil {
		t.Fatalf("creator rating error = %v", err)
	}

	// host bonus plus the 4-star rating
	if got := e.score(t, e.creator); got != 109 {
		t.Errorf("creator score = %d; want 109", got)
	}
}

func TestDuplicateRatingRejected(t *testing.T) {
	e := newEnv(t, nil)
	e.complete(t)

	if _, err := e.rate(e.alice, e.bob, 5); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	_, err := e.rate(e.alice, e.bob, 1)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("second Submit() error = %v; want conflict", err)
	}
	if got := e.score(t, e.bob); got != 105 {
		t.Errorf("bob score = %d; want 105", got)
	}

	// a different reviewer may still rate the same reviewee
	if _, err := e.rate(e.creator, e.bob, 2); err != nil {
		t.Errorf("creator Submit() error = %v", err)
	}
}

func TestConcurrentDuplicateRatingsAwardOnce(t *testing.T) {
	e := newEnv(t, nil)
	e.complete(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.rate(e.alice, e.bob, 5)
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
				return
			}
			if !apperr.Is(err, apperr.KindConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 {
		t.Errorf("%d submissions accepted; want 1", ok)
	}
	if got := e.score(t, e.bob); got != 105 {
		t.Errorf("bob score = %d; want 105", got)
	}
}

func TestSubmitRejections(t *testing.T) {
	testCases := []struct {
		name   string
		finish func(e *env, t *testing.T)
		submit func(e *env) (model.VibeCheckResponse, error)
		want   apperr.Kind
	}{
		{
			name:   "huddle not completed",
			finish: func(e *env, t *testing.T) {},
			submit: func(e *env) (model.VibeCheckResponse, error) { return e.rate(e.alice, e.bob, 5) },
			want:   apperr.KindConflict,
		},
		{
			name: "huddle cancelled",
			finish: func(e *env, t *testing.T) {
				if _, err := e.huddles.Cancel(e.ctx, e.huddle.ID, e.creator); err != nil {
					t.Fatalf("Cancel() error = %v", err)
				}
			},
			submit: func(e *env) (model.VibeCheckResponse, error) { return e.rate(e.alice, e.bob, 5) },
			want:   apperr.KindConflict,
		},
		{
			name:   "self review",
			finish: (*env).complete,
			submit: func(e *env) (model.VibeCheckResponse, error) { return e.rate(e.alice, e.alice, 5) },
			want:   apperr.KindForbidden,
		},
		{
			name:   "reviewer not a participant",
			finish: (*env).complete,
			submit: func(e *env) (model.VibeCheckResponse, error) { return e.rate(uuid.New(), e.bob, 5) },
			want:   apperr.KindForbidden,
		},
		{
			name:   "reviewee not a participant",
			finish: (*env).complete,
			submit: func(e *env) (model.VibeCheckResponse, error) { return e.rate(e.alice, uuid.New(), 5) },
			want:   apperr.KindForbidden,
		},
		{
			name:   "rating too high",
			finish: (*env).complete,
			submit: func(e *env) (model.VibeCheckResponse, error) { return e.rate(e.alice, e.bob, 6) },
			want:   apperr.KindValidation,
		},
		{
			name:   "rating zero",
			finish: (*env).complete,
			submit: func(e *env) (model.VibeCheckResponse, error) { return e.rate(e.alice, e.bob, 0) },
			want:   apperr.KindValidation,
		},
		{
			name:   "tag too long",
			finish: (*env).complete,
			submit: func(e *env) (model.VibeCheckResponse, error) {
				return e.rate(e.alice, e.bob, 5, strings.Repeat("x", vibecheck.MaxTagLength+1))
			},
			want: apperr.KindValidation,
		},
		{
			name:   "unknown huddle",
			finish: (*env).complete,
			submit: func(e *env) (model.VibeCheckResponse, error) {
				return e.gate.Submit(e.ctx, e.alice, model.SubmitVibeCheckRequest{
					HuddleID: uuid.New(), RevieweeID: e.bob, Rating: 5,
				})
			},
			want: apperr.KindNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(t, nil)
			tc.finish(e, t)

			_, err := tc.submit(e)
			if got := apperr.KindOf(err); err == nil || got != tc.want {
				t.Fatalf("Submit() error = %v (kind %v); want %v", err, got, tc.want)
			}
			if got := e.score(t, e.bob); got != 100 {
				t.Errorf("bob score = %d; want unchanged 100", got)
			}
		})
	}
}

func TestLeftParticipantCannotRate(t *testing.T) {
	e := newEnv(t, nil)
	if _, err := e.huddles.Leave(e.ctx, e.huddle.ID, e.alice); err != nil {
		t.Fatalf("Leave() error = %v", err)
	}
	e.complete(t)

	_, err := e.rate(e.alice, e.bob, 5)
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("Submit() error = %v; want forbidden", err)
	}
}

func TestTieredCurvePenalisesPoorRatings(t *testing.T) {
	e := newEnv(t, karma.TieredCurve)
	e.complete(t)

	if _, err := e.rate(e.alice, e.bob, 1); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if got := e.score(t, e.bob); got != 90 {
		t.Errorf("bob score = %d; want 90", got)
	}
}

func TestTagsAreNormalised(t *testing.T) {
	e := newEnv(t, nil)
	e.complete(t)

	res, err := e.rate(e.alice, e.bob, 4, "  Funny ", "funny", "", "Good Listener")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	want := []string{"Funny", "Good Listener"}
	if len(res.VibeCheck.Tags) != len(want) {
		t.Fatalf("tags = %q; want %q", res.VibeCheck.Tags, want)
	}
	for i := range want {
		if res.VibeCheck.Tags[i] != want[i] {
			t.Errorf("tags[%d] = %q; want %q", i, res.VibeCheck.Tags[i], want[i])
		}
	}

	tooMany := make([]string, vibecheck.MaxTags+1)
	for i := range tooMany {
		tooMany[i] = strings.Repeat("t", i+1)
	}
	if _, err := e.rate(e.creator, e.bob, 4, tooMany...); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("Submit() with %d tags error = %v; want validation", len(tooMany), err)
	}
}

func TestMine(t *testing.T) {
	e := newEnv(t, nil)
	e.complete(t)

	empty, err := e.gate.Mine(e.ctx, e.huddle.ID, e.alice)
	if err != nil {
		t.Fatalf("Mine() error = %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("Mine() = %#v; want empty non-nil slice", empty)
	}

	for _, u := range []uuid.UUID{e.bob, e.creator} {
		if _, err := e.rate(e.alice, u, 5); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}

	mine, err := e.gate.Mine(e.ctx, e.huddle.ID, e.alice)
	if err != nil {
		t.Fatalf("Mine() error = %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("len(Mine()) = %d; want 2", len(mine))
	}

	if _, err := e.gate.Mine(e.ctx, uuid.New(), e.alice); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("Mine() unknown huddle error = %v; want not found", err)
	}
}
