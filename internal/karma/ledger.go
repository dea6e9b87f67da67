// Package karma keeps the append-only karma ledger. A user's score is never
// stored; it is the configured baseline plus the sum of their entries.
package karma

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwise1/huddle_karma/internal/apperr"
	"github.com/bwise1/huddle_karma/internal/model"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const DefaultBaseline = 100

var ErrDuplicateEntry = errors.New("karma entry already recorded for source")

// Appender persists a single ledger entry. Stores and open transactions both
// satisfy it so awards can join a caller's transaction.
type Appender interface {
	AppendKarma(ctx context.Context, entry model.KarmaTransaction) error
}

type Store interface {
	Appender
	SumForUser(ctx context.Context, userID uuid.UUID) (int, error)
	// ListForUser returns the user's entries newest first.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.KarmaTransaction, error)
}

type Options struct {
	Baseline        int
	HostBonus       int
	DailyLoginBonus int
	Curve           Curve
	Now             func() time.Time
}

type Ledger struct {
	store Store
	opts  Options
}

func NewLedger(store Store, opts Options) *Ledger {
	if opts.Curve == nil {
		opts.Curve = LinearCurve
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Ledger{store: store, opts: opts}
}

func (l *Ledger) HostBonus() int {
	return l.opts.HostBonus
}

func (l *Ledger) RatingAmount(rating int) int {
	return l.opts.Curve(rating)
}

// Award appends an entry for userID. Callers have already validated the
// business event; only the entry's own shape is checked here.
func (l *Ledger) Award(ctx context.Context, userID uuid.UUID, amount int, source model.KarmaSource, sourceID, description string) (model.KarmaTransaction, error) {
	return l.AwardVia(ctx, l.store, userID, amount, source, sourceID, description)
}

// AwardVia is Award written through app, typically an open transaction.
func (l *Ledger) AwardVia(ctx context.Context, app Appender, userID uuid.UUID, amount int, source model.KarmaSource, sourceID, description string) (model.KarmaTransaction, error) {
	if userID == uuid.Nil {
		return model.KarmaTransaction{}, apperr.Validation("karma beneficiary is required")
	}
	if !source.Valid() {
		return model.KarmaTransaction{}, apperr.Validation("unknown karma source %q", source)
	}
	if sourceID == "" {
		return model.KarmaTransaction{}, apperr.Validation("karma source id is required")
	}

	entry := model.KarmaTransaction{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      amount,
		SourceType:  source,
		SourceID:    sourceID,
		Description: description,
		CreatedAt:   l.opts.Now().UTC(),
	}

	if err := app.AppendKarma(ctx, entry); err != nil {
		if errors.Is(err, ErrDuplicateEntry) {
			return model.KarmaTransaction{}, apperr.Conflict("%s karma already awarded for %s", source, sourceID)
		}
		return model.KarmaTransaction{}, fmt.Errorf("append karma entry: %w", err)
	}

	log.WithFields(log.Fields{
		"user_id":     userID,
		"amount":      amount,
		"source_type": source,
		"source_id":   sourceID,
	}).Info("karma awarded")

	return entry, nil
}

func (l *Ledger) Score(ctx context.Context, userID uuid.UUID) (model.KarmaScore, error) {
	sum, err := l.store.SumForUser(ctx, userID)
	if err != nil {
		return model.KarmaScore{}, fmt.Errorf("sum karma: %w", err)
	}
	return model.KarmaScore{UserID: userID, Score: l.opts.Baseline + sum}, nil
}

func (l *Ledger) History(ctx context.Context, userID uuid.UUID) ([]model.KarmaTransaction, error) {
	entries, err := l.store.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list karma: %w", err)
	}
	if entries == nil {
		entries = []model.KarmaTransaction{}
	}
	return entries, nil
}

// ClaimDailyLogin awards the daily login bonus once per UTC day.
func (l *Ledger) ClaimDailyLogin(ctx context.Context, userID uuid.UUID) (model.KarmaTransaction, error) {
	day := l.opts.Now().UTC().Format("2006-01-02")
	return l.Award(ctx, userID, l.opts.DailyLoginBonus, model.KarmaSourceDailyLogin, day, "Daily login")
}
