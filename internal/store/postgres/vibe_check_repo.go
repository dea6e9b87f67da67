package postgres

import (
	"context"

	"github.com/bwise1/huddle_karma/internal/model"
	"github.com/bwise1/huddle_karma/internal/vibecheck"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

type txAppender struct {
	tx pgx.Tx
}

func (a txAppender) AppendKarma(ctx context.Context, entry model.KarmaTransaction) error {
	return appendKarma(ctx, a.tx, entry)
}

// Submit relies on vibe_checks_unique_review to reject a second rating for
// the same triple, including when two submissions race.
func (s *Store) Submit(ctx context.Context, vc model.VibeCheck, award vibecheck.AwardFunc) (model.KarmaTransaction, error) {
	var entry model.KarmaTransaction

	err := s.db.RunInTx(ctx, func(tx pgx.Tx) error {
		tags := vc.Tags
		if tags == nil {
			tags = []string{}
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO vibe_checks (id, huddle_id, reviewer_id, reviewee_id, rating, tags, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, vc.ID, vc.HuddleID, vc.ReviewerID, vc.RevieweeID, vc.Rating, tags, vc.CreatedAt)
		if isUniqueViolation(err, constraintVibeCheckKey) {
			return vibecheck.ErrDuplicate
		}
		if err != nil {
			return errors.Wrap(err, "insert vibe check")
		}

		entry, err = award(ctx, txAppender{tx: tx})
		return err
	})
	if err != nil {
		return model.KarmaTransaction{}, err
	}

	return entry, nil
}

func (s *Store) ListByReviewer(ctx context.Context, huddleID, reviewerID uuid.UUID) ([]model.VibeCheck, error) {
	rows, err := s.db.Pool().Query(ctx, `
		SELECT id, huddle_id, reviewer_id, reviewee_id, rating, tags, created_at
		FROM vibe_checks
		WHERE huddle_id = $1 AND reviewer_id = $2
		ORDER BY created_at
	`, huddleID, reviewerID)
	if err != nil {
		return nil, errors.Wrap(err, "query vibe checks")
	}
	defer rows.Close()

	var checks []model.VibeCheck
	for rows.Next() {
		var vc model.VibeCheck
		if err := rows.Scan(&vc.ID, &vc.HuddleID, &vc.ReviewerID, &vc.RevieweeID, &vc.Rating, &vc.Tags, &vc.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan vibe check")
		}
		checks = append(checks, vc)
	}
	return checks, rows.Err()
}
