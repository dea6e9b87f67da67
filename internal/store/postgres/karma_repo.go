package postgres

import (
	"context"

	"github.com/bwise1/huddle_karma/internal/karma"
	"github.com/bwise1/huddle_karma/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func appendKarma(ctx context.Context, q execer, entry model.KarmaTransaction) error {
	_, err := q.Exec(ctx, `
		INSERT INTO karma_transactions (id, user_id, amount, source_type, source_id, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, entry.ID, entry.UserID, entry.Amount, string(entry.SourceType), entry.SourceID, entry.Description, entry.CreatedAt)
	if isUniqueViolation(err, constraintKarmaSource) {
		return karma.ErrDuplicateEntry
	}
	return errors.Wrap(err, "insert karma transaction")
}

func (s *Store) AppendKarma(ctx context.Context, entry model.KarmaTransaction) error {
	return appendKarma(ctx, s.db.Pool(), entry)
}

func (s *Store) SumForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var sum int
	err := s.db.Pool().QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM karma_transactions WHERE user_id = $1
	`, userID).Scan(&sum)
	if err != nil {
		return 0, errors.Wrap(err, "sum karma")
	}
	return sum, nil
}

func (s *Store) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.KarmaTransaction, error) {
	rows, err := s.db.Pool().Query(ctx, `
		SELECT id, user_id, amount, source_type, source_id, description, created_at
		FROM karma_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id
	`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "query karma history")
	}
	defer rows.Close()

	var entries []model.KarmaTransaction
	for rows.Next() {
		var e model.KarmaTransaction
		var source string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &source, &e.SourceID, &e.Description, &e.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan karma transaction")
		}
		e.SourceType = model.KarmaSource(source)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
