package postgres

import (
	"context"

	"github.com/bwise1/huddle_karma/internal/model"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

func (s *Store) Profiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Profile, error) {
	profiles := make(map[uuid.UUID]model.Profile, len(ids))
	if len(ids) == 0 {
		return profiles, nil
	}

	rows, err := s.db.Pool().Query(ctx, `
		SELECT id, alias, COALESCE(avatar_public_id, ''), COALESCE(gender, '')
		FROM profiles
		WHERE id = ANY($1::uuid[])
	`, uuidStrings(ids))
	if err != nil {
		return nil, errors.Wrap(err, "query profiles")
	}
	defer rows.Close()

	for rows.Next() {
		var p model.Profile
		var gender string
		if err := rows.Scan(&p.UserID, &p.Alias, &p.AvatarPublicID, &gender); err != nil {
			return nil, errors.Wrap(err, "scan profile")
		}
		p.Gender = model.Gender(gender)
		profiles[p.UserID] = p
	}
	return profiles, rows.Err()
}
