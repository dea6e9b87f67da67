package postgres

import (
	"context"
	"time"

	"github.com/bwise1/huddle_karma/internal/geo"
	"github.com/bwise1/huddle_karma/internal/huddle"
	"github.com/bwise1/huddle_karma/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const huddleColumns = `
	id, creator_id, title, description, lat, lon, location_name, geohash,
	start_time, end_time, max_participants, gender_filter, status, created_at, updated_at`

func scanHuddle(row pgx.Row) (model.Huddle, error) {
	var h model.Huddle
	var genderFilter, status string
	err := row.Scan(
		&h.ID, &h.CreatorID, &h.Title, &h.Description, &h.Lat, &h.Lon, &h.LocationName, &h.Geohash,
		&h.StartTime, &h.EndTime, &h.MaxParticipants, &genderFilter, &status, &h.CreatedAt, &h.UpdatedAt,
	)
	h.GenderFilter = model.GenderFilter(genderFilter)
	h.Status = model.HuddleStatus(status)
	return h, err
}

func collectHuddles(rows pgx.Rows) ([]model.Huddle, error) {
	defer rows.Close()

	var huddles []model.Huddle
	for rows.Next() {
		h, err := scanHuddle(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan huddle")
		}
		huddles = append(huddles, h)
	}
	return huddles, rows.Err()
}

func (s *Store) Create(ctx context.Context, h model.Huddle) (model.Huddle, error) {
	var created model.Huddle

	err := s.db.RunInTx(ctx, func(tx pgx.Tx) error {
		var err error
		created, err = scanHuddle(tx.QueryRow(ctx, `
			INSERT INTO huddles (
				id, creator_id, title, description, lat, lon, location_name, geohash,
				start_time, end_time, max_participants, gender_filter, status, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			RETURNING`+huddleColumns,
			h.ID, h.CreatorID, h.Title, h.Description, h.Lat, h.Lon, h.LocationName, h.Geohash,
			h.StartTime, h.EndTime, h.MaxParticipants, string(h.GenderFilter), string(h.Status), h.CreatedAt, h.UpdatedAt,
		))
		if err != nil {
			return errors.Wrap(err, "insert huddle")
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO huddle_participants (huddle_id, user_id, status, joined_at, updated_at)
			VALUES ($1, $2, 'JOINED', $3, $3)
		`, created.ID, created.CreatorID, h.CreatedAt)
		return errors.Wrap(err, "insert creator participation")
	})
	if err != nil {
		return model.Huddle{}, err
	}

	return created, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (model.Huddle, error) {
	h, err := scanHuddle(s.db.Pool().QueryRow(ctx, `SELECT`+huddleColumns+` FROM huddles WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Huddle{}, huddle.ErrNotFound
	}
	if err != nil {
		return model.Huddle{}, errors.Wrap(err, "select huddle")
	}
	return h, nil
}

func (s *Store) FindInBox(ctx context.Context, box geo.BoundingBox) ([]model.Huddle, error) {
	rows, err := s.db.Pool().Query(ctx, `
		SELECT`+huddleColumns+`
		FROM huddles
		WHERE lat BETWEEN $1 AND $2 AND lon BETWEEN $3 AND $4
	`, box.MinLat, box.MaxLat, box.MinLon, box.MaxLon)
	if err != nil {
		return nil, errors.Wrap(err, "query huddles in box")
	}
	return collectHuddles(rows)
}

func (s *Store) Overdue(ctx context.Context, cutoff time.Time) ([]model.Huddle, error) {
	rows, err := s.db.Pool().Query(ctx, `
		SELECT`+huddleColumns+`
		FROM huddles
		WHERE status IN ('OPEN', 'FULL') AND end_time < $1
		ORDER BY end_time
	`, cutoff)
	if err != nil {
		return nil, errors.Wrap(err, "query overdue huddles")
	}
	return collectHuddles(rows)
}

const participantColumns = `huddle_id, user_id, status, joined_at, updated_at`

func collectParticipants(rows pgx.Rows) ([]model.Participant, error) {
	defer rows.Close()

	var participants []model.Participant
	for rows.Next() {
		var p model.Participant
		var status string
		if err := rows.Scan(&p.HuddleID, &p.UserID, &status, &p.JoinedAt, &p.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan participant")
		}
		p.Status = model.ParticipantStatus(status)
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (s *Store) Roster(ctx context.Context, id uuid.UUID) ([]model.Participant, error) {
	rows, err := s.db.Pool().Query(ctx, `
		SELECT `+participantColumns+`
		FROM huddle_participants
		WHERE huddle_id = $1 AND status = 'JOINED'
		ORDER BY joined_at
	`, id)
	if err != nil {
		return nil, errors.Wrap(err, "query roster")
	}
	return collectParticipants(rows)
}

func (s *Store) RosterStats(ctx context.Context, ids []uuid.UUID, viewer uuid.UUID) (map[uuid.UUID]huddle.RosterStat, error) {
	stats := make(map[uuid.UUID]huddle.RosterStat, len(ids))
	if len(ids) == 0 {
		return stats, nil
	}

	rows, err := s.db.Pool().Query(ctx, `
		SELECT huddle_id, COUNT(*), BOOL_OR(user_id = $2)
		FROM huddle_participants
		WHERE huddle_id = ANY($1::uuid[]) AND status = 'JOINED'
		GROUP BY huddle_id
	`, uuidStrings(ids), viewer)
	if err != nil {
		return nil, errors.Wrap(err, "query roster stats")
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var st huddle.RosterStat
		if err := rows.Scan(&id, &st.Count, &st.ViewerJoined); err != nil {
			return nil, errors.Wrap(err, "scan roster stats")
		}
		stats[id] = st
	}
	return stats, rows.Err()
}

// WithHuddle locks the huddle row with SELECT ... FOR UPDATE so concurrent
// mutations of one huddle run one after another.
func (s *Store) WithHuddle(ctx context.Context, id uuid.UUID, fn func(tx huddle.Tx) error) error {
	return s.db.RunInTx(ctx, func(tx pgx.Tx) error {
		h, err := scanHuddle(tx.QueryRow(ctx, `SELECT`+huddleColumns+` FROM huddles WHERE id = $1 FOR UPDATE`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return huddle.ErrNotFound
		}
		if err != nil {
			return errors.Wrap(err, "lock huddle")
		}

		rows, err := tx.Query(ctx, `
			SELECT `+participantColumns+`
			FROM huddle_participants
			WHERE huddle_id = $1
			ORDER BY joined_at
		`, id)
		if err != nil {
			return errors.Wrap(err, "query participants")
		}
		participants, err := collectParticipants(rows)
		if err != nil {
			return err
		}

		return fn(&huddleTx{tx: tx, huddle: h, rows: participants})
	})
}

type huddleTx struct {
	tx     pgx.Tx
	huddle model.Huddle
	rows   []model.Participant
}

func (t *huddleTx) Huddle() model.Huddle {
	return t.huddle
}

func (t *huddleTx) Roster() []model.Participant {
	out := make([]model.Participant, 0, len(t.rows))
	for _, p := range t.rows {
		if p.Status == model.ParticipantJoined {
			out = append(out, p)
		}
	}
	return out
}

func (t *huddleTx) Membership(userID uuid.UUID) (model.Participant, bool) {
	for _, p := range t.rows {
		if p.UserID == userID {
			return p, true
		}
	}
	return model.Participant{}, false
}

func (t *huddleTx) AddParticipant(ctx context.Context, userID uuid.UUID, at time.Time) error {
	if p, ok := t.Membership(userID); ok && p.Status == model.ParticipantJoined {
		return huddle.ErrAlreadyJoined
	}

	var p model.Participant
	var status string
	err := t.tx.QueryRow(ctx, `
		INSERT INTO huddle_participants (huddle_id, user_id, status, joined_at, updated_at)
		VALUES ($1, $2, 'JOINED', $3, $3)
		ON CONFLICT (huddle_id, user_id)
		DO UPDATE SET status = 'JOINED', joined_at = EXCLUDED.joined_at, updated_at = EXCLUDED.updated_at
		WHERE huddle_participants.status <> 'JOINED'
		RETURNING `+participantColumns,
		t.huddle.ID, userID, at,
	).Scan(&p.HuddleID, &p.UserID, &status, &p.JoinedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) || isUniqueViolation(err, constraintParticipant) {
		return huddle.ErrAlreadyJoined
	}
	if err != nil {
		return errors.Wrap(err, "upsert participant")
	}
	p.Status = model.ParticipantStatus(status)

	for i := range t.rows {
		if t.rows[i].UserID == userID {
			t.rows[i] = p
			return nil
		}
	}
	t.rows = append(t.rows, p)
	return nil
}

func (t *huddleTx) SetParticipantStatus(ctx context.Context, userID uuid.UUID, status model.ParticipantStatus, at time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE huddle_participants
		SET status = $3, updated_at = $4
		WHERE huddle_id = $1 AND user_id = $2
	`, t.huddle.ID, userID, string(status), at)
	if err != nil {
		return errors.Wrap(err, "update participant status")
	}
	if tag.RowsAffected() == 0 {
		return huddle.ErrNotParticipant
	}

	for i := range t.rows {
		if t.rows[i].UserID == userID {
			t.rows[i].Status = status
			t.rows[i].UpdatedAt = at
		}
	}
	return nil
}

// TransitionStatus is a conditional update: zero matched rows means another
// writer moved the huddle first.
func (t *huddleTx) TransitionStatus(ctx context.Context, from []model.HuddleStatus, to model.HuddleStatus, at time.Time) error {
	fromStrings := make([]string, len(from))
	for i, st := range from {
		fromStrings[i] = string(st)
	}

	tag, err := t.tx.Exec(ctx, `
		UPDATE huddles
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = ANY($4::text[])
	`, t.huddle.ID, string(to), at, fromStrings)
	if err != nil {
		return errors.Wrap(err, "update huddle status")
	}
	if tag.RowsAffected() == 0 {
		return huddle.ErrStaleStatus
	}

	t.huddle.Status = to
	t.huddle.UpdatedAt = at
	return nil
}

func (t *huddleTx) AppendKarma(ctx context.Context, entry model.KarmaTransaction) error {
	return appendKarma(ctx, t.tx, entry)
}
