package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/cipherroom/internal/models"
)

type MembershipStore struct {
	pool *pgxpool.Pool
}

func NewMembershipStore(pool *pgxpool.Pool) *MembershipStore {
	return &MembershipStore{pool: pool}
}

const membershipColumns = `id, room_id, user_id, public_key, is_admin, is_active, joined_at`

func scanMembership(row pgx.Row) (*models.Membership, error) {
	var m models.Membership
	err := row.Scan(
		&m.ID,
		&m.RoomID,
		&m.UserID,
		&m.PublicKey,
		&m.IsAdmin,
		&m.IsActive,
		&m.JoinedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Upsert runs the whole join state machine as one conditional insert, so
// two concurrent joins for the same (room, user) can't create two rows:
//
//	no row       → insert active with the supplied key
//	inactive row → reactivate, overwrite the key
//	active row   → no-op, keep the existing key
func (s *MembershipStore) Upsert(ctx context.Context, m *models.Membership) (*models.Membership, error) {
	query := `
		INSERT INTO room_memberships (id, room_id, user_id, public_key, is_admin, is_active, joined_at)
		VALUES ($1, $2, $3, $4, $5, true, now())
		ON CONFLICT (room_id, user_id) DO UPDATE SET
			public_key = CASE WHEN room_memberships.is_active
				THEN room_memberships.public_key
				ELSE excluded.public_key END,
			is_admin  = excluded.is_admin,
			is_active = true
		RETURNING ` + membershipColumns

	out, err := scanMembership(s.pool.QueryRow(ctx, query,
		m.ID, m.RoomID, m.UserID, m.PublicKey, m.IsAdmin))
	if err != nil {
		return nil, fmt.Errorf("upsert membership: %w", err)
	}
	return out, nil
}

func (s *MembershipStore) Get(ctx context.Context, roomID, userID uuid.UUID) (*models.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM room_memberships
		WHERE room_id = $1 AND user_id = $2`

	m, err := scanMembership(s.pool.QueryRow(ctx, query, roomID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return m, nil
}

func (s *MembershipStore) Deactivate(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	query := `
		UPDATE room_memberships
		SET is_active = false
		WHERE room_id = $1 AND user_id = $2 AND is_active = true`

	tag, err := s.pool.Exec(ctx, query, roomID, userID)
	if err != nil {
		return false, fmt.Errorf("deactivate membership: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *MembershipStore) ListActive(ctx context.Context, roomID uuid.UUID) ([]models.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM room_memberships
		WHERE room_id = $1 AND is_active = true
		ORDER BY joined_at ASC`

	rows, err := s.pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := make([]models.Membership, 0)
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(
			&m.ID,
			&m.RoomID,
			&m.UserID,
			&m.PublicKey,
			&m.IsAdmin,
			&m.IsActive,
			&m.JoinedAt,
		); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}

	return members, nil
}

func (s *MembershipStore) CountActive(ctx context.Context, roomID uuid.UUID) (int, error) {
	query := `
		SELECT count(*)
		FROM room_memberships
		WHERE room_id = $1 AND is_active = true`

	var count int
	if err := s.pool.QueryRow(ctx, query, roomID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return count, nil
}
