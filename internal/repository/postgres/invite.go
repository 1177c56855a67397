package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/cipherroom/internal/models"
	"github.com/lalith-99/cipherroom/internal/repository"
)

type InviteStore struct {
	pool *pgxpool.Pool
}

func NewInviteStore(pool *pgxpool.Pool) *InviteStore {
	return &InviteStore{pool: pool}
}

const inviteColumns = `id, room_id, created_by, code, expires_at, uses_remaining, created_at`

func scanInvite(row pgx.Row) (*models.Invite, error) {
	var inv models.Invite
	err := row.Scan(
		&inv.ID,
		&inv.RoomID,
		&inv.CreatedBy,
		&inv.Code,
		&inv.ExpiresAt,
		&inv.UsesRemaining,
		&inv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *InviteStore) Create(ctx context.Context, inv *models.Invite) (*models.Invite, error) {
	query := `
		INSERT INTO room_invites (id, room_id, created_by, code, expires_at, uses_remaining, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING ` + inviteColumns

	out, err := scanInvite(s.pool.QueryRow(ctx, query,
		inv.ID, inv.RoomID, inv.CreatedBy, inv.Code, inv.ExpiresAt, inv.UsesRemaining))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, fmt.Errorf("insert invite: %w", err)
	}
	return out, nil
}

func (s *InviteStore) GetByCode(ctx context.Context, code string) (*models.Invite, error) {
	query := `
		SELECT ` + inviteColumns + `
		FROM room_invites
		WHERE code = $1`

	inv, err := scanInvite(s.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invite: %w", err)
	}
	return inv, nil
}

// ConsumeUse decrements atomically; the WHERE clause is the floor. An
// unlimited invite (-1) matches the first arm and is left untouched.
func (s *InviteStore) ConsumeUse(ctx context.Context, inviteID uuid.UUID) (bool, error) {
	query := `
		UPDATE room_invites
		SET uses_remaining = CASE WHEN uses_remaining = -1
			THEN uses_remaining
			ELSE uses_remaining - 1 END
		WHERE id = $1 AND (uses_remaining = -1 OR uses_remaining > 0)`

	tag, err := s.pool.Exec(ctx, query, inviteID)
	if err != nil {
		return false, fmt.Errorf("consume invite: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *InviteStore) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]models.Invite, error) {
	query := `
		SELECT ` + inviteColumns + `
		FROM room_invites
		WHERE room_id = $1
		ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	defer rows.Close()

	invites := make([]models.Invite, 0)
	for rows.Next() {
		var inv models.Invite
		if err := rows.Scan(
			&inv.ID,
			&inv.RoomID,
			&inv.CreatedBy,
			&inv.Code,
			&inv.ExpiresAt,
			&inv.UsesRemaining,
			&inv.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan invite: %w", err)
		}
		invites = append(invites, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invites: %w", err)
	}

	return invites, nil
}
