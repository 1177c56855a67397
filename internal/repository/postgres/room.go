package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/cipherroom/internal/models"
	"github.com/lalith-99/cipherroom/internal/repository"
)

// pgUniqueViolation is the Postgres error code for a unique constraint
// violation. The stores translate it to repository.ErrDuplicate so the
// service layer never imports pgconn.
const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

type RoomStore struct {
	pool *pgxpool.Pool
}

func NewRoomStore(pool *pgxpool.Pool) *RoomStore {
	return &RoomStore{pool: pool}
}

const roomColumns = `id, name, code, created_by, max_members, is_active, created_at, updated_at`

func scanRoom(row pgx.Row) (*models.Room, error) {
	var r models.Room
	err := row.Scan(
		&r.ID,
		&r.Name,
		&r.Code,
		&r.CreatedBy,
		&r.MaxMembers,
		&r.IsActive,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *RoomStore) Create(ctx context.Context, room *models.Room) (*models.Room, error) {
	query := `
		INSERT INTO rooms (id, name, code, created_by, max_members, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, true, now(), now())
		RETURNING ` + roomColumns

	r, err := scanRoom(s.pool.QueryRow(ctx, query,
		room.ID, room.Name, room.Code, room.CreatedBy, room.MaxMembers))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, fmt.Errorf("insert room: %w", err)
	}
	return r, nil
}

func (s *RoomStore) GetByID(ctx context.Context, roomID uuid.UUID) (*models.Room, error) {
	query := `
		SELECT ` + roomColumns + `
		FROM rooms
		WHERE id = $1 AND is_active = true`

	r, err := scanRoom(s.pool.QueryRow(ctx, query, roomID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get room: %w", err)
	}
	return r, nil
}

func (s *RoomStore) GetByCode(ctx context.Context, code string) (*models.Room, error) {
	query := `
		SELECT ` + roomColumns + `
		FROM rooms
		WHERE code = $1 AND is_active = true`

	r, err := scanRoom(s.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get room by code: %w", err)
	}
	return r, nil
}

func (s *RoomStore) Update(ctx context.Context, roomID uuid.UUID, name string, maxMembers int) (*models.Room, error) {
	query := `
		UPDATE rooms
		SET name = $2, max_members = $3, updated_at = now()
		WHERE id = $1 AND is_active = true
		RETURNING ` + roomColumns

	r, err := scanRoom(s.pool.QueryRow(ctx, query, roomID, name, maxMembers))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update room: %w", err)
	}
	return r, nil
}

func (s *RoomStore) Deactivate(ctx context.Context, roomID uuid.UUID) error {
	query := `
		UPDATE rooms
		SET is_active = false, updated_at = now()
		WHERE id = $1`

	if _, err := s.pool.Exec(ctx, query, roomID); err != nil {
		return fmt.Errorf("deactivate room: %w", err)
	}
	return nil
}

func (s *RoomStore) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Room, error) {
	query := `
		SELECT DISTINCT r.id, r.name, r.code, r.created_by, r.max_members,
		       r.is_active, r.created_at, r.updated_at
		FROM rooms r
		JOIN room_memberships m ON m.room_id = r.id
		WHERE m.user_id = $1 AND m.is_active = true AND r.is_active = true
		ORDER BY r.created_at DESC`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	rooms := make([]models.Room, 0)
	for rows.Next() {
		var r models.Room
		if err := rows.Scan(
			&r.ID,
			&r.Name,
			&r.Code,
			&r.CreatedBy,
			&r.MaxMembers,
			&r.IsActive,
			&r.CreatedAt,
			&r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}

	return rooms, nil
}
