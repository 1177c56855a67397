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

type MessageStore struct {
	pool *pgxpool.Pool
}

func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

const messageColumns = `id, room_id, sender_id, encrypted_content, message_type, is_active, created_at`

func scanMessage(row pgx.Row) (*models.Message, error) {
	var msg models.Message
	err := row.Scan(
		&msg.ID,
		&msg.RoomID,
		&msg.SenderID,
		&msg.Content,
		&msg.Type,
		&msg.IsActive,
		&msg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *MessageStore) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {
	// created_at comes from now() — the store's clock, never the
	// client's, so room ordering can't be forged.
	query := `
		INSERT INTO messages (id, room_id, sender_id, encrypted_content, message_type, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, true, now())
		RETURNING ` + messageColumns

	out, err := scanMessage(s.pool.QueryRow(ctx, query,
		msg.ID, msg.RoomID, msg.SenderID, msg.Content, msg.Type))
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return out, nil
}

func (s *MessageStore) ListByRoom(ctx context.Context, roomID uuid.UUID, limit int) ([]models.Message, error) {
	// Oldest first; ties on created_at fall back to id so the order is
	// total and stable across reads.
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE room_id = $1 AND is_active = true
		ORDER BY created_at ASC, id ASC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.RoomID,
			&msg.SenderID,
			&msg.Content,
			&msg.Type,
			&msg.IsActive,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

func (s *MessageStore) GetForSender(ctx context.Context, messageID, senderID uuid.UUID) (*models.Message, error) {
	// No is_active filter: the sender can still see their own
	// soft-deleted messages (audit path).
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE id = $1 AND sender_id = $2`

	msg, err := scanMessage(s.pool.QueryRow(ctx, query, messageID, senderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get message for sender: %w", err)
	}
	return msg, nil
}

func (s *MessageStore) GetActive(ctx context.Context, messageID uuid.UUID) (*models.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE id = $1 AND is_active = true`

	msg, err := scanMessage(s.pool.QueryRow(ctx, query, messageID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get message: %w", err)
	}
	return msg, nil
}

func (s *MessageStore) UpdateContent(ctx context.Context, messageID, senderID uuid.UUID, content string) (*models.Message, error) {
	query := `
		UPDATE messages
		SET encrypted_content = $3
		WHERE id = $1 AND sender_id = $2 AND is_active = true
		RETURNING ` + messageColumns

	msg, err := scanMessage(s.pool.QueryRow(ctx, query, messageID, senderID, content))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update message: %w", err)
	}
	return msg, nil
}

func (s *MessageStore) Deactivate(ctx context.Context, messageID, senderID uuid.UUID) (bool, error) {
	query := `
		UPDATE messages
		SET is_active = false
		WHERE id = $1 AND sender_id = $2 AND is_active = true`

	tag, err := s.pool.Exec(ctx, query, messageID, senderID)
	if err != nil {
		return false, fmt.Errorf("deactivate message: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
