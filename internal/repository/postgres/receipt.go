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

type ReceiptStore struct {
	pool *pgxpool.Pool
}

func NewReceiptStore(pool *pgxpool.Pool) *ReceiptStore {
	return &ReceiptStore{pool: pool}
}

const receiptColumns = `id, message_id, user_id, delivered_at, read_at`

func scanReceipt(row pgx.Row) (*models.Receipt, error) {
	var r models.Receipt
	err := row.Scan(
		&r.ID,
		&r.MessageID,
		&r.UserID,
		&r.DeliveredAt,
		&r.ReadAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateBatch fans out pending receipts in one round trip. ON CONFLICT DO
// NOTHING keeps it safe against a concurrent MarkDelivered that already
// created the (message, user) row.
func (s *ReceiptStore) CreateBatch(ctx context.Context, messageID uuid.UUID, userIDs []uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO message_receipts (id, message_id, user_id)
		SELECT uuid_generate_v4(), $1, unnest($2::uuid[])
		ON CONFLICT (message_id, user_id) DO NOTHING`

	if _, err := s.pool.Exec(ctx, query, messageID, userIDs); err != nil {
		return fmt.Errorf("fan out receipts: %w", err)
	}
	return nil
}

// MarkDelivered is a single conditional upsert: the COALESCE keeps an
// already-set delivered_at, so the timestamp is written at most once.
func (s *ReceiptStore) MarkDelivered(ctx context.Context, messageID, userID uuid.UUID) (*models.Receipt, error) {
	query := `
		INSERT INTO message_receipts (id, message_id, user_id, delivered_at)
		VALUES (uuid_generate_v4(), $1, $2, now())
		ON CONFLICT (message_id, user_id) DO UPDATE SET
			delivered_at = COALESCE(message_receipts.delivered_at, now())
		RETURNING ` + receiptColumns

	r, err := scanReceipt(s.pool.QueryRow(ctx, query, messageID, userID))
	if err != nil {
		return nil, fmt.Errorf("mark delivered: %w", err)
	}
	return r, nil
}

// MarkRead sets read_at once and backfills delivered_at if it was never
// set — a read receipt implies the message arrived.
func (s *ReceiptStore) MarkRead(ctx context.Context, messageID, userID uuid.UUID) (*models.Receipt, error) {
	query := `
		INSERT INTO message_receipts (id, message_id, user_id, delivered_at, read_at)
		VALUES (uuid_generate_v4(), $1, $2, now(), now())
		ON CONFLICT (message_id, user_id) DO UPDATE SET
			delivered_at = COALESCE(message_receipts.delivered_at, now()),
			read_at      = COALESCE(message_receipts.read_at, now())
		RETURNING ` + receiptColumns

	r, err := scanReceipt(s.pool.QueryRow(ctx, query, messageID, userID))
	if err != nil {
		return nil, fmt.Errorf("mark read: %w", err)
	}
	return r, nil
}

func (s *ReceiptStore) ListByMessage(ctx context.Context, messageID uuid.UUID) ([]models.Receipt, error) {
	query := `
		SELECT ` + receiptColumns + `
		FROM message_receipts
		WHERE message_id = $1`

	rows, err := s.pool.Query(ctx, query, messageID)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	defer rows.Close()

	receipts := make([]models.Receipt, 0)
	for rows.Next() {
		var r models.Receipt
		if err := rows.Scan(
			&r.ID,
			&r.MessageID,
			&r.UserID,
			&r.DeliveredAt,
			&r.ReadAt,
		); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate receipts: %w", err)
	}

	return receipts, nil
}

func (s *ReceiptStore) Get(ctx context.Context, messageID, userID uuid.UUID) (*models.Receipt, error) {
	query := `
		SELECT ` + receiptColumns + `
		FROM message_receipts
		WHERE message_id = $1 AND user_id = $2`

	r, err := scanReceipt(s.pool.QueryRow(ctx, query, messageID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get receipt: %w", err)
	}
	return r, nil
}
