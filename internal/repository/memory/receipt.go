package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/cipherroom/internal/models"
)

type receiptKey struct {
	messageID uuid.UUID
	userID    uuid.UUID
}

type ReceiptRepo struct {
	mu       sync.RWMutex
	receipts map[receiptKey]*models.Receipt
}

func NewReceiptRepo() *ReceiptRepo {
	return &ReceiptRepo{receipts: make(map[receiptKey]*models.Receipt)}
}

func (r *ReceiptRepo) CreateBatch(_ context.Context, messageID uuid.UUID, userIDs []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, userID := range userIDs {
		key := receiptKey{messageID: messageID, userID: userID}
		if _, ok := r.receipts[key]; ok {
			continue
		}
		r.receipts[key] = &models.Receipt{
			ID:        uuid.New(),
			MessageID: messageID,
			UserID:    userID,
		}
	}
	return nil
}

func (r *ReceiptRepo) MarkDelivered(_ context.Context, messageID, userID uuid.UUID) (*models.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := receiptKey{messageID: messageID, userID: userID}
	rec, ok := r.receipts[key]
	if !ok {
		now := time.Now()
		rec = &models.Receipt{
			ID:          uuid.New(),
			MessageID:   messageID,
			UserID:      userID,
			DeliveredAt: &now,
		}
		r.receipts[key] = rec
	} else if rec.DeliveredAt == nil {
		now := time.Now()
		rec.DeliveredAt = &now
	}

	out := *rec
	return &out, nil
}

func (r *ReceiptRepo) MarkRead(_ context.Context, messageID, userID uuid.UUID) (*models.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := receiptKey{messageID: messageID, userID: userID}
	now := time.Now()
	rec, ok := r.receipts[key]
	if !ok {
		rec = &models.Receipt{
			ID:          uuid.New(),
			MessageID:   messageID,
			UserID:      userID,
			DeliveredAt: &now,
			ReadAt:      &now,
		}
		r.receipts[key] = rec
	} else {
		if rec.DeliveredAt == nil {
			rec.DeliveredAt = &now
		}
		if rec.ReadAt == nil {
			rec.ReadAt = &now
		}
	}

	out := *rec
	return &out, nil
}

func (r *ReceiptRepo) ListByMessage(_ context.Context, messageID uuid.UUID) ([]models.Receipt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	receipts := make([]models.Receipt, 0)
	for _, rec := range r.receipts {
		if rec.MessageID == messageID {
			receipts = append(receipts, *rec)
		}
	}
	return receipts, nil
}

func (r *ReceiptRepo) Get(_ context.Context, messageID, userID uuid.UUID) (*models.Receipt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.receipts[receiptKey{messageID: messageID, userID: userID}]
	if !ok {
		return nil, nil
	}
	out := *rec
	return &out, nil
}
