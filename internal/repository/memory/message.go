package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/cipherroom/internal/models"
)

type MessageRepo struct {
	mu       sync.RWMutex
	messages map[uuid.UUID]*models.Message
	seq      int64
	order    map[uuid.UUID]int64 // insertion order, the tie-breaker
}

func NewMessageRepo() *MessageRepo {
	return &MessageRepo{
		messages: make(map[uuid.UUID]*models.Message),
		order:    make(map[uuid.UUID]int64),
	}
}

func (r *MessageRepo) Create(_ context.Context, msg *models.Message) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *msg
	stored.IsActive = true
	stored.CreatedAt = time.Now()
	r.seq++
	r.messages[stored.ID] = &stored
	r.order[stored.ID] = r.seq

	out := stored
	return &out, nil
}

func (r *MessageRepo) ListByRoom(_ context.Context, roomID uuid.UUID, limit int) ([]models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	messages := make([]models.Message, 0)
	for _, msg := range r.messages {
		if msg.RoomID == roomID && msg.IsActive {
			messages = append(messages, *msg)
		}
	}

	sort.Slice(messages, func(i, j int) bool {
		if messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return r.order[messages[i].ID] < r.order[messages[j].ID]
		}
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})

	if limit > 0 && len(messages) > limit {
		messages = messages[:limit]
	}
	return messages, nil
}

func (r *MessageRepo) GetForSender(_ context.Context, messageID, senderID uuid.UUID) (*models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msg, ok := r.messages[messageID]
	if !ok || msg.SenderID != senderID {
		return nil, nil
	}
	out := *msg
	return &out, nil
}

func (r *MessageRepo) GetActive(_ context.Context, messageID uuid.UUID) (*models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msg, ok := r.messages[messageID]
	if !ok || !msg.IsActive {
		return nil, nil
	}
	out := *msg
	return &out, nil
}

func (r *MessageRepo) UpdateContent(_ context.Context, messageID, senderID uuid.UUID, content string) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg, ok := r.messages[messageID]
	if !ok || msg.SenderID != senderID || !msg.IsActive {
		return nil, nil
	}
	msg.Content = content

	out := *msg
	return &out, nil
}

func (r *MessageRepo) Deactivate(_ context.Context, messageID, senderID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg, ok := r.messages[messageID]
	if !ok || msg.SenderID != senderID || !msg.IsActive {
		return false, nil
	}
	msg.IsActive = false
	return true, nil
}
