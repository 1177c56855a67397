package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/lalith-99/cipherroom/internal/apperr"
	"github.com/lalith-99/cipherroom/internal/models"
	"github.com/lalith-99/cipherroom/internal/repository"
)

// DeliveryService drives the per-recipient receipt state machine:
// Pending → Delivered → Read, monotonic. Timestamps come from the store,
// never from the client.
type DeliveryService struct {
	rooms    repository.RoomRepository
	members  repository.MembershipRepository
	messages repository.MessageRepository
	receipts repository.ReceiptRepository
}

func NewDeliveryService(
	rooms repository.RoomRepository,
	members repository.MembershipRepository,
	messages repository.MessageRepository,
	receipts repository.ReceiptRepository,
) *DeliveryService {
	return &DeliveryService{
		rooms:    rooms,
		members:  members,
		messages: messages,
		receipts: receipts,
	}
}

// roomAlive reports whether the message's parent room is still active.
// Receipts on messages of a deleted room behave as if the message itself
// were gone.
func (s *DeliveryService) roomAlive(ctx context.Context, roomID uuid.UUID) (bool, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return false, err
	}
	return room != nil, nil
}

// resolve loads the message, checks that its room is still active, and
// checks that userID is an active member of that room.
func (s *DeliveryService) resolve(ctx context.Context, messageID, userID uuid.UUID) (*models.Message, error) {
	msg, err := s.messages.GetActive(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, apperr.NotFound("message not found")
	}

	alive, err := s.roomAlive(ctx, msg.RoomID)
	if err != nil {
		return nil, err
	}
	if !alive {
		return nil, apperr.NotFound("message not found")
	}

	m, err := s.members.Get(ctx, msg.RoomID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil || !m.IsActive {
		return nil, apperr.Forbidden("you are not a member of this room")
	}
	return msg, nil
}

// MarkDelivered records that the message reached userID. Repeat calls are
// no-ops; the first delivered_at is never overwritten or cleared.
func (s *DeliveryService) MarkDelivered(ctx context.Context, messageID, userID uuid.UUID) (*models.Receipt, error) {
	if _, err := s.resolve(ctx, messageID, userID); err != nil {
		return nil, err
	}
	return s.receipts.MarkDelivered(ctx, messageID, userID)
}

// MarkRead records that userID read the message. Reading implies
// delivery: a read on an undelivered receipt sets both timestamps.
// Already-read receipts are untouched.
func (s *DeliveryService) MarkRead(ctx context.Context, messageID, userID uuid.UUID) (*models.Receipt, error) {
	if _, err := s.resolve(ctx, messageID, userID); err != nil {
		return nil, err
	}
	return s.receipts.MarkRead(ctx, messageID, userID)
}

// ListReceipts returns the per-recipient delivery state of a message to
// its sender. Non-senders get NotFound — the sender-scoped lookup hides
// other people's messages.
func (s *DeliveryService) ListReceipts(ctx context.Context, messageID, senderID uuid.UUID) ([]models.Receipt, error) {
	msg, err := s.messages.GetForSender(ctx, messageID, senderID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, apperr.NotFound("message not found")
	}

	alive, err := s.roomAlive(ctx, msg.RoomID)
	if err != nil {
		return nil, err
	}
	if !alive {
		return nil, apperr.NotFound("message not found")
	}

	return s.receipts.ListByMessage(ctx, messageID)
}
