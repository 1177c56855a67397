package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/lalith-99/cipherroom/internal/apperr"
	"github.com/lalith-99/cipherroom/internal/models"
	"github.com/lalith-99/cipherroom/internal/repository"
	"go.uber.org/zap"
)

// defaultMessageLimit caps ListMessages when the caller doesn't ask for a
// limit.
const defaultMessageLimit = 200

type MessageService struct {
	rooms    repository.RoomRepository
	members  repository.MembershipRepository
	messages repository.MessageRepository
	receipts repository.ReceiptRepository
	logger   *zap.Logger
}

func NewMessageService(
	rooms repository.RoomRepository,
	members repository.MembershipRepository,
	messages repository.MessageRepository,
	receipts repository.ReceiptRepository,
	logger *zap.Logger,
) *MessageService {
	return &MessageService{
		rooms:    rooms,
		members:  members,
		messages: messages,
		receipts: receipts,
		logger:   logger,
	}
}

// activeMember returns the requester's active membership in the room, or
// nil if they have none.
func (s *MessageService) activeMember(ctx context.Context, roomID, userID uuid.UUID) (*models.Membership, error) {
	m, err := s.members.Get(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil || !m.IsActive {
		return nil, nil
	}
	return m, nil
}

// PostMessage appends a message to the room's log and fans out one
// pending receipt per active member other than the sender. Fan-out runs
// before PostMessage returns, but it is best-effort: a fan-out failure is
// logged and the message stands.
func (s *MessageService) PostMessage(ctx context.Context, roomID, senderID uuid.UUID, content string, msgType models.MessageType) (*models.Message, error) {
	if content == "" {
		return nil, apperr.Validation("message content must not be empty")
	}
	if msgType == "" {
		msgType = models.MessageTypeText
	}
	if !models.ValidMessageType(msgType) {
		return nil, apperr.Validation("unknown message type %q", msgType)
	}

	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, apperr.NotFound("room not found")
	}

	m, err := s.activeMember(ctx, roomID, senderID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apperr.Forbidden("you are not a member of this room")
	}

	msg, err := s.messages.Create(ctx, &models.Message{
		ID:       uuid.New(),
		RoomID:   roomID,
		SenderID: senderID,
		Content:  content,
		Type:     msgType,
	})
	if err != nil {
		return nil, err
	}

	s.fanOut(ctx, msg)
	return msg, nil
}

// fanOut creates pending receipts for every active member except the
// sender. Errors are logged, never raised: delivery tracking is
// best-effort relative to message persistence, and recipients that were
// missed here still get a receipt lazily on their first MarkDelivered or
// MarkRead.
func (s *MessageService) fanOut(ctx context.Context, msg *models.Message) {
	members, err := s.members.ListActive(ctx, msg.RoomID)
	if err != nil {
		s.logger.Error("receipt fan-out: list members failed",
			zap.String("message_id", msg.ID.String()),
			zap.Error(err))
		return
	}

	recipients := make([]uuid.UUID, 0, len(members)-1)
	for _, member := range members {
		if member.UserID != msg.SenderID {
			recipients = append(recipients, member.UserID)
		}
	}
	if len(recipients) == 0 {
		return
	}

	if err := s.receipts.CreateBatch(ctx, msg.ID, recipients); err != nil {
		s.logger.Error("receipt fan-out failed",
			zap.String("message_id", msg.ID.String()),
			zap.Int("recipients", len(recipients)),
			zap.Error(err))
	}
}

// ListMessages returns the room's active messages oldest first. A
// non-member gets an empty list, not an error (same hiding policy as
// ListMembers).
func (s *MessageService) ListMessages(ctx context.Context, roomID, requesterID uuid.UUID, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = defaultMessageLimit
	}

	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, apperr.NotFound("room not found")
	}

	m, err := s.activeMember(ctx, roomID, requesterID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return []models.Message{}, nil
	}

	return s.messages.ListByRoom(ctx, roomID, limit)
}

// senderMessage loads one of the sender's own messages by id and checks
// that its room is still active. Deleting a room logically removes its
// messages, so a message under a deleted room reads as missing even to
// its sender.
func (s *MessageService) senderMessage(ctx context.Context, messageID, senderID uuid.UUID) (*models.Message, error) {
	msg, err := s.messages.GetForSender(ctx, messageID, senderID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, apperr.NotFound("message not found")
	}

	room, err := s.rooms.GetByID(ctx, msg.RoomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, apperr.NotFound("message not found")
	}
	return msg, nil
}

// GetMessage returns one of the sender's own messages by id, including
// soft-deleted ones. Anyone else's message id behaves as missing.
func (s *MessageService) GetMessage(ctx context.Context, messageID, senderID uuid.UUID) (*models.Message, error) {
	return s.senderMessage(ctx, messageID, senderID)
}

// UpdateMessage rewrites the body of the sender's own message. The query
// is sender-scoped, so editing someone else's message reports NotFound
// rather than Forbidden.
func (s *MessageService) UpdateMessage(ctx context.Context, messageID, senderID uuid.UUID, newContent string) (*models.Message, error) {
	if newContent == "" {
		return nil, apperr.Validation("message content must not be empty")
	}

	if _, err := s.senderMessage(ctx, messageID, senderID); err != nil {
		return nil, err
	}

	msg, err := s.messages.UpdateContent(ctx, messageID, senderID, newContent)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, apperr.NotFound("message not found")
	}
	return msg, nil
}

// DeleteMessage soft-deletes the sender's own message. Same sender
// scoping as UpdateMessage.
func (s *MessageService) DeleteMessage(ctx context.Context, messageID, senderID uuid.UUID) error {
	if _, err := s.senderMessage(ctx, messageID, senderID); err != nil {
		return err
	}

	ok, err := s.messages.Deactivate(ctx, messageID, senderID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("message not found")
	}
	return nil
}
