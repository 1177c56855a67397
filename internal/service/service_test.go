package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lalith-99/cipherroom/internal/models"
	"github.com/lalith-99/cipherroom/internal/repository/memory"
	"github.com/lalith-99/cipherroom/internal/service"
	"go.uber.org/zap"
)

// harness wires the services against in-memory repositories. No redis
// (nil cache) and no database; the memory repos enforce the same
// uniqueness rules as the postgres stores.
type harness struct {
	rooms    *service.RoomService
	members  *service.MembershipService
	messages *service.MessageService
	delivery *service.DeliveryService

	membershipRepo *memory.MembershipRepo
	receiptRepo    *memory.ReceiptRepo
	inviteRepo     *memory.InviteRepo
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	logger := zap.NewNop()
	membershipRepo := memory.NewMembershipRepo()
	roomRepo := memory.NewRoomRepo(membershipRepo)
	inviteRepo := memory.NewInviteRepo()
	messageRepo := memory.NewMessageRepo()
	receiptRepo := memory.NewReceiptRepo()

	return &harness{
		rooms:          service.NewRoomService(roomRepo, membershipRepo, nil, logger),
		members:        service.NewMembershipService(roomRepo, membershipRepo, inviteRepo, logger),
		messages:       service.NewMessageService(roomRepo, membershipRepo, messageRepo, receiptRepo, logger),
		delivery:       service.NewDeliveryService(roomRepo, membershipRepo, messageRepo, receiptRepo),
		membershipRepo: membershipRepo,
		receiptRepo:    receiptRepo,
		inviteRepo:     inviteRepo,
	}
}

// createRoom is a shorthand for tests that just need a room to exist.
func (h *harness) createRoom(t *testing.T, name string, creator uuid.UUID) *models.Room {
	t.Helper()

	room, err := h.rooms.CreateRoom(context.Background(), name, 0, creator, "pk-"+creator.String()[:8])
	if err != nil {
		t.Fatalf("create room %q: %v", name, err)
	}
	return room
}

// joinRoom joins user to room by its code.
func (h *harness) joinRoom(t *testing.T, room *models.Room, user uuid.UUID) {
	t.Helper()

	if _, err := h.members.Join(context.Background(), room.Code, user, "pk-"+user.String()[:8]); err != nil {
		t.Fatalf("join room %q: %v", room.Code, err)
	}
}
