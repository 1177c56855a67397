package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lalith-99/cipherroom/internal/apperr"
	"github.com/lalith-99/cipherroom/internal/models"
)

func TestMarkDeliveredThenRead(t *testing.T) {
	h := newHarness(t)
	sender := uuid.New()
	reader := uuid.New()
	ctx := context.Background()

	room := h.createRoom(t, "team", sender)
	h.joinRoom(t, room, reader)

	msg, err := h.messages.PostMessage(ctx, room.ID, sender, "cipher", models.MessageTypeText)
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	delivered, err := h.delivery.MarkDelivered(ctx, msg.ID, reader)
	if err != nil {
		t.Fatalf("mark delivered: %v", err)
	}
	if delivered.DeliveredAt == nil {
		t.Fatal("expected delivered_at to be set")
	}
	if delivered.ReadAt != nil {
		t.Fatal("expected read_at unset after delivery")
	}
	firstDelivery := *delivered.DeliveredAt

	read, err := h.delivery.MarkRead(ctx, msg.ID, reader)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if read.ReadAt == nil {
		t.Fatal("expected read_at to be set")
	}
	if read.DeliveredAt == nil || !read.DeliveredAt.Equal(firstDelivery) {
		t.Fatalf("expected delivered_at unchanged, got %v", read.DeliveredAt)
	}
}

func TestMarkReadBackfillsDelivery(t *testing.T) {
	h := newHarness(t)
	sender := uuid.New()
	reader := uuid.New()
	ctx := context.Background()

	room := h.createRoom(t, "team", sender)
	h.joinRoom(t, room, reader)

	msg, err := h.messages.PostMessage(ctx, room.ID, sender, "cipher", models.MessageTypeText)
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	// Read without a prior delivery mark sets both timestamps.
	read, err := h.delivery.MarkRead(ctx, msg.ID, reader)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if read.DeliveredAt == nil || read.ReadAt == nil {
		t.Fatalf("expected both timestamps set, got %+v", read)
	}
}

func TestReceiptStateNeverRegresses(t *testing.T) {
	h := newHarness(t)
	sender := uuid.New()
	reader := uuid.New()
	ctx := context.Background()

	room := h.createRoom(t, "team", sender)
	h.joinRoom(t, room, reader)

	msg, err := h.messages.PostMessage(ctx, room.ID, sender, "cipher", models.MessageTypeText)
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	read, err := h.delivery.MarkRead(ctx, msg.ID, reader)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}

	// MarkDelivered after MarkRead must not clear read_at or move
	// delivered_at.
	after, err := h.delivery.MarkDelivered(ctx, msg.ID, reader)
	if err != nil {
		t.Fatalf("mark delivered after read: %v", err)
	}
	if after.ReadAt == nil || !after.ReadAt.Equal(*read.ReadAt) {
		t.Fatalf("expected read_at unchanged, got %v", after.ReadAt)
	}
	if after.DeliveredAt == nil || !after.DeliveredAt.Equal(*read.DeliveredAt) {
		t.Fatalf("expected delivered_at unchanged, got %v", after.DeliveredAt)
	}

	// Repeat MarkRead is a no-op.
	again, err := h.delivery.MarkRead(ctx, msg.ID, reader)
	if err != nil {
		t.Fatalf("repeat mark read: %v", err)
	}
	if !again.ReadAt.Equal(*read.ReadAt) {
		t.Fatalf("expected repeat read to be no-op, got %v", again.ReadAt)
	}
}

func TestMarkRequiresMembership(t *testing.T) {
	h := newHarness(t)
	sender := uuid.New()
	ctx := context.Background()

	room := h.createRoom(t, "team", sender)
	msg, err := h.messages.PostMessage(ctx, room.ID, sender, "cipher", models.MessageTypeText)
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	if _, err := h.delivery.MarkDelivered(ctx, msg.ID, uuid.New()); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for non-member, got %v", err)
	}
	if _, err := h.delivery.MarkRead(ctx, msg.ID, uuid.New()); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for non-member, got %v", err)
	}
	if _, err := h.delivery.MarkDelivered(ctx, uuid.New(), sender); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for unknown message, got %v", err)
	}
}

func TestListReceiptsSenderOnly(t *testing.T) {
	h := newHarness(t)
	sender := uuid.New()
	reader := uuid.New()
	ctx := context.Background()

	room := h.createRoom(t, "team", sender)
	h.joinRoom(t, room, reader)

	msg, err := h.messages.PostMessage(ctx, room.ID, sender, "cipher", models.MessageTypeText)
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	receipts, err := h.delivery.ListReceipts(ctx, msg.ID, sender)
	if err != nil {
		t.Fatalf("list receipts: %v", err)
	}
	if len(receipts) != 1 || receipts[0].UserID != reader {
		t.Fatalf("expected one receipt for reader, got %+v", receipts)
	}

	// Recipients can't enumerate each other's receipts.
	if _, err := h.delivery.ListReceipts(ctx, msg.ID, reader); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for non-sender, got %v", err)
	}
}

// TestRoomLifecycleEndToEnd walks the whole flow: create, join by code,
// post, read, verify receipt state.
func TestRoomLifecycleEndToEnd(t *testing.T) {
	h := newHarness(t)
	alice := uuid.New()
	bob := uuid.New()
	ctx := context.Background()

	room := h.createRoom(t, "Team", alice)
	if len(room.Code) != 6 {
		t.Fatalf("expected 6-char room code, got %q", room.Code)
	}

	if _, err := h.members.Join(ctx, room.Code, bob, "bob-key"); err != nil {
		t.Fatalf("bob join: %v", err)
	}

	msg, err := h.messages.PostMessage(ctx, room.ID, alice, "hello", models.MessageTypeText)
	if err != nil {
		t.Fatalf("alice post: %v", err)
	}

	if _, err := h.delivery.MarkRead(ctx, msg.ID, bob); err != nil {
		t.Fatalf("bob mark read: %v", err)
	}

	bobReceipt, err := h.receiptRepo.Get(ctx, msg.ID, bob)
	if err != nil {
		t.Fatalf("get bob receipt: %v", err)
	}
	if bobReceipt == nil || bobReceipt.DeliveredAt == nil || bobReceipt.ReadAt == nil {
		t.Fatalf("expected bob's receipt fully marked, got %+v", bobReceipt)
	}

	// Alice is the sender: no receipt row exists for her.
	aliceReceipt, err := h.receiptRepo.Get(ctx, msg.ID, alice)
	if err != nil {
		t.Fatalf("get alice receipt: %v", err)
	}
	if aliceReceipt != nil {
		t.Fatalf("expected no receipt for sender, got %+v", aliceReceipt)
	}
}
