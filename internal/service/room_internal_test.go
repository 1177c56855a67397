package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lalith-99/cipherroom/internal/apperr"
	"github.com/lalith-99/cipherroom/internal/repository/memory"
	"go.uber.org/zap"
)

func newRoomServiceForCodes(t *testing.T) *RoomService {
	t.Helper()

	membershipRepo := memory.NewMembershipRepo()
	roomRepo := memory.NewRoomRepo(membershipRepo)
	return NewRoomService(roomRepo, membershipRepo, nil, zap.NewNop())
}

func TestCreateRoomRetriesOnCodeCollision(t *testing.T) {
	ctx := context.Background()
	svc := newRoomServiceForCodes(t)

	first, err := svc.CreateRoom(ctx, "first", 0, uuid.New(), "pk-a")
	if err != nil {
		t.Fatalf("create first room: %v", err)
	}

	// Serve the taken code once, then a fresh one. The unique constraint
	// rejects the first attempt and the loop retries.
	codes := []string{first.Code, "ZZZZ99"}
	svc.newCode = func() (string, error) {
		code := codes[0]
		if len(codes) > 1 {
			codes = codes[1:]
		}
		return code, nil
	}

	second, err := svc.CreateRoom(ctx, "second", 0, uuid.New(), "pk-b")
	if err != nil {
		t.Fatalf("create after one collision: %v", err)
	}
	if second.Code != "ZZZZ99" {
		t.Fatalf("expected retried code ZZZZ99, got %q", second.Code)
	}
}

func TestCreateRoomGivesUpAfterRepeatedCollisions(t *testing.T) {
	ctx := context.Background()
	svc := newRoomServiceForCodes(t)

	first, err := svc.CreateRoom(ctx, "first", 0, uuid.New(), "pk-a")
	if err != nil {
		t.Fatalf("create first room: %v", err)
	}

	// Every attempt returns the taken code; the loop exhausts its
	// retries and surfaces Conflict.
	svc.newCode = func() (string, error) {
		return first.Code, nil
	}

	if _, err := svc.CreateRoom(ctx, "second", 0, uuid.New(), "pk-b"); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict after exhausted retries, got %v", err)
	}
}
