package service_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/cipherroom/internal/apperr"
)

func TestJoinIsIdempotent(t *testing.T) {
	h := newHarness(t)
	creator := uuid.New()
	user := uuid.New()
	ctx := context.Background()

	room := h.createRoom(t, "team", creator)

	if _, err := h.members.Join(ctx, room.Code, user, "key-one"); err != nil {
		t.Fatalf("first join: %v", err)
	}
	first, err := h.membershipRepo.Get(ctx, room.ID, user)
	if err != nil {
		t.Fatalf("get membership: %v", err)
	}

	// Second join while active: success, no duplicate, key untouched.
	if _, err := h.members.Join(ctx, room.Code, user, "key-two"); err != nil {
		t.Fatalf("second join: %v", err)
	}
	second, err := h.membershipRepo.Get(ctx, room.ID, user)
	if err != nil {
		t.Fatalf("get membership: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same membership row, got %s then %s", first.ID, second.ID)
	}
	if second.PublicKey != "key-one" {
		t.Fatalf("expected active join to keep existing key, got %q", second.PublicKey)
	}

	count, err := h.membershipRepo.CountActive(ctx, room.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 { // creator + user
		t.Fatalf("expected 2 active members, got %d", count)
	}
}

func TestLeaveThenRejoinReactivatesSameRow(t *testing.T) {
	h := newHarness(t)
	creator := uuid.New()
	user := uuid.New()
	ctx := context.Background()

	room := h.createRoom(t, "team", creator)

	if _, err := h.members.Join(ctx, room.Code, user, "key-one"); err != nil {
		t.Fatalf("join: %v", err)
	}
	original, _ := h.membershipRepo.Get(ctx, room.ID, user)

	if err := h.members.Leave(ctx, room.ID, user); err != nil {
		t.Fatalf("leave: %v", err)
	}
	left, _ := h.membershipRepo.Get(ctx, room.ID, user)
	if left.IsActive {
		t.Fatal("expected inactive membership after leave")
	}

	// Rejoin reactivates the same row and takes the new key.
	if _, err := h.members.Join(ctx, room.Code, user, "key-two"); err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	rejoined, _ := h.membershipRepo.Get(ctx, room.ID, user)
	if rejoined.ID != original.ID {
		t.Fatalf("expected reactivated row %s, got %s", original.ID, rejoined.ID)
	}
	if !rejoined.IsActive {
		t.Fatal("expected active membership after rejoin")
	}
	if rejoined.PublicKey != "key-two" {
		t.Fatalf("expected rejoin to overwrite key, got %q", rejoined.PublicKey)
	}
}

func TestLeaveWithoutMembership(t *testing.T) {
	h := newHarness(t)
	room := h.createRoom(t, "team", uuid.New())

	if err := h.members.Leave(context.Background(), room.ID, uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found leaving without membership, got %v", err)
	}
}

func TestCreatorIsAlwaysAdmin(t *testing.T) {
	h := newHarness(t)
	creator := uuid.New()
	ctx := context.Background()

	room := h.createRoom(t, "team", creator)

	// Even after leaving and rejoining through the public join path,
	// the creator comes back as admin.
	if err := h.members.Leave(ctx, room.ID, creator); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if _, err := h.members.Join(ctx, room.Code, creator, "new-key"); err != nil {
		t.Fatalf("rejoin: %v", err)
	}

	m, _ := h.membershipRepo.Get(ctx, room.ID, creator)
	if !m.IsAdmin {
		t.Fatal("expected creator to be admin after rejoin")
	}

	// A regular joiner never becomes admin.
	user := uuid.New()
	h.joinRoom(t, room, user)
	m, _ = h.membershipRepo.Get(ctx, room.ID, user)
	if m.IsAdmin {
		t.Fatal("expected regular member to not be admin")
	}
}

func TestListMembersHiddenFromOutsiders(t *testing.T) {
	h := newHarness(t)
	creator := uuid.New()
	member := uuid.New()
	ctx := context.Background()

	room := h.createRoom(t, "team", creator)
	h.joinRoom(t, room, member)

	members, err := h.members.ListMembers(ctx, room.ID, member)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}

	// Non-member: empty list, not an error.
	outside, err := h.members.ListMembers(ctx, room.ID, uuid.New())
	if err != nil {
		t.Fatalf("outsider list: %v", err)
	}
	if len(outside) != 0 {
		t.Fatalf("expected empty list for outsider, got %d members", len(outside))
	}
}

func TestJoinEnforcesCapacity(t *testing.T) {
	h := newHarness(t)
	creator := uuid.New()
	ctx := context.Background()

	room, err := h.rooms.CreateRoom(ctx, "tiny", 2, creator, "pk")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	h.joinRoom(t, room, uuid.New())

	if _, err := h.members.Join(ctx, room.Code, uuid.New(), "pk"); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict joining a full room, got %v", err)
	}

	// An already-active member can still "join" a full room (no-op).
	if _, err := h.members.Join(ctx, room.Code, creator, "pk"); err != nil {
		t.Fatalf("active member re-join of full room: %v", err)
	}
}

func TestCreateInviteRequiresAdmin(t *testing.T) {
	h := newHarness(t)
	creator := uuid.New()
	member := uuid.New()
	ctx := context.Background()

	room := h.createRoom(t, "team", creator)
	h.joinRoom(t, room, member)

	if _, err := h.members.CreateInvite(ctx, room.ID, member, nil, 0); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for non-admin invite, got %v", err)
	}

	inv, err := h.members.CreateInvite(ctx, room.ID, creator, nil, 0)
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}

	// Code format: {roomCode}-{first8hexOfRoomID}.
	hexID := strings.ReplaceAll(room.ID.String(), "-", "")
	want := fmt.Sprintf("%s-%s", room.Code, hexID[:8])
	if inv.Code != want {
		t.Fatalf("expected invite code %q, got %q", want, inv.Code)
	}
	if inv.UsesRemaining != 1 {
		t.Fatalf("expected default single-use invite, got %d uses", inv.UsesRemaining)
	}
	if inv.ExpiresAt != nil {
		t.Fatalf("expected no expiry by default, got %v", inv.ExpiresAt)
	}
}

func TestRedeemInviteConsumesUses(t *testing.T) {
	h := newHarness(t)
	creator := uuid.New()
	ctx := context.Background()

	room := h.createRoom(t, "team", creator)
	inv, err := h.members.CreateInvite(ctx, room.ID, creator, nil, 1)
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}

	first := uuid.New()
	if _, err := h.members.RedeemInvite(ctx, inv.Code, first, "pk-a"); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	m, _ := h.membershipRepo.Get(ctx, room.ID, first)
	if m == nil || !m.IsActive {
		t.Fatalf("expected active membership after redeem, got %+v", m)
	}

	// Single use: second redemption fails as not-found, and
	// uses_remaining is floored at 0.
	if _, err := h.members.RedeemInvite(ctx, inv.Code, uuid.New(), "pk-b"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found on exhausted invite, got %v", err)
	}
	stored, _ := h.inviteRepo.GetByCode(ctx, inv.Code)
	if stored.UsesRemaining != 0 {
		t.Fatalf("expected uses_remaining 0, got %d", stored.UsesRemaining)
	}
}

func TestRedeemUnlimitedInvite(t *testing.T) {
	h := newHarness(t)
	creator := uuid.New()
	ctx := context.Background()

	room := h.createRoom(t, "team", creator)
	inv, err := h.members.CreateInvite(ctx, room.ID, creator, nil, -1)
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := h.members.RedeemInvite(ctx, inv.Code, uuid.New(), "pk"); err != nil {
			t.Fatalf("redeem %d: %v", i, err)
		}
	}
	stored, _ := h.inviteRepo.GetByCode(ctx, inv.Code)
	if stored.UsesRemaining != -1 {
		t.Fatalf("expected unlimited invite untouched, got %d", stored.UsesRemaining)
	}
}

func TestRedeemExpiredInvite(t *testing.T) {
	h := newHarness(t)
	creator := uuid.New()
	ctx := context.Background()

	room := h.createRoom(t, "team", creator)
	past := time.Now().Add(-time.Hour)
	inv, err := h.members.CreateInvite(ctx, room.ID, creator, &past, 5)
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}

	if _, err := h.members.RedeemInvite(ctx, inv.Code, uuid.New(), "pk"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for expired invite, got %v", err)
	}
}
