package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/cipherroom/internal/apperr"
	"github.com/lalith-99/cipherroom/internal/models"
	"github.com/lalith-99/cipherroom/internal/repository"
	"github.com/lalith-99/cipherroom/internal/roomcode"
	"go.uber.org/zap"
)

type MembershipService struct {
	rooms   repository.RoomRepository
	members repository.MembershipRepository
	invites repository.InviteRepository
	logger  *zap.Logger
}

func NewMembershipService(
	rooms repository.RoomRepository,
	members repository.MembershipRepository,
	invites repository.InviteRepository,
	logger *zap.Logger,
) *MembershipService {
	return &MembershipService{rooms: rooms, members: members, invites: invites, logger: logger}
}

// adminFor computes the admin flag for a write. It is derived here, every
// time, and never read from a request: the creator is always admin.
func adminFor(room *models.Room, userID uuid.UUID) bool {
	return room.CreatedBy == userID
}

// Join adds the user to the room named by code. Joining is idempotent:
// an active member joining again is a success no-op, an inactive
// membership is reactivated with the new public key.
func (s *MembershipService) Join(ctx context.Context, code string, userID uuid.UUID, publicKey string) (*models.Room, error) {
	code = roomcode.Normalize(code)
	room, err := s.rooms.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, apperr.NotFound("room not found or inactive")
	}

	return s.join(ctx, room, userID, publicKey)
}

func (s *MembershipService) join(ctx context.Context, room *models.Room, userID uuid.UUID, publicKey string) (*models.Room, error) {
	existing, err := s.members.Get(ctx, room.ID, userID)
	if err != nil {
		return nil, err
	}

	// Capacity is only checked when the join would add an active
	// member. A concurrent pair of joins can overshoot by one; the cap
	// is a soft limit.
	if existing == nil || !existing.IsActive {
		count, err := s.members.CountActive(ctx, room.ID)
		if err != nil {
			return nil, err
		}
		if count >= room.MaxMembers {
			return nil, apperr.Conflict("room is full")
		}
	}

	if _, err := s.members.Upsert(ctx, &models.Membership{
		ID:        uuid.New(),
		RoomID:    room.ID,
		UserID:    userID,
		PublicKey: publicKey,
		IsAdmin:   adminFor(room, userID),
	}); err != nil {
		return nil, err
	}

	count, err := s.members.CountActive(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	room.MemberCount = count
	return room, nil
}

// Leave flips the caller's membership to inactive. Leaving a room you are
// not an active member of is an error.
func (s *MembershipService) Leave(ctx context.Context, roomID, userID uuid.UUID) error {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return apperr.NotFound("room not found")
	}

	ok, err := s.members.Deactivate(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("you are not a member of this room")
	}
	return nil
}

// ListMembers returns the room's active members to an active member. A
// non-member gets an empty list, not an error — outsiders learn nothing
// about who is in a room, or whether it has members at all.
func (s *MembershipService) ListMembers(ctx context.Context, roomID, requesterID uuid.UUID) ([]models.Membership, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, apperr.NotFound("room not found")
	}

	m, err := s.members.Get(ctx, roomID, requesterID)
	if err != nil {
		return nil, err
	}
	if m == nil || !m.IsActive {
		return []models.Membership{}, nil
	}

	return s.members.ListActive(ctx, roomID)
}

// CreateInvite issues an invite for the room. Admin only. The default
// invite is single-use with no expiry; expiresAt and uses override that.
func (s *MembershipService) CreateInvite(ctx context.Context, roomID, actorID uuid.UUID, expiresAt *time.Time, uses int) (*models.Invite, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, apperr.NotFound("room not found")
	}

	m, err := s.members.Get(ctx, roomID, actorID)
	if err != nil {
		return nil, err
	}
	if m == nil || !m.IsActive || !m.IsAdmin {
		return nil, apperr.Forbidden("only room admins can create invites")
	}

	if uses == 0 {
		uses = 1
	}
	if uses < -1 {
		return nil, apperr.Validation("uses must be -1 (unlimited) or positive")
	}

	inv, err := s.invites.Create(ctx, &models.Invite{
		ID:            uuid.New(),
		RoomID:        roomID,
		CreatedBy:     actorID,
		Code:          roomcode.InviteCode(room.Code, room.ID),
		ExpiresAt:     expiresAt,
		UsesRemaining: uses,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		// The code is derived from the room, so a second invite for
		// the same room collides. Return the existing invite's code
		// holder as a conflict the client can act on.
		return nil, apperr.Conflict("an invite with this code already exists")
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// ListInvites returns a room's invites to an admin.
func (s *MembershipService) ListInvites(ctx context.Context, roomID, actorID uuid.UUID) ([]models.Invite, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, apperr.NotFound("room not found")
	}

	m, err := s.members.Get(ctx, roomID, actorID)
	if err != nil {
		return nil, err
	}
	if m == nil || !m.IsActive || !m.IsAdmin {
		return nil, apperr.Forbidden("only room admins can view invites")
	}

	return s.invites.ListByRoom(ctx, roomID)
}

// RedeemInvite consumes one use of an invite and joins the caller to its
// room. Expired or exhausted invites are indistinguishable from missing
// ones.
func (s *MembershipService) RedeemInvite(ctx context.Context, inviteCode string, userID uuid.UUID, publicKey string) (*models.Room, error) {
	inv, err := s.invites.GetByCode(ctx, inviteCode)
	if err != nil {
		return nil, err
	}
	if inv == nil || !inv.Valid(time.Now()) {
		return nil, apperr.NotFound("invite not found or no longer valid")
	}

	room, err := s.rooms.GetByID(ctx, inv.RoomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, apperr.NotFound("invite not found or no longer valid")
	}

	// Decrement before joining; the conditional update refuses an
	// exhausted invite that lost a race since the validity check.
	ok, err := s.invites.ConsumeUse(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("invite not found or no longer valid")
	}

	joined, err := s.join(ctx, room, userID, publicKey)
	if err != nil {
		s.logger.Warn("invite use consumed but join failed",
			zap.String("invite_code", inviteCode),
			zap.String("room_id", room.ID.String()),
			zap.Error(err))
		return nil, err
	}
	return joined, nil
}
