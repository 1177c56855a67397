// Package service implements the room, membership, message, and delivery
// operations over the repository layer. Handlers stay thin; everything
// with an invariant lives here.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/lalith-99/cipherroom/internal/apperr"
	"github.com/lalith-99/cipherroom/internal/cache"
	"github.com/lalith-99/cipherroom/internal/models"
	"github.com/lalith-99/cipherroom/internal/repository"
	"github.com/lalith-99/cipherroom/internal/roomcode"
	"go.uber.org/zap"
)

// codeRetries caps the generate-insert loop for room codes. The keyspace
// is 36^6; a loop that runs out is a store problem, not bad luck.
const codeRetries = 5

const defaultMaxMembers = 100

type RoomService struct {
	rooms   repository.RoomRepository
	members repository.MembershipRepository
	codes   *cache.RoomCodes
	logger  *zap.Logger

	// newCode generates candidate room codes. Tests swap it to force
	// collisions; everything else uses roomcode.New.
	newCode func() (string, error)
}

func NewRoomService(
	rooms repository.RoomRepository,
	members repository.MembershipRepository,
	codes *cache.RoomCodes,
	logger *zap.Logger,
) *RoomService {
	return &RoomService{
		rooms:   rooms,
		members: members,
		codes:   codes,
		logger:  logger,
		newCode: roomcode.New,
	}
}

// CreateRoom persists a room under a freshly generated code and enrolls
// the creator as its first, admin member. Code collisions are resolved by
// retrying against the unique constraint, not by checking first.
func (s *RoomService) CreateRoom(ctx context.Context, name string, maxMembers int, creatorID uuid.UUID, creatorPublicKey string) (*models.Room, error) {
	if name == "" {
		return nil, apperr.Validation("room name must not be empty")
	}
	// A maxMembers of 0 means "not specified" and selects the default.
	// The HTTP layer rejects an explicit zero before it gets here.
	if maxMembers == 0 {
		maxMembers = defaultMaxMembers
	}
	if maxMembers < 1 {
		return nil, apperr.Validation("max_members must be at least 1")
	}

	var room *models.Room
	for attempt := 0; attempt < codeRetries; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, err
		}

		room, err = s.rooms.Create(ctx, &models.Room{
			ID:         uuid.New(),
			Name:       name,
			Code:       code,
			CreatedBy:  creatorID,
			MaxMembers: maxMembers,
		})
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrDuplicate) {
			s.logger.Debug("room code collision, regenerating", zap.String("code", code))
			room = nil
			continue
		}
		return nil, err
	}
	if room == nil {
		return nil, apperr.Conflict("could not allocate a unique room code")
	}

	// The creator's membership is written with admin=true regardless of
	// input; see MembershipService.adminFor.
	if _, err := s.members.Upsert(ctx, &models.Membership{
		ID:        uuid.New(),
		RoomID:    room.ID,
		UserID:    creatorID,
		PublicKey: creatorPublicKey,
		IsAdmin:   true,
	}); err != nil {
		return nil, err
	}
	room.MemberCount = 1

	s.codes.Set(ctx, room)
	return room, nil
}

// GetRoomByCode resolves a shareable code (any case) to its active room.
func (s *RoomService) GetRoomByCode(ctx context.Context, code string) (*models.Room, error) {
	code = roomcode.Normalize(code)
	if len(code) != roomcode.Length {
		return nil, apperr.Validation("room code must be %d characters", roomcode.Length)
	}

	if room := s.codes.Get(ctx, code); room != nil {
		return room, nil
	}

	room, err := s.rooms.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, apperr.NotFound("room not found")
	}

	s.codes.Set(ctx, room)
	return room, nil
}

// GetRoom returns room detail for an active member. Non-members get
// NotFound, never confirmation that the room exists.
func (s *RoomService) GetRoom(ctx context.Context, roomID, requesterID uuid.UUID) (*models.Room, error) {
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
		return nil, apperr.NotFound("room not found")
	}

	count, err := s.members.CountActive(ctx, roomID)
	if err != nil {
		return nil, err
	}
	room.MemberCount = count
	return room, nil
}

// RoomChanges carries the mutable room fields for UpdateRoom. Nil fields
// are left unchanged.
type RoomChanges struct {
	Name       *string
	MaxMembers *int
}

// UpdateRoom applies changes on behalf of an active admin member.
func (s *RoomService) UpdateRoom(ctx context.Context, roomID uuid.UUID, changes RoomChanges, actorID uuid.UUID) (*models.Room, error) {
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
		return nil, apperr.Forbidden("only room admins can update room settings")
	}

	name := room.Name
	if changes.Name != nil {
		name = *changes.Name
	}
	maxMembers := room.MaxMembers
	if changes.MaxMembers != nil {
		maxMembers = *changes.MaxMembers
	}
	if name == "" {
		return nil, apperr.Validation("room name must not be empty")
	}
	if maxMembers < 1 {
		return nil, apperr.Validation("max_members must be at least 1")
	}

	updated, err := s.rooms.Update(ctx, roomID, name, maxMembers)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperr.NotFound("room not found")
	}

	s.codes.Invalidate(ctx, updated.Code)
	return updated, nil
}

// DeleteRoom soft-deletes a room. Only the creator may do this; admins
// who didn't create the room cannot.
func (s *RoomService) DeleteRoom(ctx context.Context, roomID, actorID uuid.UUID) error {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return apperr.NotFound("room not found")
	}
	if room.CreatedBy != actorID {
		return apperr.Forbidden("only the room creator can delete the room")
	}

	if err := s.rooms.Deactivate(ctx, roomID); err != nil {
		return err
	}

	s.codes.Invalidate(ctx, room.Code)
	return nil
}

// ListRooms returns the rooms the user is an active member of, newest
// first.
func (s *RoomService) ListRooms(ctx context.Context, userID uuid.UUID) ([]models.Room, error) {
	return s.rooms.ListForUser(ctx, userID)
}
