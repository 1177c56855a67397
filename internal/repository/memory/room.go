// Package memory holds mutex-guarded map implementations of the
// repository interfaces. They back the service tests and enforce the same
// uniqueness rules as the postgres stores.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/cipherroom/internal/models"
	"github.com/lalith-99/cipherroom/internal/repository"
)

type RoomRepo struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]*models.Room

	members *MembershipRepo
}

// NewRoomRepo creates a room repo. members is consulted by ListForUser;
// it mirrors the SQL join in the postgres store.
func NewRoomRepo(members *MembershipRepo) *RoomRepo {
	return &RoomRepo{
		rooms:   make(map[uuid.UUID]*models.Room),
		members: members,
	}
}

func (r *RoomRepo) Create(_ context.Context, room *models.Room) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.rooms {
		if existing.Code == room.Code {
			return nil, repository.ErrDuplicate
		}
	}

	now := time.Now()
	stored := *room
	stored.IsActive = true
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.rooms[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (r *RoomRepo) GetByID(_ context.Context, roomID uuid.UUID) (*models.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomID]
	if !ok || !room.IsActive {
		return nil, nil
	}
	out := *room
	return &out, nil
}

func (r *RoomRepo) GetByCode(_ context.Context, code string) (*models.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, room := range r.rooms {
		if room.Code == code && room.IsActive {
			out := *room
			return &out, nil
		}
	}
	return nil, nil
}

func (r *RoomRepo) Update(_ context.Context, roomID uuid.UUID, name string, maxMembers int) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok || !room.IsActive {
		return nil, nil
	}
	room.Name = name
	room.MaxMembers = maxMembers
	room.UpdatedAt = time.Now()

	out := *room
	return &out, nil
}

func (r *RoomRepo) Deactivate(_ context.Context, roomID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if room, ok := r.rooms[roomID]; ok {
		room.IsActive = false
		room.UpdatedAt = time.Now()
	}
	return nil
}

func (r *RoomRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]models.Room, 0)
	for _, room := range r.rooms {
		if !room.IsActive {
			continue
		}
		m, err := r.members.Get(ctx, room.ID, userID)
		if err != nil {
			return nil, err
		}
		if m != nil && m.IsActive {
			rooms = append(rooms, *room)
		}
	}

	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.After(rooms[j].CreatedAt)
	})
	return rooms, nil
}
