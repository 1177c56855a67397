package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/cipherroom/internal/models"
)

type pairKey struct {
	roomID uuid.UUID
	userID uuid.UUID
}

type MembershipRepo struct {
	mu      sync.RWMutex
	members map[pairKey]*models.Membership
}

func NewMembershipRepo() *MembershipRepo {
	return &MembershipRepo{members: make(map[pairKey]*models.Membership)}
}

func (r *MembershipRepo) Upsert(_ context.Context, m *models.Membership) (*models.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := pairKey{roomID: m.RoomID, userID: m.UserID}
	if existing, ok := r.members[key]; ok {
		if !existing.IsActive {
			existing.PublicKey = m.PublicKey
		}
		existing.IsAdmin = m.IsAdmin
		existing.IsActive = true
		out := *existing
		return &out, nil
	}

	stored := *m
	stored.IsActive = true
	stored.JoinedAt = time.Now()
	r.members[key] = &stored

	out := stored
	return &out, nil
}

func (r *MembershipRepo) Get(_ context.Context, roomID, userID uuid.UUID) (*models.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.members[pairKey{roomID: roomID, userID: userID}]
	if !ok {
		return nil, nil
	}
	out := *m
	return &out, nil
}

func (r *MembershipRepo) Deactivate(_ context.Context, roomID, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.members[pairKey{roomID: roomID, userID: userID}]
	if !ok || !m.IsActive {
		return false, nil
	}
	m.IsActive = false
	return true, nil
}

func (r *MembershipRepo) ListActive(_ context.Context, roomID uuid.UUID) ([]models.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]models.Membership, 0)
	for _, m := range r.members {
		if m.RoomID == roomID && m.IsActive {
			members = append(members, *m)
		}
	}

	sort.Slice(members, func(i, j int) bool {
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})
	return members, nil
}

func (r *MembershipRepo) CountActive(_ context.Context, roomID uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, m := range r.members {
		if m.RoomID == roomID && m.IsActive {
			count++
		}
	}
	return count, nil
}
