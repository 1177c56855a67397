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

type InviteRepo struct {
	mu      sync.RWMutex
	invites map[uuid.UUID]*models.Invite
}

func NewInviteRepo() *InviteRepo {
	return &InviteRepo{invites: make(map[uuid.UUID]*models.Invite)}
}

func (r *InviteRepo) Create(_ context.Context, inv *models.Invite) (*models.Invite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.invites {
		if existing.Code == inv.Code {
			return nil, repository.ErrDuplicate
		}
	}

	stored := *inv
	stored.CreatedAt = time.Now()
	r.invites[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (r *InviteRepo) GetByCode(_ context.Context, code string) (*models.Invite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, inv := range r.invites {
		if inv.Code == code {
			out := *inv
			return &out, nil
		}
	}
	return nil, nil
}

func (r *InviteRepo) ConsumeUse(_ context.Context, inviteID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv, ok := r.invites[inviteID]
	if !ok {
		return false, nil
	}
	if inv.UsesRemaining == -1 {
		return true, nil
	}
	if inv.UsesRemaining <= 0 {
		return false, nil
	}
	inv.UsesRemaining--
	return true, nil
}

func (r *InviteRepo) ListByRoom(_ context.Context, roomID uuid.UUID) ([]models.Invite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	invites := make([]models.Invite, 0)
	for _, inv := range r.invites {
		if inv.RoomID == roomID {
			invites = append(invites, *inv)
		}
	}

	sort.Slice(invites, func(i, j int) bool {
		return invites[i].CreatedAt.After(invites[j].CreatedAt)
	})
	return invites, nil
}
