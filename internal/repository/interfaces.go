package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/lalith-99/cipherroom/internal/models"
)

// Every method takes a context.Context because every implementation does
// I/O: the postgres stores hit the pool, and request cancellation must
// propagate into queries.
//
// Not-found is reported as nil, nil on single-row getters. The service
// layer decides whether that becomes NotFound, Forbidden, or an empty
// result — the store doesn't know the access policy.
//
// Uniqueness ((room, user), (message, user), room code, invite code) is
// enforced here, by the store, with atomic conditional writes. Callers
// never check-then-insert.

// ErrDuplicate is returned by Create methods when a uniqueness constraint
// rejected the row (room code collision, concurrent membership insert).
var ErrDuplicate = errors.New("duplicate key")

// RoomRepository handles room rows.
type RoomRepository interface {
	// Create inserts a room. Returns ErrDuplicate if the code is taken.
	Create(ctx context.Context, room *models.Room) (*models.Room, error)

	// GetByID returns an active room, or nil, nil.
	GetByID(ctx context.Context, roomID uuid.UUID) (*models.Room, error)

	// GetByCode returns an active room by its (already normalized)
	// code, or nil, nil.
	GetByCode(ctx context.Context, code string) (*models.Room, error)

	// Update persists name and max_members changes and bumps
	// updated_at. Returns nil, nil if the room is gone.
	Update(ctx context.Context, roomID uuid.UUID, name string, maxMembers int) (*models.Room, error)

	// Deactivate soft-deletes the room. Dependents go dark because all
	// reads filter on room activity.
	Deactivate(ctx context.Context, roomID uuid.UUID) error

	// ListForUser returns active rooms where the user holds an active
	// membership, newest first.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Room, error)
}

// MembershipRepository handles the (room, user) join table.
type MembershipRepository interface {
	// Upsert implements the join state machine in one atomic write:
	// no row → insert active; inactive row → reactivate and take the
	// new public key; active row → no-op (existing key kept). Returns
	// the resulting row.
	Upsert(ctx context.Context, m *models.Membership) (*models.Membership, error)

	// Get returns the membership row for (room, user) regardless of
	// active state, or nil, nil.
	Get(ctx context.Context, roomID, userID uuid.UUID) (*models.Membership, error)

	// Deactivate flips an active membership to inactive. Returns
	// false if there was no active membership.
	Deactivate(ctx context.Context, roomID, userID uuid.UUID) (bool, error)

	// ListActive returns the room's active memberships.
	ListActive(ctx context.Context, roomID uuid.UUID) ([]models.Membership, error)

	// CountActive returns the number of active memberships in a room.
	CountActive(ctx context.Context, roomID uuid.UUID) (int, error)
}

// InviteRepository handles invite rows.
type InviteRepository interface {
	// Create inserts an invite. Returns ErrDuplicate on a code clash.
	Create(ctx context.Context, inv *models.Invite) (*models.Invite, error)

	// GetByCode returns an invite by code, or nil, nil.
	GetByCode(ctx context.Context, code string) (*models.Invite, error)

	// ConsumeUse atomically decrements uses_remaining, refusing to go
	// below zero and never touching unlimited (-1) invites. Returns
	// false if the invite was already exhausted.
	ConsumeUse(ctx context.Context, inviteID uuid.UUID) (bool, error)

	// ListByRoom returns a room's invites, newest first.
	ListByRoom(ctx context.Context, roomID uuid.UUID) ([]models.Invite, error)
}

// MessageRepository handles the append-only message log.
type MessageRepository interface {
	// Create persists a message with the store's transaction time.
	Create(ctx context.Context, msg *models.Message) (*models.Message, error)

	// ListByRoom returns active messages oldest first.
	ListByRoom(ctx context.Context, roomID uuid.UUID, limit int) ([]models.Message, error)

	// GetForSender returns the message only when senderID sent it,
	// including soft-deleted rows; otherwise nil, nil. The sender
	// scoping lives in the query so non-owners can't probe existence.
	GetForSender(ctx context.Context, messageID, senderID uuid.UUID) (*models.Message, error)

	// GetActive returns an active message by id, or nil, nil.
	GetActive(ctx context.Context, messageID uuid.UUID) (*models.Message, error)

	// UpdateContent rewrites the body of the sender's own active
	// message. Returns nil, nil when no such row exists.
	UpdateContent(ctx context.Context, messageID, senderID uuid.UUID, content string) (*models.Message, error)

	// Deactivate soft-deletes the sender's own message. Returns false
	// when no such active row exists.
	Deactivate(ctx context.Context, messageID, senderID uuid.UUID) (bool, error)
}

// ReceiptRepository handles per-recipient delivery state.
type ReceiptRepository interface {
	// CreateBatch inserts pending receipts for the given recipients,
	// skipping pairs that already exist. Used by message fan-out.
	CreateBatch(ctx context.Context, messageID uuid.UUID, userIDs []uuid.UUID) error

	// MarkDelivered sets delivered_at to the store's now if unset,
	// creating the receipt if needed. Never clears anything.
	MarkDelivered(ctx context.Context, messageID, userID uuid.UUID) (*models.Receipt, error)

	// MarkRead sets read_at if unset and backfills delivered_at,
	// creating the receipt with both set if needed.
	MarkRead(ctx context.Context, messageID, userID uuid.UUID) (*models.Receipt, error)

	// ListByMessage returns all receipts for a message.
	ListByMessage(ctx context.Context, messageID uuid.UUID) ([]models.Receipt, error)

	// Get returns the receipt for (message, user), or nil, nil.
	Get(ctx context.Context, messageID, userID uuid.UUID) (*models.Receipt, error)
}
