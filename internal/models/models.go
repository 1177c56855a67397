package models

import (
	"time"

	"github.com/google/uuid"
)

// Room is an encrypted chat room. Clients discover and join rooms by the
// short human-shareable Code, never by the internal UUID.
//
// The server never sees plaintext: message bodies and membership public
// keys are opaque blobs supplied by clients. All the server owns is
// membership, ordering, and delivery state.
type Room struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Code       string    `json:"room_code"`
	CreatedBy  uuid.UUID `json:"created_by"`
	MaxMembers int       `json:"max_members"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// MemberCount is derived (active memberships), populated on reads
	// that join against the membership table. Not a stored column.
	MemberCount int `json:"member_count,omitempty"`
}

// Membership links one user to one room. The pair (RoomID, UserID) is
// unique in storage; leaving flips IsActive rather than deleting the row,
// and rejoining reactivates the same row.
//
// PublicKey is the member's client-side key-exchange key, stored verbatim.
// IsAdmin is always computed before a write (true iff the user created the
// room), never taken from a request.
type Membership struct {
	ID        uuid.UUID `json:"id"`
	RoomID    uuid.UUID `json:"room_id"`
	UserID    uuid.UUID `json:"user_id"`
	PublicKey string    `json:"public_key"`
	IsAdmin   bool      `json:"is_admin"`
	IsActive  bool      `json:"is_active"`
	JoinedAt  time.Time `json:"joined_at"`
}

// Invite is a redeemable pointer to a room. UsesRemaining of -1 means
// unlimited; 0 means exhausted.
type Invite struct {
	ID            uuid.UUID  `json:"id"`
	RoomID        uuid.UUID  `json:"room_id"`
	CreatedBy     uuid.UUID  `json:"created_by"`
	Code          string     `json:"invite_code"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	UsesRemaining int        `json:"uses_remaining"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Valid reports whether the invite can still be redeemed at t.
func (i *Invite) Valid(t time.Time) bool {
	if i.ExpiresAt != nil && t.After(*i.ExpiresAt) {
		return false
	}
	return i.UsesRemaining == -1 || i.UsesRemaining > 0
}

// MessageType distinguishes user text from protocol traffic. The server
// treats all three identically; clients interpret them.
type MessageType string

const (
	MessageTypeText        MessageType = "text"
	MessageTypeSystem      MessageType = "system"
	MessageTypeKeyExchange MessageType = "key_exchange"
)

// ValidMessageType reports whether t is one of the known message types.
func ValidMessageType(t MessageType) bool {
	switch t {
	case MessageTypeText, MessageTypeSystem, MessageTypeKeyExchange:
		return true
	}
	return false
}

// Message is one entry in a room's append-only log. Content is ciphertext
// and stays ciphertext. CreatedAt is the ordering key within a room.
// Deleting a message flips IsActive; the row is never removed.
type Message struct {
	ID        uuid.UUID   `json:"id"`
	RoomID    uuid.UUID   `json:"room_id"`
	SenderID  uuid.UUID   `json:"sender_id"`
	Content   string      `json:"encrypted_content"`
	Type      MessageType `json:"message_type"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
}

// Receipt tracks delivery state of one message for one recipient.
// (MessageID, UserID) is unique. Both timestamps start unset (Pending);
// DeliveredAt is set once and never cleared; ReadAt implies DeliveredAt.
type Receipt struct {
	ID          uuid.UUID  `json:"id"`
	MessageID   uuid.UUID  `json:"message_id"`
	UserID      uuid.UUID  `json:"user_id"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
}
