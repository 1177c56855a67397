// Package roomcode generates the short shareable codes for rooms and
// invites.
package roomcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// Length of a room code. Fixed by the data model: storage enforces
// uniqueness on exactly this shape and clients render codes in 6-char
// slots.
const Length = 6

// alphabet is uppercase letters plus digits — unambiguous to read aloud
// and case-normalized on input.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// New returns a random 6-character room code. Collisions are possible
// (36^6 keyspace); the caller retries against the unique constraint
// rather than checking first.
func New() (string, error) {
	var b strings.Builder
	b.Grow(Length)
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < Length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String(), nil
}

// Normalize uppercases and trims a client-supplied room code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// InviteCode derives an invite code from the room's shareable code and a
// fragment of its internal id: "{roomCode}-{first8hexOfRoomID}".
func InviteCode(roomCode string, roomID uuid.UUID) string {
	hexID := strings.ReplaceAll(roomID.String(), "-", "")
	return fmt.Sprintf("%s-%s", roomCode, hexID[:8])
}
