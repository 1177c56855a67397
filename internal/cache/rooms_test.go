package cache

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/cipherroom/internal/models"
)

func TestEncodeRoomOmitsMemberCount(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	room := &models.Room{
		ID:          uuid.New(),
		Name:        "team",
		Code:        "7K2PQR",
		CreatedBy:   uuid.New(),
		MaxMembers:  100,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
		MemberCount: 3,
	}

	raw, err := encodeRoom(room)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	// A cached count would go stale on the next join or leave, so the
	// payload must not carry one at all.
	if strings.Contains(string(raw), "member_count") {
		t.Fatalf("cached payload carries member_count: %s", raw)
	}

	var decoded models.Room
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.ID != room.ID || decoded.Code != room.Code || decoded.MaxMembers != room.MaxMembers {
		t.Fatalf("stable fields did not survive the round trip: %+v", decoded)
	}
	if decoded.MemberCount != 0 {
		t.Fatalf("expected zero member count after decode, got %d", decoded.MemberCount)
	}

	// The caller's room is not mutated.
	if room.MemberCount != 3 {
		t.Fatalf("encode mutated the input room: %+v", room)
	}
}
