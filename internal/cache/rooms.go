// Package cache holds the Redis read-through cache for the room-by-code
// lookup, the hottest read in the system (every join and invite link hits
// it).
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lalith-99/cipherroom/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// roomCodeTTL bounds staleness for cached rooms. Mutations invalidate
// eagerly; the TTL covers invalidation paths we miss.
const roomCodeTTL = 5 * time.Minute

// RoomCodes caches Room rows keyed by their shareable code. A nil
// *RoomCodes is valid and disables caching — tests and redis-less deploys
// pass nil.
type RoomCodes struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRoomCodes(rdb *redis.Client, logger *zap.Logger) *RoomCodes {
	return &RoomCodes{rdb: rdb, logger: logger}
}

func key(code string) string {
	return "room:code:" + code
}

// Get returns the cached room for code, or nil on miss. Cache failures
// are logged and treated as misses — the store is the source of truth.
func (c *RoomCodes) Get(ctx context.Context, code string) *models.Room {
	if c == nil {
		return nil
	}

	raw, err := c.rdb.Get(ctx, key(code)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("room cache get failed", zap.String("code", code), zap.Error(err))
		}
		return nil
	}

	var room models.Room
	if err := json.Unmarshal(raw, &room); err != nil {
		c.logger.Warn("room cache decode failed", zap.String("code", code), zap.Error(err))
		return nil
	}
	return &room
}

// encodeRoom serializes the cacheable part of a room. MemberCount is
// derived and moves on every join and leave, so it never enters the
// cache; only the stable row does.
func encodeRoom(room *models.Room) ([]byte, error) {
	entry := *room
	entry.MemberCount = 0
	return json.Marshal(&entry)
}

// Set stores a room under its code.
func (c *RoomCodes) Set(ctx context.Context, room *models.Room) {
	if c == nil {
		return
	}

	raw, err := encodeRoom(room)
	if err != nil {
		c.logger.Warn("room cache encode failed", zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, key(room.Code), raw, roomCodeTTL).Err(); err != nil {
		c.logger.Warn("room cache set failed", zap.String("code", room.Code), zap.Error(err))
	}
}

// Invalidate drops the cached entry for code. Called on room update and
// delete.
func (c *RoomCodes) Invalidate(ctx context.Context, code string) {
	if c == nil {
		return
	}

	if err := c.rdb.Del(ctx, key(code)).Err(); err != nil {
		c.logger.Warn("room cache invalidate failed", zap.String("code", code), zap.Error(err))
	}
}
