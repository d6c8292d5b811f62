package repository

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// MarkerRepository stores the per-session "view already counted" markers.
// They expire together with the browsing session.
type MarkerRepository struct {
	Log     *zap.Logger
	DBCache *redis.Client
	TTL     time.Duration
}

func NewMarkerRepository(zap *zap.Logger, dbCache *redis.Client, ttl time.Duration) *MarkerRepository {
	return &MarkerRepository{
		Log:     zap,
		DBCache: dbCache,
		TTL:     ttl,
	}
}

// markerKey keeps raw session ids out of redis.
func markerKey(sessionId string, targetId string) string {
	digest := blake2b.Sum256([]byte(sessionId))
	return "engagement:view:" + hex.EncodeToString(digest[:16]) + ":" + targetId
}

func (repository *MarkerRepository) IsMarked(ctx context.Context, sessionId string, targetId string) (bool, error) {
	count, err := repository.DBCache.Exists(ctx, markerKey(sessionId, targetId)).Result()
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (repository *MarkerRepository) Mark(ctx context.Context, sessionId string, targetId string) error {
	err := repository.DBCache.SetNX(ctx, markerKey(sessionId, targetId), 1, repository.TTL).Err()
	if err != nil {
		return err
	}

	return nil
}
