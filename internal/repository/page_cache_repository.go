package repository

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ferdian3456/virdanengage/internal/engagement"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// PageCacheRepository is the shared engagement.PageCache. Each post keeps a
// set of its cached page keys so a mutation can drop them all at once.
type PageCacheRepository struct {
	Log     *zap.Logger
	DBCache *redis.Client
	TTL     time.Duration
}

func NewPageCacheRepository(zap *zap.Logger, dbCache *redis.Client, ttl time.Duration) *PageCacheRepository {
	return &PageCacheRepository{
		Log:     zap,
		DBCache: dbCache,
		TTL:     ttl,
	}
}

func pageKey(key engagement.PageKey) string {
	return "engagement:comments:" + key.String()
}

func pageIndexKey(postId string) string {
	return "engagement:comments:index:" + postId
}

func (repository *PageCacheRepository) Get(ctx context.Context, key engagement.PageKey) (engagement.CommentPage, bool, error) {
	data, err := repository.DBCache.Get(ctx, pageKey(key)).Bytes()
	if err == redis.Nil {
		return engagement.CommentPage{}, false, nil
	}
	if err != nil {
		return engagement.CommentPage{}, false, err
	}

	var page engagement.CommentPage
	err = sonic.Unmarshal(data, &page)
	if err != nil {
		// A corrupt entry is a miss; it is overwritten by the next Set.
		repository.Log.Warn("failed to decode cached comment page", zap.String("key", key.String()), zap.Error(err))
		return engagement.CommentPage{}, false, nil
	}

	return page, true, nil
}

func (repository *PageCacheRepository) Set(ctx context.Context, key engagement.PageKey, page engagement.CommentPage) error {
	data, err := sonic.Marshal(page)
	if err != nil {
		return err
	}

	indexKey := pageIndexKey(key.PostID)
	_, err = repository.DBCache.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, pageKey(key), data, repository.TTL)
		pipe.SAdd(ctx, indexKey, pageKey(key))
		pipe.Expire(ctx, indexKey, repository.TTL)
		return nil
	})
	if err != nil {
		return err
	}

	return nil
}

func (repository *PageCacheRepository) InvalidatePost(ctx context.Context, postId string) error {
	indexKey := pageIndexKey(postId)

	keys, err := repository.DBCache.SMembers(ctx, indexKey).Result()
	if err != nil {
		return err
	}

	keys = append(keys, indexKey)
	err = repository.DBCache.Del(ctx, keys...).Err()
	if err != nil {
		return err
	}

	return nil
}
