package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/truelectro/image-resampler/internal/models"
)

const (
	statusKeyPrefix = "file:status:"
	statusTTL       = 10 * time.Minute
)

// StatusCache mirrors file statuses into Redis so status lookups can be
// answered without touching the batch store. A nil *StatusCache is valid
// and behaves as an always-missing cache.
type StatusCache struct {
	client *redis.Client
}

func Connect(addr string) (*StatusCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		PoolSize:     10,
		MinIdleConns: 2,
		PoolTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &StatusCache{client: client}, nil
}

func (sc *StatusCache) Get(ctx context.Context, fileID string) (models.FileStatus, error) {
	if sc == nil {
		return "", redis.Nil
	}
	data, err := sc.client.Get(ctx, statusKeyPrefix+fileID).Result()
	if err != nil {
		return "", err
	}
	return models.FileStatus(data), nil
}

func (sc *StatusCache) Set(ctx context.Context, fileID string, status models.FileStatus) error {
	if sc == nil {
		return nil
	}
	return sc.client.Set(ctx, statusKeyPrefix+fileID, string(status), statusTTL).Err()
}

func (sc *StatusCache) Delete(ctx context.Context, fileID string) error {
	if sc == nil {
		return nil
	}
	return sc.client.Del(ctx, statusKeyPrefix+fileID).Err()
}

func (sc *StatusCache) Close() error {
	if sc == nil {
		return nil
	}
	return sc.client.Close()
}
