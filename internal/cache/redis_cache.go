package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type cachedPage struct {
	Body      string    `json:"body"`
	FetchedAt time.Time `json:"fetched_at"`
}

type RedisPageCache struct {
	rdb *redis.Client
}

func NewRedisPageCache(rdb *redis.Client) *RedisPageCache {
	return &RedisPageCache{rdb: rdb}
}

func key(url string) string { return "page:" + url }

func (c *RedisPageCache) GetPage(ctx context.Context, url string) (string, bool, error) {
	s, err := c.rdb.Get(ctx, key(url)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	var p cachedPage
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		// data corrupt: treat as miss by deleting
		_ = c.rdb.Del(ctx, key(url)).Err()
		return "", false, nil
	}
	return p.Body, true, nil
}

func (c *RedisPageCache) SetPage(ctx context.Context, url, body string, ttl time.Duration) error {
	b, err := json.Marshal(cachedPage{Body: body, FetchedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key(url), b, ttl).Err()
}
