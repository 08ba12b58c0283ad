package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"user-service/internal/model"
)

const defaultUserTTL = 60 * time.Second

// UserCache keeps username lookups in Redis. Absent users are never cached.
type UserCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewUserCache(client *redisv9.Client, ttl time.Duration) *UserCache {
	if ttl <= 0 {
		ttl = defaultUserTTL
	}
	return &UserCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *UserCache) GetByUsername(ctx context.Context, username string) (*model.User, bool, error) {
	raw, err := c.client.Get(ctx, c.usernameKey(username)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get user failed: %w", err)
	}

	var user model.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached user failed: %w", err)
	}
	return &user, true, nil
}

func (c *UserCache) SetByUsername(ctx context.Context, user *model.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.usernameKey(user.Username), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set user failed: %w", err)
	}
	return nil
}

func (c *UserCache) Evict(ctx context.Context, usernames ...string) error {
	if len(usernames) == 0 {
		return nil
	}
	keys := make([]string, len(usernames))
	for i, name := range usernames {
		keys[i] = c.usernameKey(name)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete user failed: %w", err)
	}
	return nil
}

func (c *UserCache) usernameKey(username string) string {
	return fmt.Sprintf("users:username:%s", username)
}
