package typing

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisPresence shares typing state between instances: one volatile key per
// (thread, user), expiry delegated to the server. Single-instance
// deployments keep the in-process Cache.
type RedisPresence struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewRedisPresence(ctx context.Context, redisURL string, ttl time.Duration) (*RedisPresence, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("typing: invalid redis URL: %w", err)
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("typing: redis ping failed: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &RedisPresence{client: client, ttl: ttl}, nil
}

func typingKey(threadID, userID int64) string {
	return fmt.Sprintf("typing:%d:%d", threadID, userID)
}

func (p *RedisPresence) Set(ctx context.Context, threadID, userID int64, isTyping bool, label string) error {
	if !isTyping {
		return p.client.Del(ctx, typingKey(threadID, userID)).Err()
	}
	return p.client.Set(ctx, typingKey(threadID, userID), label, p.ttl).Err()
}

func (p *RedisPresence) Get(ctx context.Context, threadID, viewerID int64) (State, error) {
	pattern := fmt.Sprintf("typing:%d:*", threadID)

	var cursor uint64
	for {
		keys, next, err := p.client.Scan(ctx, cursor, pattern, 32).Result()
		if err != nil {
			return State{}, err
		}

		for _, key := range keys {
			idx := strings.LastIndexByte(key, ':')
			if idx < 0 {
				continue
			}
			userID, err := strconv.ParseInt(key[idx+1:], 10, 64)
			if err != nil || userID == viewerID {
				continue
			}

			label, err := p.client.Get(ctx, key).Result()
			if err == goredis.Nil {
				continue // expired between scan and get
			}
			if err != nil {
				return State{}, err
			}

			return State{IsTyping: true, Label: label}, nil
		}

		cursor = next
		if cursor == 0 {
			return State{}, nil
		}
	}
}
