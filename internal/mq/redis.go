package mq

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisPublisher fans messages out over Redis Pub/Sub.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher uses an existing client; Close does not close it.
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish sends data to channel. Attributes are not carried by Pub/Sub.
func (p *RedisPublisher) Publish(ctx context.Context, channel string, data []byte, _ map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("redis channel is required")
	}
	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		return "", err
	}
	return uuid.NewString(), nil
}

func (p *RedisPublisher) Close() error {
	return nil
}
