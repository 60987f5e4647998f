package mq

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisPublisher_Publish(t *testing.T) {
	client := setupTestRedis(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := client.Subscribe(ctx, "tickets-test")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	pub := NewRedisPublisher(client)
	id, err := pub.Publish(ctx, "tickets-test", []byte(`{"type":"ticket_created"}`), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ticket_created"}`, msg.Payload)
}

func TestRedisPublisher_RequiresChannel(t *testing.T) {
	pub := NewRedisPublisher(nil)
	_, err := pub.Publish(context.Background(), " ", nil, nil)
	assert.Error(t, err)
}
