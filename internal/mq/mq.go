package mq

import "context"

// Publisher sends payloads to a named channel on a broker.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}
