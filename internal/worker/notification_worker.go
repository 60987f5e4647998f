package worker

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/solve-chamados/internal/config"
	"github.com/spec-kit/solve-chamados/internal/events"
	"github.com/spec-kit/solve-chamados/internal/mq"
	"github.com/spec-kit/solve-chamados/internal/service"
)

// NewPublisher selects the relay broker. It returns nil when relaying is off.
func NewPublisher(cfg config.EventsConfig, redisClient *redis.Client) (mq.Publisher, error) {
	switch cfg.Broker {
	case config.BrokerRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("redis broker selected but no redis client")
		}
		return mq.NewRedisPublisher(redisClient), nil
	case config.BrokerRabbitMQ:
		pub, err := mq.NewRabbitMQPublisher(cfg.RabbitMQURL)
		if err != nil {
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		return pub, nil
	default:
		return nil, nil
	}
}

// StartNotificationWorker subscribes the event relay to the dispatcher and
// returns a function releasing the broker connection.
func StartNotificationWorker(cfg config.EventsConfig, redisClient *redis.Client, dispatcher events.Dispatcher, logger *zap.Logger) (func(), error) {
	publisher, err := NewPublisher(cfg, redisClient)
	if err != nil {
		return nil, err
	}
	if publisher == nil {
		logger.Info("event relay disabled")
		return func() {}, nil
	}

	service.NewNotificationService(dispatcher, publisher, cfg.Channel, logger).RegisterHandlers()
	logger.Info("event relay started",
		zap.String("broker", cfg.Broker),
		zap.String("channel", cfg.Channel))

	return func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("close event publisher", zap.Error(err))
		}
	}, nil
}
