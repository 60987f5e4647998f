package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/solve-chamados/internal/events"
	"github.com/spec-kit/solve-chamados/internal/mq"
)

// NotificationService relays ticket events to an external broker.
type NotificationService struct {
	dispatcher events.Dispatcher
	publisher  mq.Publisher
	channel    string
	logger     *zap.Logger
}

// NewNotificationService creates the service. A nil publisher disables relaying.
// Relay failures are returned to the dispatcher, which logs them.
func NewNotificationService(dispatcher events.Dispatcher, publisher mq.Publisher, channel string, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		publisher:  publisher,
		channel:    channel,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to every ticket event.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil || n.publisher == nil {
		return
	}
	for _, eventType := range events.AllTicketEvents {
		n.dispatcher.Subscribe(eventType, n.relay)
	}
}

func (n *NotificationService) relay(ctx context.Context, event events.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	msgID, err := n.publisher.Publish(ctx, n.channel, data, map[string]string{
		"event_type": string(event.Type),
		"event_id":   event.ID,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", n.channel, err)
	}
	n.logger.Debug("event relayed",
		zap.String("event_type", string(event.Type)),
		zap.Int64("ticket_id", event.TicketID),
		zap.String("message_id", msgID))
	return nil
}
