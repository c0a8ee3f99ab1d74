package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ghaythalijarad/entralized-delivery-platform/internal/config"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/events"
)

// NotificationService forwards domain events to the realtime channel that
// the dashboard websocket gateway listens on.
type NotificationService struct {
	dispatcher events.Dispatcher
	redis      redis.Cmdable
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service. A nil Redis client keeps the
// log output only.
func NewNotificationService(dispatcher events.Dispatcher, client redis.Cmdable, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		redis:      client,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes handler to every event type. A nil handler
// delivers synchronously on the publishing goroutine.
func (n *NotificationService) RegisterHandlers(handler events.EventHandler) {
	if n.dispatcher == nil {
		return
	}
	if handler == nil {
		handler = n.Deliver
	}
	for _, eventType := range events.AllEventTypes {
		n.dispatcher.Subscribe(eventType, handler)
	}
}

// notification is the message shape broadcast to dashboard clients.
type notification struct {
	Type    string       `json:"type"`
	Event   events.Event `json:"event"`
	Message string       `json:"message"`
}

// Deliver logs the event and publishes it on the notification channel.
func (n *NotificationService) Deliver(ctx context.Context, event events.Event) error {
	n.logger.Info("notification",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("actor", event.Actor.Username))

	if n.redis == nil || n.cfg.Channel == "" {
		return nil
	}
	body, err := json.Marshal(notification{
		Type:    "notification",
		Event:   event,
		Message: describe(event),
	})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := n.redis.Publish(ctx, n.cfg.Channel, body).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

func describe(event events.Event) string {
	who := event.Actor.Username
	if who == "" {
		who = "system"
	}
	switch p := event.Payload.(type) {
	case events.OrderStatusChangedPayload:
		return fmt.Sprintf("order %s moved from %s to %s by %s", p.OrderNumber, p.OldStatus, p.NewStatus, who)
	case events.MerchantStatusChangedPayload:
		return fmt.Sprintf("merchant %s is now %s", p.MerchantID, p.NewStatus)
	case events.DriverStatusChangedPayload:
		return fmt.Sprintf("driver %s is now %s", p.DriverID, p.NewStatus)
	case events.UserPayload:
		return fmt.Sprintf("%s: %s by %s", event.Type, p.Username, who)
	default:
		return fmt.Sprintf("%s: %s", event.Type, who)
	}
}
