package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/ghaythalijarad/entralized-delivery-platform/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserLoggedIn          EventType = "user_logged_in"
	EventUserLoggedOut         EventType = "user_logged_out"
	EventUserCreated           EventType = "user_created"
	EventUserUpdated           EventType = "user_updated"
	EventUserDeleted           EventType = "user_deleted"
	EventOrderStatusChanged    EventType = "order_status_changed"
	EventMerchantStatusChanged EventType = "merchant_status_changed"
	EventDriverStatusChanged   EventType = "driver_status_changed"
)

// AllEventTypes lists every type a subscriber can register for.
var AllEventTypes = []EventType{
	EventUserLoggedIn,
	EventUserLoggedOut,
	EventUserCreated,
	EventUserUpdated,
	EventUserDeleted,
	EventOrderStatusChanged,
	EventMerchantStatusChanged,
	EventDriverStatusChanged,
}

// Actor identifies who triggered an event.
type Actor struct {
	Subject  string `json:"subject"`
	Username string `json:"username,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, actor Actor, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// SessionPayload accompanies login and logout events.
type SessionPayload struct {
	Provider string `json:"provider"`
}

// UserPayload accompanies user lifecycle events.
type UserPayload struct {
	UserID   string      `json:"user_id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role,omitempty"`
	IsActive *bool       `json:"is_active,omitempty"`
}

// OrderStatusChangedPayload payload.
type OrderStatusChangedPayload struct {
	OrderID     string             `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	OldStatus   domain.OrderStatus `json:"old_status"`
	NewStatus   domain.OrderStatus `json:"new_status"`
	Notes       string             `json:"notes,omitempty"`
}

// MerchantStatusChangedPayload payload.
type MerchantStatusChangedPayload struct {
	MerchantID string                `json:"merchant_id"`
	OldStatus  domain.MerchantStatus `json:"old_status"`
	NewStatus  domain.MerchantStatus `json:"new_status"`
}

// DriverStatusChangedPayload payload.
type DriverStatusChangedPayload struct {
	DriverID  string              `json:"driver_id"`
	OldStatus domain.DriverStatus `json:"old_status"`
	NewStatus domain.DriverStatus `json:"new_status"`
}
