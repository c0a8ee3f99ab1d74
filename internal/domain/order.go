package domain

import "time"

// OrderStatus enumerates lifecycle states for orders.
type OrderStatus string

const (
	OrderStatusPending             OrderStatus = "pending"
	OrderStatusProcessing          OrderStatus = "processing"
	OrderStatusConfirmedByMerchant OrderStatus = "confirmed_by_merchant"
	OrderStatusSearchingForDriver  OrderStatus = "searching_for_driver"
	OrderStatusDriverAssigned      OrderStatus = "driver_assigned"
	OrderStatusPickedUp            OrderStatus = "picked_up"
	OrderStatusInTransit           OrderStatus = "in_transit"
	OrderStatusDelivered           OrderStatus = "delivered"
	OrderStatusCancelled           OrderStatus = "cancelled"
	OrderStatusRejected            OrderStatus = "rejected"
)

var orderStatuses = map[OrderStatus]struct{}{
	OrderStatusPending:             {},
	OrderStatusProcessing:          {},
	OrderStatusConfirmedByMerchant: {},
	OrderStatusSearchingForDriver:  {},
	OrderStatusDriverAssigned:      {},
	OrderStatusPickedUp:            {},
	OrderStatusInTransit:           {},
	OrderStatusDelivered:           {},
	OrderStatusCancelled:           {},
	OrderStatusRejected:            {},
}

// Valid reports whether the status is known.
func (s OrderStatus) Valid() bool {
	_, ok := orderStatuses[s]
	return ok
}

// Terminal reports whether no further transitions are expected.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled || s == OrderStatusRejected
}

// Order is the aggregate for a delivery request.
type Order struct {
	ID                string
	OrderNumber       string
	CustomerID        string
	MerchantID        string
	DriverID          *string
	Status            OrderStatus
	TotalAmount       float64
	DeliveryFee       float64
	TaxAmount         float64
	DiscountAmount    float64
	FinalAmount       float64
	DeliveryAddress   string
	DeliveryLatitude  *float64
	DeliveryLongitude *float64
	Notes             *string
	Priority          string
	PaymentMethod     string
	PaymentStatus     string
	OrderTime         time.Time
	ConfirmedAt       *time.Time
	PickedUpAt        *time.Time
	DeliveredAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// OrderStatusHistory records a single status transition.
type OrderStatusHistory struct {
	ID        string
	OrderID   string
	OldStatus *OrderStatus
	NewStatus OrderStatus
	ChangedBy *string
	Notes     *string
	CreatedAt time.Time
}
