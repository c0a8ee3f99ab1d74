package domain

import "time"

// Customer places orders.
type Customer struct {
	ID               string
	Name             string
	Phone            string
	Email            *string
	DefaultAddress   *string
	DefaultLatitude  *float64
	DefaultLongitude *float64
	TotalOrders      int
	LoyaltyPoints    int
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
