package domain

import "time"

// MerchantStatus is the availability a merchant advertises to dispatch.
type MerchantStatus string

const (
	MerchantStatusOnline  MerchantStatus = "online"
	MerchantStatusOffline MerchantStatus = "offline"
	MerchantStatusBusy    MerchantStatus = "busy"
)

// Valid reports whether the status is known.
func (s MerchantStatus) Valid() bool {
	switch s {
	case MerchantStatusOnline, MerchantStatusOffline, MerchantStatusBusy:
		return true
	}
	return false
}

// Merchant is a store that receives orders.
type Merchant struct {
	ID          string
	Name        string
	Owner       string
	Phone       string
	Email       *string
	Category    *string
	Status      MerchantStatus
	Address     *string
	Latitude    *float64
	Longitude   *float64
	Rating      float64
	TotalOrders int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
