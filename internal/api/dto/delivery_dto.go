package dto

import "time"

// StatusUpdateRequest payload for the PATCH .../status endpoints.
type StatusUpdateRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

type MerchantResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Owner       string    `json:"owner"`
	Phone       string    `json:"phone"`
	Email       *string   `json:"email,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Status      string    `json:"status"`
	Address     *string   `json:"address,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	Rating      float64   `json:"rating"`
	TotalOrders int       `json:"total_orders"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type DriverResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Phone            string    `json:"phone"`
	Email            *string   `json:"email,omitempty"`
	VehicleType      string    `json:"vehicle_type"`
	VehiclePlate     *string   `json:"vehicle_plate,omitempty"`
	Status           string    `json:"status"`
	CurrentLatitude  *float64  `json:"current_latitude,omitempty"`
	CurrentLongitude *float64  `json:"current_longitude,omitempty"`
	Rating           float64   `json:"rating"`
	TotalDeliveries  int       `json:"total_deliveries"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type CustomerResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	Email          *string   `json:"email,omitempty"`
	DefaultAddress *string   `json:"default_address,omitempty"`
	TotalOrders    int       `json:"total_orders"`
	LoyaltyPoints  int       `json:"loyalty_points"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

type OrderResponse struct {
	ID              string     `json:"id"`
	OrderNumber     string     `json:"order_number"`
	CustomerID      string     `json:"customer_id"`
	MerchantID      string     `json:"merchant_id"`
	DriverID        *string    `json:"driver_id,omitempty"`
	Status          string     `json:"status"`
	TotalAmount     float64    `json:"total_amount"`
	DeliveryFee     float64    `json:"delivery_fee"`
	TaxAmount       float64    `json:"tax_amount"`
	DiscountAmount  float64    `json:"discount_amount"`
	FinalAmount     float64    `json:"final_amount"`
	DeliveryAddress string     `json:"delivery_address"`
	Notes           *string    `json:"notes,omitempty"`
	Priority        string     `json:"priority"`
	PaymentMethod   string     `json:"payment_method"`
	PaymentStatus   string     `json:"payment_status"`
	OrderTime       time.Time  `json:"order_time"`
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
	PickedUpAt      *time.Time `json:"picked_up_at,omitempty"`
	DeliveredAt     *time.Time `json:"delivered_at,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type OrderHistoryResponse struct {
	ID        string    `json:"id"`
	OldStatus *string   `json:"old_status,omitempty"`
	NewStatus string    `json:"new_status"`
	ChangedBy *string   `json:"changed_by,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
