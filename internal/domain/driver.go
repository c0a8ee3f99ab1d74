package domain

import "time"

// DriverStatus tracks whether a driver takes deliveries.
type DriverStatus string

const (
	DriverStatusActive   DriverStatus = "active"
	DriverStatusInactive DriverStatus = "inactive"
)

// Valid reports whether the status is known.
func (s DriverStatus) Valid() bool {
	return s == DriverStatusActive || s == DriverStatusInactive
}

// VehicleType enumerates supported delivery vehicles.
type VehicleType string

const (
	VehicleMotorcycle VehicleType = "motorcycle"
	VehicleCar        VehicleType = "car"
	VehicleBicycle    VehicleType = "bicycle"
)

// Driver delivers orders.
type Driver struct {
	ID               string
	Name             string
	NationalID       string
	Phone            string
	Email            *string
	VehicleType      VehicleType
	VehiclePlate     *string
	Status           DriverStatus
	CurrentLatitude  *float64
	CurrentLongitude *float64
	Rating           float64
	TotalDeliveries  int
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
