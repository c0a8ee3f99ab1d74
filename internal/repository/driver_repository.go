package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ghaythalijarad/entralized-delivery-platform/internal/domain"
)

// DriverFilter narrows driver listings.
type DriverFilter struct {
	Status      *domain.DriverStatus
	VehicleType *domain.VehicleType
	Page
}

// DriverRepository handles persistence for drivers.
type DriverRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Driver, error)
	List(ctx context.Context, filter DriverFilter) ([]domain.Driver, error)
	UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) (*domain.Driver, error)
}

const driverColumns = `id, name, national_id, phone, email, vehicle_type, vehicle_plate, status,
               current_latitude, current_longitude, rating, total_deliveries, is_active, created_at, updated_at`

type driverRepository struct {
	db DB
}

// NewDriverRepository instantiates the repository.
func NewDriverRepository(db DB) DriverRepository {
	return &driverRepository{db: db}
}

func (r *driverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	return scanDriver(r.db.QueryRow(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id=$1`, id))
}

func (r *driverRepository) List(ctx context.Context, filter DriverFilter) ([]domain.Driver, error) {
	where := newWhere()
	if filter.Status != nil {
		where.add("status", *filter.Status)
	}
	if filter.VehicleType != nil {
		where.add("vehicle_type", *filter.VehicleType)
	}
	limit, offset := filter.normalized()
	query := fmt.Sprintf(`SELECT %s FROM drivers%s ORDER BY name LIMIT %d OFFSET %d`,
		driverColumns, where.sql(), limit, offset)

	rows, err := r.db.Query(ctx, query, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Driver{}
	for rows.Next() {
		driver, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *driver)
	}
	return result, rows.Err()
}

func (r *driverRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) (*domain.Driver, error) {
	query := `UPDATE drivers SET status=$1, updated_at=NOW() WHERE id=$2 RETURNING ` + driverColumns
	return scanDriver(r.db.QueryRow(ctx, query, status, id))
}

func scanDriver(row pgx.Row) (*domain.Driver, error) {
	var d domain.Driver
	if err := row.Scan(
		&d.ID,
		&d.Name,
		&d.NationalID,
		&d.Phone,
		&d.Email,
		&d.VehicleType,
		&d.VehiclePlate,
		&d.Status,
		&d.CurrentLatitude,
		&d.CurrentLongitude,
		&d.Rating,
		&d.TotalDeliveries,
		&d.IsActive,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}
