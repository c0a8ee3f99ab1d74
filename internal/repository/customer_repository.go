package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ghaythalijarad/entralized-delivery-platform/internal/domain"
)

// CustomerRepository reads customers.
type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	List(ctx context.Context, page Page) ([]domain.Customer, error)
}

const customerColumns = `id, name, phone, email, default_address, default_latitude, default_longitude,
               total_orders, loyalty_points, is_active, created_at, updated_at`

type customerRepository struct {
	db DB
}

// NewCustomerRepository instantiates the repository.
func NewCustomerRepository(db DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	return scanCustomer(r.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id=$1`, id))
}

func (r *customerRepository) List(ctx context.Context, page Page) ([]domain.Customer, error) {
	limit, offset := page.normalized()
	query := fmt.Sprintf(`SELECT %s FROM customers ORDER BY created_at DESC LIMIT %d OFFSET %d`, customerColumns, limit, offset)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Customer{}
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *customer)
	}
	return result, rows.Err()
}

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	if err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Phone,
		&c.Email,
		&c.DefaultAddress,
		&c.DefaultLatitude,
		&c.DefaultLongitude,
		&c.TotalOrders,
		&c.LoyaltyPoints,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}
