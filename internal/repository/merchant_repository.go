package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ghaythalijarad/entralized-delivery-platform/internal/domain"
)

// MerchantFilter narrows merchant listings.
type MerchantFilter struct {
	Status *domain.MerchantStatus
	Active *bool
	Page
}

// MerchantRepository handles persistence for merchants.
type MerchantRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Merchant, error)
	List(ctx context.Context, filter MerchantFilter) ([]domain.Merchant, error)
	UpdateStatus(ctx context.Context, id string, status domain.MerchantStatus) (*domain.Merchant, error)
}

const merchantColumns = `id, name, owner, phone, email, category, status, address, latitude, longitude,
               rating, total_orders, is_active, created_at, updated_at`

type merchantRepository struct {
	db DB
}

// NewMerchantRepository instantiates the repository.
func NewMerchantRepository(db DB) MerchantRepository {
	return &merchantRepository{db: db}
}

func (r *merchantRepository) GetByID(ctx context.Context, id string) (*domain.Merchant, error) {
	return scanMerchant(r.db.QueryRow(ctx, `SELECT `+merchantColumns+` FROM merchants WHERE id=$1`, id))
}

func (r *merchantRepository) List(ctx context.Context, filter MerchantFilter) ([]domain.Merchant, error) {
	where := newWhere()
	if filter.Status != nil {
		where.add("status", *filter.Status)
	}
	if filter.Active != nil {
		where.add("is_active", *filter.Active)
	}
	limit, offset := filter.normalized()
	query := fmt.Sprintf(`SELECT %s FROM merchants%s ORDER BY name LIMIT %d OFFSET %d`,
		merchantColumns, where.sql(), limit, offset)

	rows, err := r.db.Query(ctx, query, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Merchant{}
	for rows.Next() {
		merchant, err := scanMerchant(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *merchant)
	}
	return result, rows.Err()
}

func (r *merchantRepository) UpdateStatus(ctx context.Context, id string, status domain.MerchantStatus) (*domain.Merchant, error) {
	query := `UPDATE merchants SET status=$1, updated_at=NOW() WHERE id=$2 RETURNING ` + merchantColumns
	return scanMerchant(r.db.QueryRow(ctx, query, status, id))
}

func scanMerchant(row pgx.Row) (*domain.Merchant, error) {
	var m domain.Merchant
	if err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Owner,
		&m.Phone,
		&m.Email,
		&m.Category,
		&m.Status,
		&m.Address,
		&m.Latitude,
		&m.Longitude,
		&m.Rating,
		&m.TotalOrders,
		&m.IsActive,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}
