package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ghaythalijarad/entralized-delivery-platform/internal/domain"
)

// OrderFilter narrows order listings.
type OrderFilter struct {
	Status     *domain.OrderStatus
	MerchantID *string
	DriverID   *string
	CustomerID *string
	Page
}

// StatusChange is a requested order transition.
type StatusChange struct {
	OrderID   string
	NewStatus domain.OrderStatus
	ChangedBy string
	Notes     *string
}

// ErrOrderFinal reports a transition away from a terminal status.
var ErrOrderFinal = errors.New("order status is final")

// FinalStatusError carries the terminal status that blocked a change.
type FinalStatusError struct {
	Status domain.OrderStatus
}

func (e *FinalStatusError) Error() string {
	return fmt.Sprintf("%v: %s", ErrOrderFinal, e.Status)
}

func (e *FinalStatusError) Is(target error) bool { return target == ErrOrderFinal }

// OrderRepository encapsulates order persistence.
type OrderRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, error)
	ChangeStatus(ctx context.Context, change StatusChange) (*domain.Order, *domain.OrderStatusHistory, error)
	History(ctx context.Context, orderID string) ([]domain.OrderStatusHistory, error)
}

const orderColumns = `id, order_number, customer_id, merchant_id, driver_id, status,
               total_amount, delivery_fee, tax_amount, discount_amount, final_amount,
               delivery_address, delivery_latitude, delivery_longitude, notes, priority,
               payment_method, payment_status, order_time, confirmed_at, picked_up_at, delivered_at,
               created_at, updated_at`

type orderRepository struct {
	db DB
}

// NewOrderRepository instantiates the repository.
func NewOrderRepository(db DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]domain.Order, error) {
	where := newWhere()
	if filter.Status != nil {
		where.add("status", *filter.Status)
	}
	if filter.MerchantID != nil {
		where.add("merchant_id", *filter.MerchantID)
	}
	if filter.DriverID != nil {
		where.add("driver_id", *filter.DriverID)
	}
	if filter.CustomerID != nil {
		where.add("customer_id", *filter.CustomerID)
	}
	limit, offset := filter.normalized()
	query := fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY order_time DESC LIMIT %d OFFSET %d`,
		orderColumns, where.sql(), limit, offset)

	rows, err := r.db.Query(ctx, query, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *order)
	}
	return result, rows.Err()
}

// ChangeStatus updates the order and appends a history row in one transaction.
// The row stays locked from the status read to commit, so a terminal order
// cannot be moved by a concurrent request.
func (r *orderRepository) ChangeStatus(ctx context.Context, change StatusChange) (_ *domain.Order, _ *domain.OrderStatusHistory, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var old domain.OrderStatus
	if err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, change.OrderID).Scan(&old); err != nil {
		return nil, nil, err
	}
	if old.Terminal() && old != change.NewStatus {
		err = &FinalStatusError{Status: old}
		return nil, nil, err
	}

	const update = `
        UPDATE orders SET status=$1,
            confirmed_at = CASE WHEN $1 = 'confirmed_by_merchant' THEN COALESCE(confirmed_at, NOW()) ELSE confirmed_at END,
            picked_up_at = CASE WHEN $1 = 'picked_up' THEN COALESCE(picked_up_at, NOW()) ELSE picked_up_at END,
            delivered_at = CASE WHEN $1 = 'delivered' THEN COALESCE(delivered_at, NOW()) ELSE delivered_at END,
            updated_at=NOW()
        WHERE id=$2
        RETURNING ` + orderColumns
	order, err := scanOrder(tx.QueryRow(ctx, update, change.NewStatus, change.OrderID))
	if err != nil {
		return nil, nil, err
	}

	history := &domain.OrderStatusHistory{
		OrderID:   change.OrderID,
		OldStatus: &old,
		NewStatus: change.NewStatus,
		ChangedBy: &change.ChangedBy,
		Notes:     change.Notes,
	}
	const insert = `
        INSERT INTO order_status_history (order_id, old_status, new_status, changed_by, notes)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at`
	if err = tx.QueryRow(ctx, insert,
		history.OrderID,
		history.OldStatus,
		history.NewStatus,
		history.ChangedBy,
		history.Notes,
	).Scan(&history.ID, &history.CreatedAt); err != nil {
		return nil, nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return order, history, nil
}

func (r *orderRepository) History(ctx context.Context, orderID string) ([]domain.OrderStatusHistory, error) {
	const query = `
        SELECT id, order_id, old_status, new_status, changed_by, notes, created_at
        FROM order_status_history WHERE order_id=$1 ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.OrderStatusHistory{}
	for rows.Next() {
		var h domain.OrderStatusHistory
		if err := rows.Scan(&h.ID, &h.OrderID, &h.OldStatus, &h.NewStatus, &h.ChangedBy, &h.Notes, &h.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, h)
	}
	return result, rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	if err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.CustomerID,
		&o.MerchantID,
		&o.DriverID,
		&o.Status,
		&o.TotalAmount,
		&o.DeliveryFee,
		&o.TaxAmount,
		&o.DiscountAmount,
		&o.FinalAmount,
		&o.DeliveryAddress,
		&o.DeliveryLatitude,
		&o.DeliveryLongitude,
		&o.Notes,
		&o.Priority,
		&o.PaymentMethod,
		&o.PaymentStatus,
		&o.OrderTime,
		&o.ConfirmedAt,
		&o.PickedUpAt,
		&o.DeliveredAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &o, nil
}
