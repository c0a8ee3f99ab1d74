package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/ghaythalijarad/entralized-delivery-platform/internal/auth"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/domain"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/events"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/repository"
	apperrors "github.com/ghaythalijarad/entralized-delivery-platform/pkg/util/errorutil"
)

// DeliveryService exposes the merchant, driver, customer and order records
// behind the admin dashboard.
type DeliveryService struct {
	merchants  repository.MerchantRepository
	drivers    repository.DriverRepository
	customers  repository.CustomerRepository
	orders     repository.OrderRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// DeliveryDependencies bundles the repositories the service reads.
type DeliveryDependencies struct {
	MerchantRepo repository.MerchantRepository
	DriverRepo   repository.DriverRepository
	CustomerRepo repository.CustomerRepository
	OrderRepo    repository.OrderRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewDeliveryService constructs the service.
func NewDeliveryService(deps DeliveryDependencies) *DeliveryService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeliveryService{
		merchants:  deps.MerchantRepo,
		drivers:    deps.DriverRepo,
		customers:  deps.CustomerRepo,
		orders:     deps.OrderRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

func (s *DeliveryService) ListMerchants(ctx context.Context, filter repository.MerchantFilter) ([]domain.Merchant, error) {
	merchants, err := s.merchants.List(ctx, filter)
	return merchants, apperrors.MapError(err)
}

func (s *DeliveryService) GetMerchant(ctx context.Context, id string) (*domain.Merchant, error) {
	merchant, err := s.merchants.GetByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, "merchant")
	}
	return merchant, nil
}

// UpdateMerchantStatus switches a merchant between online, offline and busy.
func (s *DeliveryService) UpdateMerchantStatus(ctx context.Context, actor *auth.Identity, id, status string) (*domain.Merchant, error) {
	next := domain.MerchantStatus(strings.ToLower(strings.TrimSpace(status)))
	if !next.Valid() {
		return nil, apperrors.NewValidationError("status must be one of online, offline, busy", map[string]any{"field": "status"})
	}
	current, err := s.merchants.GetByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, "merchant")
	}
	updated, err := s.merchants.UpdateStatus(ctx, id, next)
	if err != nil {
		return nil, mapLookupError(err, "merchant")
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventMerchantStatusChanged, actorOf(actor),
		events.MerchantStatusChangedPayload{MerchantID: id, OldStatus: current.Status, NewStatus: next}))
	return updated, nil
}

func (s *DeliveryService) ListDrivers(ctx context.Context, filter repository.DriverFilter) ([]domain.Driver, error) {
	drivers, err := s.drivers.List(ctx, filter)
	return drivers, apperrors.MapError(err)
}

func (s *DeliveryService) GetDriver(ctx context.Context, id string) (*domain.Driver, error) {
	driver, err := s.drivers.GetByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, "driver")
	}
	return driver, nil
}

// UpdateDriverStatus activates or deactivates a driver.
func (s *DeliveryService) UpdateDriverStatus(ctx context.Context, actor *auth.Identity, id, status string) (*domain.Driver, error) {
	next := domain.DriverStatus(strings.ToLower(strings.TrimSpace(status)))
	if !next.Valid() {
		return nil, apperrors.NewValidationError("status must be one of active, inactive", map[string]any{"field": "status"})
	}
	current, err := s.drivers.GetByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, "driver")
	}
	updated, err := s.drivers.UpdateStatus(ctx, id, next)
	if err != nil {
		return nil, mapLookupError(err, "driver")
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventDriverStatusChanged, actorOf(actor),
		events.DriverStatusChangedPayload{DriverID: id, OldStatus: current.Status, NewStatus: next}))
	return updated, nil
}

func (s *DeliveryService) ListCustomers(ctx context.Context, page repository.Page) ([]domain.Customer, error) {
	customers, err := s.customers.List(ctx, page)
	return customers, apperrors.MapError(err)
}

func (s *DeliveryService) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	customer, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, "customer")
	}
	return customer, nil
}

func (s *DeliveryService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, error) {
	orders, err := s.orders.List(ctx, filter)
	return orders, apperrors.MapError(err)
}

func (s *DeliveryService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, "order")
	}
	return order, nil
}

// OrderHistory lists status transitions oldest first.
func (s *DeliveryService) OrderHistory(ctx context.Context, id string) ([]domain.OrderStatusHistory, error) {
	if _, err := s.GetOrder(ctx, id); err != nil {
		return nil, err
	}
	history, err := s.orders.History(ctx, id)
	return history, apperrors.MapError(err)
}

// ChangeOrderStatus moves an order to status and records who did it.
// Delivered, cancelled and rejected orders are final.
func (s *DeliveryService) ChangeOrderStatus(ctx context.Context, actor *auth.Identity, id, status, notes string) (*domain.Order, error) {
	next := domain.OrderStatus(strings.ToLower(strings.TrimSpace(status)))
	if !next.Valid() {
		return nil, apperrors.NewValidationError("unknown order status", map[string]any{"field": "status", "value": status})
	}
	change := repository.StatusChange{OrderID: id, NewStatus: next}
	if actor != nil {
		change.ChangedBy = actor.Username
	}
	if notes = strings.TrimSpace(notes); notes != "" {
		change.Notes = &notes
	}
	order, history, err := s.orders.ChangeStatus(ctx, change)
	if err != nil {
		var final *repository.FinalStatusError
		if errors.As(err, &final) {
			return nil, apperrors.NewConflict("order is already "+string(final.Status),
				map[string]any{"order_id": id, "status": final.Status})
		}
		return nil, mapLookupError(err, "order")
	}

	payload := events.OrderStatusChangedPayload{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		NewStatus:   next,
		Notes:       notes,
	}
	if history.OldStatus != nil {
		payload.OldStatus = *history.OldStatus
	}
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventOrderStatusChanged, actorOf(actor), payload))
	return order, nil
}
