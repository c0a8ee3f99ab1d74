package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghaythalijarad/entralized-delivery-platform/internal/domain"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/events"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/repository"
	apperrors "github.com/ghaythalijarad/entralized-delivery-platform/pkg/util/errorutil"
)

type stubOrders struct {
	repository.OrderRepository
	orders  map[string]*domain.Order
	changes []repository.StatusChange
}

func (s *stubOrders) GetByID(_ context.Context, id string) (*domain.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *order
	return &copied, nil
}

func (s *stubOrders) ChangeStatus(_ context.Context, change repository.StatusChange) (*domain.Order, *domain.OrderStatusHistory, error) {
	order, ok := s.orders[change.OrderID]
	if !ok {
		return nil, nil, pgx.ErrNoRows
	}
	old := order.Status
	if old.Terminal() && old != change.NewStatus {
		return nil, nil, &repository.FinalStatusError{Status: old}
	}
	order.Status = change.NewStatus
	s.changes = append(s.changes, change)
	copied := *order
	return &copied, &domain.OrderStatusHistory{OrderID: order.ID, OldStatus: &old, NewStatus: change.NewStatus, ChangedBy: &change.ChangedBy}, nil
}

type stubMerchants struct {
	repository.MerchantRepository
	merchant domain.Merchant
}

func (s *stubMerchants) GetByID(_ context.Context, id string) (*domain.Merchant, error) {
	if id != s.merchant.ID {
		return nil, pgx.ErrNoRows
	}
	copied := s.merchant
	return &copied, nil
}

func (s *stubMerchants) UpdateStatus(_ context.Context, id string, status domain.MerchantStatus) (*domain.Merchant, error) {
	s.merchant.Status = status
	copied := s.merchant
	return &copied, nil
}

func newDeliveryFixture() (*DeliveryService, *stubOrders, *stubMerchants, *eventLog) {
	orders := &stubOrders{orders: map[string]*domain.Order{
		"o-1": {ID: "o-1", OrderNumber: "ORD-1", Status: domain.OrderStatusPending},
		"o-2": {ID: "o-2", OrderNumber: "ORD-2", Status: domain.OrderStatusDelivered},
	}}
	merchants := &stubMerchants{merchant: domain.Merchant{ID: "m-1", Status: domain.MerchantStatusOffline}}
	dispatcher, log := newEventLog()
	svc := NewDeliveryService(DeliveryDependencies{
		OrderRepo:    orders,
		MerchantRepo: merchants,
		Dispatcher:   dispatcher,
	})
	return svc, orders, merchants, log
}

func TestChangeOrderStatus(t *testing.T) {
	svc, orders, _, log := newDeliveryFixture()
	ctx := context.Background()

	order, err := svc.ChangeOrderStatus(ctx, adminCaller, "o-1", "Processing", " rush ")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, order.Status)

	require.Len(t, orders.changes, 1)
	assert.Equal(t, "admin", orders.changes[0].ChangedBy)
	require.NotNil(t, orders.changes[0].Notes)
	assert.Equal(t, "rush", *orders.changes[0].Notes)

	event := log.last()
	assert.Equal(t, events.EventOrderStatusChanged, event.Type)
	payload, ok := event.Payload.(events.OrderStatusChangedPayload)
	require.True(t, ok)
	assert.Equal(t, domain.OrderStatusPending, payload.OldStatus)
	assert.Equal(t, domain.OrderStatusProcessing, payload.NewStatus)
}

func TestChangeOrderStatusRejections(t *testing.T) {
	svc, orders, _, _ := newDeliveryFixture()
	ctx := context.Background()

	tests := []struct {
		name       string
		id         string
		status     string
		wantStatus int
	}{
		{name: "unknown status", id: "o-1", status: "teleported", wantStatus: http.StatusBadRequest},
		{name: "missing order", id: "o-9", status: "processing", wantStatus: http.StatusNotFound},
		{name: "terminal order", id: "o-2", status: "cancelled", wantStatus: http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ChangeOrderStatus(ctx, adminCaller, tt.id, tt.status, "")
			require.Error(t, err)
			de := apperrors.ToDomainError(err)
			assert.Equal(t, tt.wantStatus, de.HTTPStatus)
			if tt.wantStatus == http.StatusConflict {
				assert.Equal(t, domain.OrderStatusDelivered, de.Details["status"])
			}
		})
	}
	assert.Empty(t, orders.changes)
}

func TestUpdateMerchantStatus(t *testing.T) {
	svc, _, _, log := newDeliveryFixture()
	ctx := context.Background()

	merchant, err := svc.UpdateMerchantStatus(ctx, adminCaller, "m-1", "busy")
	require.NoError(t, err)
	assert.Equal(t, domain.MerchantStatusBusy, merchant.Status)

	payload, ok := log.last().Payload.(events.MerchantStatusChangedPayload)
	require.True(t, ok)
	assert.Equal(t, domain.MerchantStatusOffline, payload.OldStatus)

	_, err = svc.UpdateMerchantStatus(ctx, adminCaller, "m-1", "closed")
	assert.Equal(t, http.StatusBadRequest, apperrors.ToDomainError(err).HTTPStatus)

	_, err = svc.GetMerchant(ctx, "m-404")
	assert.Equal(t, http.StatusNotFound, apperrors.ToDomainError(err).HTTPStatus)
}
