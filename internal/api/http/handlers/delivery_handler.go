package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ghaythalijarad/entralized-delivery-platform/internal/api/dto"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/domain"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/repository"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/service"
)

// DeliveryHandler serves the merchant, driver, customer and order endpoints.
type DeliveryHandler struct {
	delivery *service.DeliveryService
}

// NewDeliveryHandler constructs handler.
func NewDeliveryHandler(delivery *service.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{delivery: delivery}
}

// ListMerchants handles GET /api/merchants?status=&active=.
func (h *DeliveryHandler) ListMerchants(c *fiber.Ctx) error {
	page, _, _ := parsePage(c)
	filter := repository.MerchantFilter{Active: parseBoolQuery(c, "active"), Page: page}
	if status := optionalQuery(c, "status"); status != nil {
		s := domain.MerchantStatus(*status)
		filter.Status = &s
	}
	merchants, err := h.delivery.ListMerchants(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.MerchantResponse, 0, len(merchants))
	for i := range merchants {
		items = append(items, merchantResponse(&merchants[i]))
	}
	return data(c, http.StatusOK, items)
}

// GetMerchant handles GET /api/merchants/:id.
func (h *DeliveryHandler) GetMerchant(c *fiber.Ctx) error {
	merchant, err := h.delivery.GetMerchant(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, merchantResponse(merchant))
}

// UpdateMerchantStatus handles PATCH /api/merchants/:id/status.
func (h *DeliveryHandler) UpdateMerchantStatus(c *fiber.Ctx) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.StatusUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	merchant, err := h.delivery.UpdateMerchantStatus(c.UserContext(), identity, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, merchantResponse(merchant))
}

// ListDrivers handles GET /api/drivers?status=&vehicle_type=.
func (h *DeliveryHandler) ListDrivers(c *fiber.Ctx) error {
	page, _, _ := parsePage(c)
	filter := repository.DriverFilter{Page: page}
	if status := optionalQuery(c, "status"); status != nil {
		s := domain.DriverStatus(*status)
		filter.Status = &s
	}
	if vehicle := optionalQuery(c, "vehicle_type"); vehicle != nil {
		v := domain.VehicleType(*vehicle)
		filter.VehicleType = &v
	}
	drivers, err := h.delivery.ListDrivers(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.DriverResponse, 0, len(drivers))
	for i := range drivers {
		items = append(items, driverResponse(&drivers[i]))
	}
	return data(c, http.StatusOK, items)
}

// GetDriver handles GET /api/drivers/:id.
func (h *DeliveryHandler) GetDriver(c *fiber.Ctx) error {
	driver, err := h.delivery.GetDriver(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, driverResponse(driver))
}

// UpdateDriverStatus handles PATCH /api/drivers/:id/status.
func (h *DeliveryHandler) UpdateDriverStatus(c *fiber.Ctx) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.StatusUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	driver, err := h.delivery.UpdateDriverStatus(c.UserContext(), identity, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, driverResponse(driver))
}

// ListCustomers handles GET /api/customers.
func (h *DeliveryHandler) ListCustomers(c *fiber.Ctx) error {
	page, _, _ := parsePage(c)
	customers, err := h.delivery.ListCustomers(c.UserContext(), page)
	if err != nil {
		return err
	}
	items := make([]dto.CustomerResponse, 0, len(customers))
	for i := range customers {
		items = append(items, customerResponse(&customers[i]))
	}
	return data(c, http.StatusOK, items)
}

// GetCustomer handles GET /api/customers/:id.
func (h *DeliveryHandler) GetCustomer(c *fiber.Ctx) error {
	customer, err := h.delivery.GetCustomer(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, customerResponse(customer))
}

// ListOrders handles GET /api/orders?status=&merchant_id=&driver_id=&customer_id=.
func (h *DeliveryHandler) ListOrders(c *fiber.Ctx) error {
	page, _, _ := parsePage(c)
	filter := repository.OrderFilter{
		MerchantID: optionalQuery(c, "merchant_id"),
		DriverID:   optionalQuery(c, "driver_id"),
		CustomerID: optionalQuery(c, "customer_id"),
		Page:       page,
	}
	if status := optionalQuery(c, "status"); status != nil {
		s := domain.OrderStatus(*status)
		filter.Status = &s
	}
	orders, err := h.delivery.ListOrders(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, orderResponse(&orders[i]))
	}
	return data(c, http.StatusOK, items)
}

// GetOrder handles GET /api/orders/:id.
func (h *DeliveryHandler) GetOrder(c *fiber.Ctx) error {
	order, err := h.delivery.GetOrder(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, orderResponse(order))
}

// OrderHistory handles GET /api/orders/:id/history.
func (h *DeliveryHandler) OrderHistory(c *fiber.Ctx) error {
	history, err := h.delivery.OrderHistory(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.OrderHistoryResponse, 0, len(history))
	for _, entry := range history {
		item := dto.OrderHistoryResponse{
			ID:        entry.ID,
			NewStatus: string(entry.NewStatus),
			ChangedBy: entry.ChangedBy,
			Notes:     entry.Notes,
			CreatedAt: entry.CreatedAt,
		}
		if entry.OldStatus != nil {
			old := string(*entry.OldStatus)
			item.OldStatus = &old
		}
		items = append(items, item)
	}
	return data(c, http.StatusOK, items)
}

// UpdateOrderStatus handles PATCH /api/orders/:id/status.
func (h *DeliveryHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.StatusUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	order, err := h.delivery.ChangeOrderStatus(c.UserContext(), identity, c.Params("id"), req.Status, req.Notes)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, orderResponse(order))
}

func merchantResponse(m *domain.Merchant) dto.MerchantResponse {
	return dto.MerchantResponse{
		ID:          m.ID,
		Name:        m.Name,
		Owner:       m.Owner,
		Phone:       m.Phone,
		Email:       m.Email,
		Category:    m.Category,
		Status:      string(m.Status),
		Address:     m.Address,
		Latitude:    m.Latitude,
		Longitude:   m.Longitude,
		Rating:      m.Rating,
		TotalOrders: m.TotalOrders,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func driverResponse(d *domain.Driver) dto.DriverResponse {
	return dto.DriverResponse{
		ID:               d.ID,
		Name:             d.Name,
		Phone:            d.Phone,
		Email:            d.Email,
		VehicleType:      string(d.VehicleType),
		VehiclePlate:     d.VehiclePlate,
		Status:           string(d.Status),
		CurrentLatitude:  d.CurrentLatitude,
		CurrentLongitude: d.CurrentLongitude,
		Rating:           d.Rating,
		TotalDeliveries:  d.TotalDeliveries,
		IsActive:         d.IsActive,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

func customerResponse(cu *domain.Customer) dto.CustomerResponse {
	return dto.CustomerResponse{
		ID:             cu.ID,
		Name:           cu.Name,
		Phone:          cu.Phone,
		Email:          cu.Email,
		DefaultAddress: cu.DefaultAddress,
		TotalOrders:    cu.TotalOrders,
		LoyaltyPoints:  cu.LoyaltyPoints,
		IsActive:       cu.IsActive,
		CreatedAt:      cu.CreatedAt,
	}
}

func orderResponse(o *domain.Order) dto.OrderResponse {
	return dto.OrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		MerchantID:      o.MerchantID,
		DriverID:        o.DriverID,
		Status:          string(o.Status),
		TotalAmount:     o.TotalAmount,
		DeliveryFee:     o.DeliveryFee,
		TaxAmount:       o.TaxAmount,
		DiscountAmount:  o.DiscountAmount,
		FinalAmount:     o.FinalAmount,
		DeliveryAddress: o.DeliveryAddress,
		Notes:           o.Notes,
		Priority:        o.Priority,
		PaymentMethod:   o.PaymentMethod,
		PaymentStatus:   o.PaymentStatus,
		OrderTime:       o.OrderTime,
		ConfirmedAt:     o.ConfirmedAt,
		PickedUpAt:      o.PickedUpAt,
		DeliveredAt:     o.DeliveredAt,
		UpdatedAt:       o.UpdatedAt,
	}
}
