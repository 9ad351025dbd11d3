package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/domain/orders"
	"fueldepot/internal/infrastructure/http/v1/dto"
)

// OrderHandler serves purchase orders and their fulfillment views.
type OrderHandler struct {
	BaseHandler
	service *orders.Service
}

// NewOrderHandler creates an order handler.
func NewOrderHandler(service *orders.Service) *OrderHandler {
	return &OrderHandler{service: service}
}

// Create handles POST /orders.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseOrderRequest
	if err := h.BindJSON(c, &req); err != nil {
		return
	}

	order, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(c.Request.Context(), order); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, order)
}

// GetByID handles GET /orders/:id.
func (h *OrderHandler) GetByID(c *gin.Context) {
	orderID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, order)
}

// List handles GET /orders.
func (h *OrderHandler) List(c *gin.Context) {
	filter := orders.ListFilter{
		Limit:  h.QueryInt(c, "limit", 50),
		Offset: h.QueryInt(c, "offset", 0),
	}

	if raw := c.Query("supplierId"); raw != "" {
		supID, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid supplier id").
				WithDetail("value", raw))
			return
		}
		filter.SupplierID = &supID
	}

	if raw := c.Query("status"); raw != "" {
		status := orders.Status(raw)
		if !status.IsValid() {
			h.Error(c, apperror.NewValidation("invalid status").
				WithDetail("value", raw))
			return
		}
		filter.Status = &status
	}

	if raw := c.Query("dateFrom"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid dateFrom").
				WithDetail("value", raw))
			return
		}
		filter.DateFrom = &t
	}

	if raw := c.Query("dateTo"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid dateTo").
				WithDetail("value", raw))
			return
		}
		filter.DateTo = &t
	}

	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{
		"items": items,
		"meta": dto.ListMeta{
			Limit:  filter.Limit,
			Offset: filter.Offset,
			Count:  len(items),
		},
	})
}

// Transition handles POST /orders/:id/transition, the authoring lifecycle
// (draft -> submitted -> approved, or cancelled). Fulfillment statuses are
// derived by the delivery recorder, not set through this endpoint.
func (h *OrderHandler) Transition(c *gin.Context) {
	orderID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.TransitionRequest
	if err := h.BindJSON(c, &req); err != nil {
		return
	}

	status := orders.Status(req.Status)
	if !status.IsValid() {
		h.Error(c, apperror.NewValidation("invalid status").
			WithDetail("value", req.Status))
		return
	}

	if err := h.service.Transition(c.Request.Context(), orderID, status); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.SuccessResponse{Success: true})
}

// Fulfillment handles GET /orders/:id/fulfillment, the per-line
// ordered/received/remaining view across all live deliveries.
func (h *OrderHandler) Fulfillment(c *gin.Context) {
	orderID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	lines, err := h.service.Fulfillment(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FulfillmentResponse{
		OrderID: orderID.String(),
		Lines:   lines,
	})
}
