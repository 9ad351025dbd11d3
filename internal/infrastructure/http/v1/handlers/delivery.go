package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/domain/delivery"
	"fueldepot/internal/infrastructure/http/v1/dto"
	"fueldepot/internal/infrastructure/storage/postgres"
	"fueldepot/pkg/logger"
)

const deliveryEntityType = "delivery"

// DeliveryHandler serves delivery recording, editing and voiding.
type DeliveryHandler struct {
	BaseHandler
	recorder *delivery.Recorder
	audit    *postgres.AuditService
}

// NewDeliveryHandler creates a delivery handler.
func NewDeliveryHandler(recorder *delivery.Recorder, audit *postgres.AuditService) *DeliveryHandler {
	return &DeliveryHandler{recorder: recorder, audit: audit}
}

// Record handles POST /deliveries. Advisory warnings (capacity overruns) are
// returned alongside the committed delivery.
func (h *DeliveryHandler) Record(c *gin.Context) {
	var req dto.RecordDeliveryRequest
	if err := h.BindJSON(c, &req); err != nil {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	d, warnings, err := h.recorder.Record(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.auditSnapshot(c, d, postgres.AuditActionCreate, nil)

	h.Created(c, dto.DeliveryResponse{
		Delivery: d,
		Warnings: warnings,
	})
}

// GetByID handles GET /deliveries/:id.
func (h *DeliveryHandler) GetByID(c *gin.Context) {
	deliveryID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	d, err := h.recorder.GetByID(c.Request.Context(), deliveryID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, d)
}

// List handles GET /deliveries.
func (h *DeliveryHandler) List(c *gin.Context) {
	filter := delivery.ListFilter{
		Limit:  h.QueryInt(c, "limit", 50),
		Offset: h.QueryInt(c, "offset", 0),
	}

	if raw := c.Query("orderId"); raw != "" {
		orderID, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid order id").
				WithDetail("value", raw))
			return
		}
		filter.OrderID = &orderID
	}

	if raw := c.Query("status"); raw != "" {
		status := delivery.Status(raw)
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

	items, err := h.recorder.List(c.Request.Context(), filter)
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

// Edit handles PUT /deliveries/:id. Allocations replace the prior set
// wholesale; only the per-tank difference touches the tanks.
func (h *DeliveryHandler) Edit(c *gin.Context) {
	deliveryID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.EditDeliveryRequest
	if err := h.BindJSON(c, &req); err != nil {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	before, err := h.recorder.GetByID(c.Request.Context(), deliveryID)
	if err != nil {
		h.Error(c, err)
		return
	}

	d, warnings, err := h.recorder.Edit(c.Request.Context(), deliveryID, in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.auditSnapshot(c, d, postgres.AuditActionUpdate, before)

	h.OK(c, dto.DeliveryResponse{
		Delivery: d,
		Warnings: warnings,
	})
}

// Void handles POST /deliveries/:id/void. The delivery's contribution is
// reversed in full; the document stays on record.
func (h *DeliveryHandler) Void(c *gin.Context) {
	deliveryID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	before, err := h.recorder.GetByID(c.Request.Context(), deliveryID)
	if err != nil {
		h.Error(c, err)
		return
	}

	d, err := h.recorder.Void(c.Request.Context(), deliveryID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.auditSnapshot(c, d, postgres.AuditActionVoid, before)

	h.OK(c, d)
}

// History handles GET /deliveries/:id/audit, the stored snapshots newest first.
func (h *DeliveryHandler) History(c *gin.Context) {
	deliveryID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	entries, err := h.audit.GetEntityHistory(c.Request.Context(), deliveryEntityType, deliveryID, h.QueryInt(c, "limit", 100))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": entries})
}

// auditSnapshot stores a before/after snapshot of the mutation. Audit is
// best-effort: a failed write is logged, never surfaced to the caller.
func (h *DeliveryHandler) auditSnapshot(c *gin.Context, d *delivery.Delivery, action postgres.AuditAction, before *delivery.Delivery) {
	ctx := c.Request.Context()

	changes := map[string]any{"after": snapshotDelivery(d)}
	if before != nil {
		changes["before"] = snapshotDelivery(before)
	}

	if err := h.audit.LogChange(ctx, deliveryEntityType, d.ID, action, changes); err != nil {
		logger.Warn(ctx, "audit write failed",
			"delivery_id", d.ID,
			"action", action,
			"error", err,
		)
	}
}

func snapshotDelivery(d *delivery.Delivery) map[string]any {
	items := make([]map[string]any, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, map[string]any{
			"poItemId":         item.POItemID.String(),
			"tankId":           item.TankID.String(),
			"quantityReceived": item.QuantityReceived.String(),
		})
	}
	return map[string]any{
		"orderId":   d.OrderID.String(),
		"date":      d.Date,
		"reference": d.Reference,
		"status":    string(d.Status),
		"items":     items,
	}
}
