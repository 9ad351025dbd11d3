package handlers

import (
	"github.com/gin-gonic/gin"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
	"fueldepot/internal/domain/catalogs/tank"
	"fueldepot/internal/infrastructure/http/v1/dto"
)

// TankHandler serves the tank catalog and its ledger views.
type TankHandler struct {
	BaseHandler
	service *tank.Service
}

// NewTankHandler creates a tank handler.
func NewTankHandler(service *tank.Service) *TankHandler {
	return &TankHandler{service: service}
}

// Register handles POST /tanks.
func (h *TankHandler) Register(c *gin.Context) {
	var req dto.RegisterTankRequest
	if err := h.BindJSON(c, &req); err != nil {
		return
	}

	t, opening, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Register(c.Request.Context(), t, opening); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, t)
}

// GetByID handles GET /tanks/:id.
func (h *TankHandler) GetByID(c *gin.Context) {
	tankID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	t, err := h.service.GetByID(c.Request.Context(), tankID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, t)
}

// List handles GET /tanks.
func (h *TankHandler) List(c *gin.Context) {
	filter := tank.ListFilter{
		ActiveOnly: h.QueryBool(c, "active"),
	}
	if raw := c.Query("fuelTypeId"); raw != "" {
		ftID, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid fuel type id").
				WithDetail("value", raw))
			return
		}
		filter.FuelTypeID = &ftID
	}

	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": items})
}

// Update handles PUT /tanks/:id.
func (h *TankHandler) Update(c *gin.Context) {
	tankID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateTankRequest
	if err := h.BindJSON(c, &req); err != nil {
		return
	}

	t, err := h.service.GetByID(c.Request.Context(), tankID)
	if err != nil {
		h.Error(c, err)
		return
	}

	capacity, err := types.NewVolumeFromString(req.Capacity)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid capacity").
			WithDetail("value", req.Capacity))
		return
	}

	t.Code = req.Code
	t.Name = req.Name
	t.Capacity = capacity
	t.IsActive = req.IsActive
	t.Location = req.Location

	if err := h.service.Update(c.Request.Context(), t); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, t)
}

// Decommission handles DELETE /tanks/:id. The tank is deactivated,
// never deleted: its ledger must stay replayable.
func (h *TankHandler) Decommission(c *gin.Context) {
	tankID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Decommission(c.Request.Context(), tankID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// Adjust handles POST /tanks/:id/adjustments. A signed correction outside
// any delivery (dip-stick reading, spillage, evaporation).
func (h *TankHandler) Adjust(c *gin.Context) {
	tankID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.AdjustmentRequest
	if err := h.BindJSON(c, &req); err != nil {
		return
	}

	amount, err := types.NewVolumeFromString(req.Amount)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid amount").
			WithDetail("value", req.Amount))
		return
	}

	entry, err := h.service.RecordAdjustment(c.Request.Context(), tankID, amount, req.Notes)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, entry)
}

// History handles GET /tanks/:id/history, the full ledger oldest first.
func (h *TankHandler) History(c *gin.Context) {
	tankID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	entries, err := h.service.History(c.Request.Context(), tankID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": entries})
}
