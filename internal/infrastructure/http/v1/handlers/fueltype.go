package handlers

import (
	"github.com/gin-gonic/gin"

	"fueldepot/internal/domain/catalogs/fueltype"
	"fueldepot/internal/infrastructure/http/v1/dto"
)

// FuelTypeHandler serves the fuel type catalog.
type FuelTypeHandler struct {
	BaseHandler
	service *fueltype.Service
}

// NewFuelTypeHandler creates a fuel type handler.
func NewFuelTypeHandler(service *fueltype.Service) *FuelTypeHandler {
	return &FuelTypeHandler{service: service}
}

// Create handles POST /fuel-types.
func (h *FuelTypeHandler) Create(c *gin.Context) {
	var req dto.CreateFuelTypeRequest
	if err := h.BindJSON(c, &req); err != nil {
		return
	}

	ft := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), ft); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, ft)
}

// GetByID handles GET /fuel-types/:id.
func (h *FuelTypeHandler) GetByID(c *gin.Context) {
	ftID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	ft, err := h.service.GetByID(c.Request.Context(), ftID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, ft)
}

// List handles GET /fuel-types.
func (h *FuelTypeHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context(), h.QueryBool(c, "active"))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": items})
}
