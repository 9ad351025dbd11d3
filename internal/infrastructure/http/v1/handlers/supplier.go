package handlers

import (
	"github.com/gin-gonic/gin"

	"fueldepot/internal/domain/catalogs/supplier"
	"fueldepot/internal/infrastructure/http/v1/dto"
)

// SupplierHandler serves the supplier catalog.
type SupplierHandler struct {
	BaseHandler
	service *supplier.Service
}

// NewSupplierHandler creates a supplier handler.
func NewSupplierHandler(service *supplier.Service) *SupplierHandler {
	return &SupplierHandler{service: service}
}

// Create handles POST /suppliers.
func (h *SupplierHandler) Create(c *gin.Context) {
	var req dto.CreateSupplierRequest
	if err := h.BindJSON(c, &req); err != nil {
		return
	}

	sup := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), sup); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, sup)
}

// GetByID handles GET /suppliers/:id.
func (h *SupplierHandler) GetByID(c *gin.Context) {
	supID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	sup, err := h.service.GetByID(c.Request.Context(), supID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, sup)
}

// List handles GET /suppliers.
func (h *SupplierHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context(), h.QueryBool(c, "active"))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": items})
}
