package dto

import (
	"time"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
	"fueldepot/internal/domain/orders"
)

// CreatePurchaseOrderRequest is the payload for creating an order.
type CreatePurchaseOrderRequest struct {
	Number     string                `json:"number"`
	Date       time.Time             `json:"date" binding:"required"`
	SupplierID string                `json:"supplierId" binding:"required"`
	Comment    string                `json:"comment"`
	Items      []PurchaseOrderItemIn `json:"items" binding:"required,min=1,dive"`
}

// PurchaseOrderItemIn is one requested fuel line.
type PurchaseOrderItemIn struct {
	FuelTypeID      string `json:"fuelTypeId" binding:"required"`
	OrderedQuantity string `json:"orderedQuantity" binding:"required"`
	UnitPrice       string `json:"unitPrice"`
}

// ToEntity converts the request into a domain order.
func (r *CreatePurchaseOrderRequest) ToEntity() (*orders.PurchaseOrder, error) {
	supplierID, err := id.Parse(r.SupplierID)
	if err != nil {
		return nil, apperror.NewValidation("invalid supplier id").
			WithDetail("value", r.SupplierID)
	}

	order := orders.New(supplierID, r.Date)
	order.Number = r.Number
	order.Comment = r.Comment

	for i, item := range r.Items {
		fuelTypeID, err := id.Parse(item.FuelTypeID)
		if err != nil {
			return nil, apperror.NewValidation("invalid fuel type id").
				WithDetail("lineNo", i+1).
				WithDetail("value", item.FuelTypeID)
		}

		qty, err := types.NewVolumeFromString(item.OrderedQuantity)
		if err != nil {
			return nil, apperror.NewValidation("invalid ordered quantity").
				WithDetail("lineNo", i+1).
				WithDetail("value", item.OrderedQuantity)
		}

		price := types.Zero()
		if item.UnitPrice != "" {
			price, err = types.NewVolumeFromString(item.UnitPrice)
			if err != nil {
				return nil, apperror.NewValidation("invalid unit price").
					WithDetail("lineNo", i+1).
					WithDetail("value", item.UnitPrice)
			}
		}

		order.AddItem(fuelTypeID, qty, price)
	}

	return order, nil
}

// TransitionRequest moves an order to a target lifecycle status.
type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}

// FulfillmentResponse is the per-line ordered/received/remaining view.
type FulfillmentResponse struct {
	OrderID string                   `json:"orderId"`
	Lines   []orders.ItemFulfillment `json:"lines"`
}
