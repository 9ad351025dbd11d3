package dto

import (
	"time"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
	"fueldepot/internal/domain/delivery"
)

// AllocationIn is one proposed (order line, tank, quantity) tuple.
type AllocationIn struct {
	POItemID string `json:"poItemId" binding:"required"`
	TankID   string `json:"tankId" binding:"required"`
	Quantity string `json:"quantity" binding:"required"`
	Notes    string `json:"notes"`
}

// RecordDeliveryRequest is the payload for recording a new delivery.
type RecordDeliveryRequest struct {
	OrderID     string         `json:"orderId" binding:"required"`
	Date        time.Time      `json:"date" binding:"required"`
	Reference   string         `json:"reference"`
	Notes       string         `json:"notes"`
	Allocations []AllocationIn `json:"allocations" binding:"required,min=1,dive"`
}

// ToInput converts the request into a recorder input.
func (r *RecordDeliveryRequest) ToInput() (delivery.RecordInput, error) {
	orderID, err := id.Parse(r.OrderID)
	if err != nil {
		return delivery.RecordInput{}, apperror.NewValidation("invalid order id").
			WithDetail("value", r.OrderID)
	}

	allocations, err := parseAllocations(r.Allocations)
	if err != nil {
		return delivery.RecordInput{}, err
	}

	return delivery.RecordInput{
		OrderID:     orderID,
		Date:        r.Date,
		Reference:   r.Reference,
		Notes:       r.Notes,
		Allocations: allocations,
	}, nil
}

// EditDeliveryRequest replaces a delivery's allocations wholesale.
// The recorder applies only the per-tank difference.
type EditDeliveryRequest struct {
	Date        time.Time      `json:"date" binding:"required"`
	Reference   string         `json:"reference"`
	Notes       string         `json:"notes"`
	Allocations []AllocationIn `json:"allocations" binding:"required,min=1,dive"`
}

// ToInput converts the request into a recorder edit input.
func (r *EditDeliveryRequest) ToInput() (delivery.EditInput, error) {
	allocations, err := parseAllocations(r.Allocations)
	if err != nil {
		return delivery.EditInput{}, err
	}

	return delivery.EditInput{
		Date:        r.Date,
		Reference:   r.Reference,
		Notes:       r.Notes,
		Allocations: allocations,
	}, nil
}

func parseAllocations(in []AllocationIn) ([]delivery.Allocation, error) {
	allocations := make([]delivery.Allocation, 0, len(in))
	for i, a := range in {
		poItemID, err := id.Parse(a.POItemID)
		if err != nil {
			return nil, apperror.NewValidation("invalid order line id").
				WithDetail("lineNo", i+1).
				WithDetail("value", a.POItemID)
		}

		tankID, err := id.Parse(a.TankID)
		if err != nil {
			return nil, apperror.NewValidation("invalid tank id").
				WithDetail("lineNo", i+1).
				WithDetail("value", a.TankID)
		}

		qty, err := types.NewVolumeFromString(a.Quantity)
		if err != nil {
			return nil, apperror.NewValidation("invalid quantity").
				WithDetail("lineNo", i+1).
				WithDetail("value", a.Quantity)
		}

		allocations = append(allocations, delivery.Allocation{
			POItemID: poItemID,
			TankID:   tankID,
			Quantity: qty,
			Notes:    a.Notes,
		})
	}
	return allocations, nil
}

// DeliveryResponse pairs the committed delivery with any advisory warnings
// raised during validation (capacity overruns).
type DeliveryResponse struct {
	Delivery *delivery.Delivery `json:"delivery"`
	Warnings []delivery.Warning `json:"warnings"`
}
