// Package orders provides the PurchaseOrder document and the order ledger:
// the read side for ordered vs. received quantities and the status
// derivation that runs after every delivery create/edit/void.
package orders

import (
	"context"
	"time"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/entity"
	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
)

// Status represents the lifecycle state of a purchase order.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusSubmitted  Status = "submitted"
	StatusApproved   Status = "approved"
	StatusInProgress Status = "in_progress"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// IsValid checks if the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusInProgress,
		StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status.
// in_progress and delivered flow both ways: a downward delivery correction
// re-opens a delivered order.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusDraft:
		return target == StatusSubmitted || target == StatusCancelled
	case StatusSubmitted:
		return target == StatusApproved || target == StatusCancelled
	case StatusApproved:
		return target == StatusInProgress || target == StatusDelivered || target == StatusCancelled
	case StatusInProgress:
		return target == StatusDelivered || target == StatusApproved
	case StatusDelivered:
		return target == StatusInProgress
	case StatusCancelled:
		return false
	}
	return false
}

// CanReceive returns true if deliveries may be recorded against this status.
func (s Status) CanReceive() bool {
	return s == StatusApproved || s == StatusInProgress || s == StatusDelivered
}

// PurchaseOrder represents a requested purchase of fuel, broken into
// per-fuel-type lines with ordered quantities. Orders are authored
// externally; this engine only ever writes the status field.
type PurchaseOrder struct {
	entity.BaseDocument

	// Number is the document number (auto-generated, unique)
	Number string `db:"number" json:"number"`

	// Date is the business date of the order
	Date time.Time `db:"date" json:"date"`

	SupplierID id.ID  `db:"supplier_id" json:"supplierId"`
	Status     Status `db:"status" json:"status"`

	// TotalAmount is derived: the sum of line invoice values
	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`

	Comment string `db:"comment" json:"comment,omitempty"`

	// Items is the table part (loaded separately)
	Items []POItem `db:"-" json:"items"`
}

// POItem represents one ordered fuel line.
type POItem struct {
	ID     id.ID `db:"id" json:"id"`
	LineNo int   `db:"line_no" json:"lineNo"`

	FuelTypeID id.ID `db:"fuel_type_id" json:"fuelTypeId"`

	OrderedQuantity types.Volume `db:"ordered_quantity" json:"orderedQuantity"`
	UnitPrice       types.Money  `db:"unit_price" json:"unitPrice"`
	InvoiceValue    types.Money  `db:"invoice_value" json:"invoiceValue"`
}

// New creates a new PurchaseOrder in draft.
func New(supplierID id.ID, date time.Time) *PurchaseOrder {
	return &PurchaseOrder{
		BaseDocument: entity.NewBaseDocument(),
		Date:         date,
		SupplierID:   supplierID,
		Status:       StatusDraft,
		TotalAmount:  types.Zero(),
		Items:        make([]POItem, 0),
	}
}

// AddItem adds a fuel line and recalculates the order total.
func (o *PurchaseOrder) AddItem(fuelTypeID id.ID, quantity types.Volume, unitPrice types.Money) {
	item := POItem{
		ID:              id.New(),
		LineNo:          len(o.Items) + 1,
		FuelTypeID:      fuelTypeID,
		OrderedQuantity: quantity,
		UnitPrice:       unitPrice,
		InvoiceValue:    quantity.Mul(unitPrice),
	}

	o.Items = append(o.Items, item)
	o.recalculateTotal()
}

func (o *PurchaseOrder) recalculateTotal() {
	o.TotalAmount = types.Zero()
	for _, item := range o.Items {
		o.TotalAmount = o.TotalAmount.Add(item.InvoiceValue)
	}
}

// Item returns the line with the given ID, or nil.
func (o *PurchaseOrder) Item(poItemID id.ID) *POItem {
	for i := range o.Items {
		if o.Items[i].ID == poItemID {
			return &o.Items[i]
		}
	}
	return nil
}

// Validate implements entity.Validatable.
func (o *PurchaseOrder) Validate(ctx context.Context) error {
	if id.IsNil(o.SupplierID) {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
	}

	if o.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}

	if !o.Status.IsValid() {
		return apperror.NewValidation("invalid order status").
			WithDetail("value", string(o.Status))
	}

	if len(o.Items) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "items")
	}

	for i, item := range o.Items {
		if id.IsNil(item.FuelTypeID) {
			return apperror.NewValidation("fuel type is required").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.OrderedQuantity.IsNegative() {
			return apperror.NewValidation("ordered quantity cannot be negative").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit price cannot be negative").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// ItemFulfillment is the per-line fulfillment view of an order.
type ItemFulfillment struct {
	POItemID   id.ID `json:"poItemId"`
	LineNo     int   `json:"lineNo"`
	FuelTypeID id.ID `json:"fuelTypeId"`

	Ordered   types.Volume `json:"ordered"`
	Received  types.Volume `json:"received"`
	Remaining types.Volume `json:"remaining"`
}
