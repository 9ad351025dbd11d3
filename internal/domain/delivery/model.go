// Package delivery provides the Delivery document and the recorder: the
// orchestration that turns a delivery submission (new or edit) into tank
// volume deltas, ledger entries and derived statuses, atomically.
package delivery

import (
	"context"
	"time"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/entity"
	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
)

// Status represents the fulfillment state of a delivery.
type Status string

const (
	// StatusPending is the state before the first recording completes.
	StatusPending Status = "pending"
	// StatusPartial means the order's lines are not yet fully received in aggregate.
	StatusPartial Status = "partial"
	// StatusComplete means every order line is fully received in aggregate.
	StatusComplete Status = "complete"
	// StatusVoided means the delivery's contribution was reversed in full.
	StatusVoided Status = "voided"
)

// Delivery represents one physical receipt event against a purchase order.
// Deliveries are editable after creation; corrections are applied as deltas
// against the tanks, never as delete-and-reapply.
type Delivery struct {
	entity.BaseDocument

	OrderID id.ID `db:"order_id" json:"orderId"`

	// Date is the physical receipt date
	Date time.Time `db:"date" json:"date"`

	// Reference is the delivery note / waybill number
	Reference string `db:"reference" json:"reference"`

	Status Status `db:"status" json:"status"`
	Notes  string `db:"notes" json:"notes,omitempty"`

	// Items is the table part: per-tank allocations (loaded separately).
	// On edit the rows are replaced wholesale; the ledger keeps the history.
	Items []Item `db:"-" json:"items"`
}

// Item is one per-tank allocation within a delivery.
type Item struct {
	ID     id.ID `db:"id" json:"id"`
	LineNo int   `db:"line_no" json:"lineNo"`

	POItemID   id.ID `db:"po_item_id" json:"poItemId"`
	TankID     id.ID `db:"tank_id" json:"tankId"`
	FuelTypeID id.ID `db:"fuel_type_id" json:"fuelTypeId"`

	// QuantityOrdered snapshots the PO line's ordered quantity at recording
	// time, for audit. The live value stays on the PO line.
	QuantityOrdered  types.Volume `db:"quantity_ordered" json:"quantityOrdered"`
	QuantityReceived types.Volume `db:"quantity_received" json:"quantityReceived"`

	Notes string `db:"notes" json:"notes,omitempty"`
}

// New creates a new pending delivery for an order.
func New(orderID id.ID, date time.Time, reference string) *Delivery {
	return &Delivery{
		BaseDocument: entity.NewBaseDocument(),
		OrderID:      orderID,
		Date:         date,
		Reference:    reference,
		Status:       StatusPending,
		Items:        make([]Item, 0),
	}
}

// Validate implements entity.Validatable.
func (d *Delivery) Validate(ctx context.Context) error {
	if id.IsNil(d.OrderID) {
		return apperror.NewValidation("order is required").
			WithDetail("field", "orderId")
	}

	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}

	if len(d.Items) == 0 {
		return apperror.NewValidation("at least one allocation is required").
			WithDetail("field", "items")
	}

	for i, item := range d.Items {
		if id.IsNil(item.POItemID) {
			return apperror.NewValidation("order line is required").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if id.IsNil(item.TankID) {
			return apperror.NewValidation("tank is required").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// QuantityByTank folds the delivery's allocations into a per-tank map.
// This is the "old" side of the three-way diff on edit.
func (d *Delivery) QuantityByTank() map[id.ID]types.Volume {
	byTank := make(map[id.ID]types.Volume, len(d.Items))
	for _, item := range d.Items {
		byTank[item.TankID] = byTank[item.TankID].Add(item.QuantityReceived)
	}
	return byTank
}
