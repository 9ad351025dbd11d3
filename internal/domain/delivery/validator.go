package delivery

import (
	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
	"fueldepot/internal/domain/orders"
)

// Allocation is one proposed (order line, tank, quantity) tuple in a
// delivery submission.
type Allocation struct {
	POItemID id.ID
	TankID   id.ID
	Quantity types.Volume
	Notes    string
}

// TankView is the read-only tank snapshot the validator works against.
type TankView struct {
	ID            id.ID
	FuelTypeID    id.ID
	Capacity      types.Volume
	CurrentVolume types.Volume
}

// Warning is a non-blocking advisory surfaced to the caller. The operation
// proceeds; the caller may prompt for confirmation.
type Warning struct {
	TankID   id.ID        `json:"tankId"`
	Message  string       `json:"message"`
	Headroom types.Volume `json:"headroom"`
	Proposed types.Volume `json:"proposed"`
}

// ValidateAllocations checks a proposed allocation set against the order's
// remaining quantities and the tanks' fuel types. Pure function: no side
// effects, all state passed in.
//
// alreadyReceived holds per-line sums across all deliveries of the order,
// excluding the delivery being edited (so its own prior contribution does
// not count against itself). superseded holds the per-tank quantity being
// replaced by the edit; it is added back to tank headroom before the
// capacity check.
//
// Returns capacity warnings (advisory, never blocking) and an error listing
// every violation found.
func ValidateAllocations(
	items []orders.POItem,
	alreadyReceived map[id.ID]types.Volume,
	allocations []Allocation,
	tanks map[id.ID]TankView,
	superseded map[id.ID]types.Volume,
) ([]Warning, error) {
	byItem := make(map[id.ID]orders.POItem, len(items))
	for _, item := range items {
		byItem[item.ID] = item
	}

	var violations []map[string]any
	proposedByItem := make(map[id.ID]types.Volume)
	proposedByTank := make(map[id.ID]types.Volume)
	total := types.Zero()

	for i, alloc := range allocations {
		if alloc.Quantity.IsNegative() {
			violations = append(violations, map[string]any{
				"code":     "negative_quantity",
				"line_no":  i + 1,
				"quantity": alloc.Quantity.String(),
			})
			continue
		}

		item, ok := byItem[alloc.POItemID]
		if !ok {
			violations = append(violations, map[string]any{
				"code":       "unknown_order_line",
				"line_no":    i + 1,
				"po_item_id": alloc.POItemID.String(),
			})
			continue
		}

		tank, ok := tanks[alloc.TankID]
		if !ok {
			violations = append(violations, map[string]any{
				"code":    "unknown_tank",
				"line_no": i + 1,
				"tank_id": alloc.TankID.String(),
			})
			continue
		}

		if tank.FuelTypeID != item.FuelTypeID {
			violations = append(violations, map[string]any{
				"code":           "fuel_type_mismatch",
				"line_no":        i + 1,
				"tank_id":        alloc.TankID.String(),
				"tank_fuel_type": tank.FuelTypeID.String(),
				"item_fuel_type": item.FuelTypeID.String(),
			})
			continue
		}

		proposedByItem[alloc.POItemID] = proposedByItem[alloc.POItemID].Add(alloc.Quantity)
		proposedByTank[alloc.TankID] = proposedByTank[alloc.TankID].Add(alloc.Quantity)
		total = total.Add(alloc.Quantity)
	}

	// Ordered-quantity ceiling, per order line.
	for _, item := range items {
		proposed, ok := proposedByItem[item.ID]
		if !ok {
			continue
		}
		received := alreadyReceived[item.ID]
		if types.ExceedsCeiling(received.Add(proposed), item.OrderedQuantity) {
			violations = append(violations, map[string]any{
				"code":             "ordered_quantity_exceeded",
				"po_item_id":       item.ID.String(),
				"line_no":          item.LineNo,
				"ordered":          item.OrderedQuantity.String(),
				"already_received": received.String(),
				"proposed":         proposed.String(),
				"excess":           received.Add(proposed).Sub(item.OrderedQuantity).String(),
			})
		}
	}

	if len(violations) > 0 {
		return nil, allocationError(violations)
	}

	// A delivery must record a strictly positive quantity somewhere.
	if !total.GreaterThan(types.Epsilon) {
		return nil, apperror.NewBusinessRule(
			apperror.CodeEmptyDelivery,
			"delivery must receive a positive quantity on at least one line",
		)
	}

	// Capacity is advisory only: physical tanks are sometimes topped
	// slightly over nominal capacity, so overruns warn, never block.
	var warnings []Warning
	for tankID, proposed := range proposedByTank {
		tank := tanks[tankID]
		headroom := tank.Capacity.Sub(tank.CurrentVolume).Add(superseded[tankID])
		if proposed.GreaterThan(headroom.Add(types.Epsilon)) {
			warnings = append(warnings, Warning{
				TankID:   tankID,
				Message:  "proposed quantity exceeds tank headroom",
				Headroom: headroom,
				Proposed: proposed,
			})
		}
	}

	return warnings, nil
}

// allocationError builds the itemized validation error. A single violation
// keeps its specific code; multiple violations aggregate under a generic
// validation code with the full list in details.
func allocationError(violations []map[string]any) *apperror.AppError {
	if len(violations) == 1 {
		v := violations[0]
		switch v["code"] {
		case "ordered_quantity_exceeded":
			return apperror.NewOrderQuantityExceeded(
				v["po_item_id"].(string),
				v["ordered"].(string),
				v["already_received"].(string),
				v["proposed"].(string),
			).WithDetail("excess", v["excess"])
		case "fuel_type_mismatch":
			return apperror.NewFuelTypeMismatch(
				v["tank_id"].(string),
				v["tank_fuel_type"].(string),
				v["item_fuel_type"].(string),
			)
		}
	}

	err := apperror.NewValidation("delivery allocation is invalid")
	err.WithDetail("violations", violations)
	return err
}
