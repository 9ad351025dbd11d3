// Package ledger provides the append-only tank inventory ledger.
// Every volume change to every tank is recorded here; entries are never
// updated or deleted. A tank's current volume is a cached projection that
// must always be re-derivable by replaying its entries.
package ledger

import (
	"context"
	"time"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
)

// OperationType classifies what caused a volume change.
type OperationType string

const (
	// OperationDelivery is a receipt or correction applied by the delivery recorder.
	OperationDelivery OperationType = "delivery"
	// OperationVoid reverses a delivery's contribution in full.
	OperationVoid OperationType = "void"
	// OperationAdjustment is a manual correction (dip-stick reading, spillage).
	OperationAdjustment OperationType = "adjustment"
	// OperationOpening seeds a tank's initial volume at registration.
	OperationOpening OperationType = "opening"
)

// Entry is one immutable volume change for one tank.
type Entry struct {
	ID id.ID `db:"id" json:"id"`

	TankID        id.ID         `db:"tank_id" json:"tankId"`
	OperationType OperationType `db:"operation_type" json:"operationType"`

	// ReferenceID points at the causing document (delivery ID for
	// delivery/void entries, Nil for manual adjustments).
	ReferenceID id.ID `db:"reference_id" json:"referenceId"`

	PreviousVolume types.Volume `db:"previous_volume" json:"previousVolume"`
	ChangeAmount   types.Volume `db:"change_amount" json:"changeAmount"`
	NewVolume      types.Volume `db:"new_volume" json:"newVolume"`

	RecordedAt time.Time `db:"recorded_at" json:"recordedAt"`
	Actor      string    `db:"actor" json:"actor"`
	Notes      string    `db:"notes" json:"notes,omitempty"`
}

// NewEntry creates a ledger entry for an applied volume delta.
func NewEntry(
	tankID id.ID,
	op OperationType,
	referenceID id.ID,
	previous, change, current types.Volume,
	actor, notes string,
) Entry {
	return Entry{
		ID:             id.New(),
		TankID:         tankID,
		OperationType:  op,
		ReferenceID:    referenceID,
		PreviousVolume: previous,
		ChangeAmount:   change,
		NewVolume:      current,
		RecordedAt:     time.Now().UTC(),
		Actor:          actor,
		Notes:          notes,
	}
}

// Validate checks the entry's internal chain invariant:
// new_volume = previous_volume + change_amount, exactly.
func (e *Entry) Validate(ctx context.Context) error {
	if id.IsNil(e.TankID) {
		return apperror.NewValidation("tank is required").
			WithDetail("field", "tankId")
	}

	if !e.PreviousVolume.Add(e.ChangeAmount).Equal(e.NewVolume) {
		return apperror.NewValidation("ledger entry volumes do not reconcile").
			WithDetail("previous", e.PreviousVolume.String()).
			WithDetail("change", e.ChangeAmount.String()).
			WithDetail("new", e.NewVolume.String())
	}

	switch e.OperationType {
	case OperationDelivery, OperationVoid, OperationAdjustment, OperationOpening:
	default:
		return apperror.NewValidation("unknown operation type").
			WithDetail("value", string(e.OperationType))
	}

	return nil
}
