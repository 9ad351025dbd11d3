// Package tank provides the Tank catalog: physical storage vessels with a
// bounded capacity and a tracked current volume. The service here is the
// only component permitted to mutate a tank's volume.
package tank

import (
	"context"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/entity"
	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
)

// Tank represents a physical storage tank. A tank holds exactly one fuel type.
type Tank struct {
	entity.Catalog

	// FuelTypeID is the single fuel type this tank holds
	FuelTypeID id.ID `db:"fuel_type_id" json:"fuelTypeId"`

	// Capacity is the nominal capacity in litres (> 0)
	Capacity types.Volume `db:"capacity" json:"capacity"`

	// CurrentVolume is the cached projection of the tank's ledger.
	// The capacity ceiling is advisory: physical tanks are sometimes
	// topped slightly over nominal capacity.
	CurrentVolume types.Volume `db:"current_volume" json:"currentVolume"`

	// IsActive indicates if the tank is in service
	IsActive bool `db:"is_active" json:"isActive"`

	// Location is an optional free-text site reference
	Location *string `db:"location" json:"location,omitempty"`
}

// New creates a new Tank.
func New(code, name string, fuelTypeID id.ID, capacity types.Volume) *Tank {
	return &Tank{
		Catalog:       entity.NewCatalog(code, name),
		FuelTypeID:    fuelTypeID,
		Capacity:      capacity,
		CurrentVolume: types.Zero(),
		IsActive:      true,
	}
}

// Validate implements entity.Validatable.
func (t *Tank) Validate(ctx context.Context) error {
	if err := t.Catalog.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(t.FuelTypeID) {
		return apperror.NewValidation("fuel type is required").
			WithDetail("field", "fuelTypeId")
	}

	if !t.Capacity.IsPositive() {
		return apperror.NewValidation("capacity must be positive").
			WithDetail("field", "capacity").
			WithDetail("value", t.Capacity.String())
	}

	if t.CurrentVolume.IsNegative() {
		return apperror.NewValidation("current volume cannot be negative").
			WithDetail("field", "currentVolume").
			WithDetail("value", t.CurrentVolume.String())
	}

	return nil
}

// Headroom returns the remaining nominal capacity. May be negative when the
// tank was topped over nominal capacity.
func (t *Tank) Headroom() types.Volume {
	return t.Capacity.Sub(t.CurrentVolume)
}

// CanReceive returns true if the tank can accept fuel of the given type.
func (t *Tank) CanReceive(fuelTypeID id.ID) bool {
	return t.IsActive && t.FuelTypeID == fuelTypeID
}
