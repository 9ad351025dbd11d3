package tank

import (
	"context"

	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
)

// Repository defines storage operations for tanks.
type Repository interface {
	Create(ctx context.Context, t *Tank) error
	GetByID(ctx context.Context, tankID id.ID) (*Tank, error)
	GetByCode(ctx context.Context, code string) (*Tank, error)
	Update(ctx context.Context, t *Tank) error
	List(ctx context.Context, filter ListFilter) ([]*Tank, error)

	// GetForUpdate retrieves a tank with a pessimistic row lock.
	// Callers must lock tanks in ascending ID order to avoid deadlocks
	// between deliveries touching overlapping tank sets.
	GetForUpdate(ctx context.Context, tankID id.ID) (*Tank, error)

	// SetVolume writes the new cached volume for a tank previously locked
	// with GetForUpdate, within the same transaction.
	SetVolume(ctx context.Context, tankID id.ID, volume types.Volume) error
}

// ListFilter for filtering tanks.
type ListFilter struct {
	FuelTypeID *id.ID
	ActiveOnly bool
}
