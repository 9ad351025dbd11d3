package delivery

import (
	"context"
	"time"

	"fueldepot/internal/core/id"
)

// Repository defines storage operations for deliveries.
type Repository interface {
	Create(ctx context.Context, d *Delivery) error
	GetByID(ctx context.Context, deliveryID id.ID) (*Delivery, error)
	Update(ctx context.Context, d *Delivery) error

	GetItems(ctx context.Context, deliveryID id.ID) ([]Item, error)

	// SaveItems replaces the delivery's allocation rows with the new set.
	// Prior rows are superseded, not kept: the inventory ledger carries the
	// historical record.
	SaveItems(ctx context.Context, deliveryID id.ID, items []Item) error

	ListByOrder(ctx context.Context, orderID id.ID) ([]*Delivery, error)
	List(ctx context.Context, filter ListFilter) ([]*Delivery, error)
}

// ListFilter for filtering deliveries.
type ListFilter struct {
	OrderID  *id.ID
	Status   *Status
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}
