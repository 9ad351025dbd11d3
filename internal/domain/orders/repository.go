package orders

import (
	"context"
	"time"

	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
)

// Repository defines storage operations for purchase orders.
type Repository interface {
	Create(ctx context.Context, order *PurchaseOrder) error
	GetByID(ctx context.Context, orderID id.ID) (*PurchaseOrder, error)
	GetByNumber(ctx context.Context, number string) (*PurchaseOrder, error)
	Update(ctx context.Context, order *PurchaseOrder) error

	GetItems(ctx context.Context, orderID id.ID) ([]POItem, error)
	SaveItems(ctx context.Context, orderID id.ID, items []POItem) error

	List(ctx context.Context, filter ListFilter) ([]*PurchaseOrder, error)

	// GetForUpdate retrieves an order with a pessimistic row lock. This is
	// the order-scoped lock that serializes concurrent deliveries against
	// the same order: the remaining-quantity read and the delivery write
	// happen while the lock is held.
	GetForUpdate(ctx context.Context, orderID id.ID) (*PurchaseOrder, error)

	// UpdateStatus writes only the status field.
	UpdateStatus(ctx context.Context, orderID id.ID, status Status) error

	// ReceivedQuantities sums quantity_received per PO item across all
	// non-voided deliveries of the order. When excludeDeliveryID is set,
	// that delivery's own contribution is left out (used while editing it).
	ReceivedQuantities(ctx context.Context, orderID id.ID, excludeDeliveryID *id.ID) (map[id.ID]types.Volume, error)

	// DeliveryCount returns the number of non-voided deliveries for an order.
	DeliveryCount(ctx context.Context, orderID id.ID) (int, error)
}

// ListFilter for filtering purchase orders.
type ListFilter struct {
	SupplierID *id.ID
	Status     *Status
	DateFrom   *time.Time
	DateTo     *time.Time
	Limit      int
	Offset     int
}
