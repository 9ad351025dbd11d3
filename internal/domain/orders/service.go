package orders

import (
	"context"
	"fmt"
	"time"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/core/tx"
	"fueldepot/internal/core/types"
	"fueldepot/pkg/logger"
	"fueldepot/pkg/numerator"
)

// Service provides business operations for purchase orders, including the
// order ledger reads (remaining quantity, fulfillment) and the status
// derivation the delivery recorder invokes after every mutation.
type Service struct {
	repo      Repository
	numerator numerator.Generator
	txManager tx.Manager
}

// NewService creates a new purchase order service.
func NewService(repo Repository, num numerator.Generator, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		numerator: num,
		txManager: txManager,
	}
}

// Create persists a new draft order with its lines.
func (s *Service) Create(ctx context.Context, order *PurchaseOrder) error {
	if err := order.Validate(ctx); err != nil {
		return err
	}

	if order.Number == "" {
		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("PO"), time.Now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		order.Number = number
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := s.repo.SaveItems(ctx, order.ID, order.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "purchase order created",
		"id", order.ID,
		"number", order.Number,
		"lines", len(order.Items),
	)

	return nil
}

// GetByID retrieves an order with its lines.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*PurchaseOrder, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	order.Items = items

	return order, nil
}

// List retrieves orders with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*PurchaseOrder, error) {
	return s.repo.List(ctx, filter)
}

// Transition moves an order through its authoring lifecycle
// (draft -> submitted -> approved, or cancelled).
func (s *Service) Transition(ctx context.Context, orderID id.ID, target Status) error {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	if !order.Status.CanTransitionTo(target) {
		return apperror.NewBusinessRule(
			apperror.CodeBusinessRule,
			fmt.Sprintf("cannot transition order from %s to %s", order.Status, target),
		).WithDetail("order_id", orderID.String())
	}

	if err := s.repo.UpdateStatus(ctx, orderID, target); err != nil {
		return err
	}

	logger.Info(ctx, "order status changed",
		"id", orderID,
		"from", order.Status,
		"to", target,
	)

	return nil
}

// Fulfillment returns the per-line {ordered, received, remaining} view.
// Remaining is clamped at zero: overshoot within tolerance does not show
// as negative remaining.
func (s *Service) Fulfillment(ctx context.Context, orderID id.ID) ([]ItemFulfillment, error) {
	order, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	received, err := s.repo.ReceivedQuantities(ctx, orderID, nil)
	if err != nil {
		return nil, fmt.Errorf("received quantities: %w", err)
	}

	result := make([]ItemFulfillment, 0, len(order.Items))
	for _, item := range order.Items {
		rec := received[item.ID]
		remaining := item.OrderedQuantity.Sub(rec)
		if remaining.IsNegative() {
			remaining = types.Zero()
		}
		result = append(result, ItemFulfillment{
			POItemID:   item.ID,
			LineNo:     item.LineNo,
			FuelTypeID: item.FuelTypeID,
			Ordered:    item.OrderedQuantity,
			Received:   rec,
			Remaining:  remaining,
		})
	}

	return result, nil
}

// RemainingQuantity returns ordered - received for a single line.
func (s *Service) RemainingQuantity(ctx context.Context, orderID, poItemID id.ID) (types.Volume, error) {
	fulfillment, err := s.Fulfillment(ctx, orderID)
	if err != nil {
		return types.Zero(), err
	}
	for _, f := range fulfillment {
		if f.POItemID == poItemID {
			return f.Remaining, nil
		}
	}
	return types.Zero(), apperror.NewNotFound("po_item", poItemID.String())
}

// DeriveStatus computes the order status from cumulative receipts:
// every line fully received (within tolerance) means delivered; at least one
// delivery on record means in_progress; otherwise the status is unchanged.
// Pure function: no side effects.
func DeriveStatus(order *PurchaseOrder, received map[id.ID]types.Volume, deliveryCount int) Status {
	if deliveryCount == 0 || len(order.Items) == 0 {
		// Voiding every delivery returns the order to approved.
		if order.Status == StatusInProgress || order.Status == StatusDelivered {
			return StatusApproved
		}
		return order.Status
	}

	for _, item := range order.Items {
		if !fullyReceived(item, received[item.ID]) {
			return StatusInProgress
		}
	}
	return StatusDelivered
}

func fullyReceived(item POItem, received types.Volume) bool {
	// received >= ordered - ε
	return received.GreaterThanOrEqual(item.OrderedQuantity.Sub(types.Epsilon))
}

// RecomputeStatus re-derives and persists the order status. Called by the
// delivery recorder inside its transaction, after the order row has been
// locked and the delivery changes written.
func (s *Service) RecomputeStatus(ctx context.Context, order *PurchaseOrder) (Status, error) {
	received, err := s.repo.ReceivedQuantities(ctx, order.ID, nil)
	if err != nil {
		return order.Status, fmt.Errorf("received quantities: %w", err)
	}

	count, err := s.repo.DeliveryCount(ctx, order.ID)
	if err != nil {
		return order.Status, fmt.Errorf("delivery count: %w", err)
	}

	status := DeriveStatus(order, received, count)
	if status == order.Status {
		return status, nil
	}

	if err := s.repo.UpdateStatus(ctx, order.ID, status); err != nil {
		return order.Status, fmt.Errorf("update status: %w", err)
	}

	logger.Info(ctx, "order status derived",
		"id", order.ID,
		"from", order.Status,
		"to", status,
	)

	order.Status = status
	return status, nil
}

// --- internal accessors used by the delivery recorder ---

// GetForUpdate loads an order with its lines under the order-scoped lock.
func (s *Service) GetForUpdate(ctx context.Context, orderID id.ID) (*PurchaseOrder, error) {
	order, err := s.repo.GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	order.Items = items

	return order, nil
}

// ReceivedQuantities exposes the repository read for the recorder's
// validation pass.
func (s *Service) ReceivedQuantities(ctx context.Context, orderID id.ID, excludeDeliveryID *id.ID) (map[id.ID]types.Volume, error) {
	return s.repo.ReceivedQuantities(ctx, orderID, excludeDeliveryID)
}
