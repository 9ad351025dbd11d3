package delivery

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"fueldepot/internal/core/apperror"
	appctx "fueldepot/internal/core/context"
	"fueldepot/internal/core/id"
	"fueldepot/internal/core/tx"
	"fueldepot/internal/core/types"
	"fueldepot/internal/domain/catalogs/tank"
	"fueldepot/internal/domain/ledger"
	"fueldepot/internal/domain/orders"
	"fueldepot/pkg/logger"
	"fueldepot/pkg/numerator"
)

// RecordInput is a new delivery submission.
type RecordInput struct {
	OrderID     id.ID
	Date        time.Time
	Reference   string
	Notes       string
	Allocations []Allocation
}

// EditInput is a correction to an existing delivery. Allocations replace the
// prior set wholesale; the recorder applies only the per-tank difference.
type EditInput struct {
	Date        time.Time
	Reference   string
	Notes       string
	Allocations []Allocation
}

// Recorder orchestrates delivery mutations. Every mutation runs as one
// transaction: validate, persist the document, move tank volumes by the
// per-tank delta, append ledger entries, re-derive statuses. Either all of it
// commits or none of it does.
//
// All mutations against one order serialize on the order row lock taken at
// the start of the transaction; tanks are then locked in ascending id order.
type Recorder struct {
	deliveries Repository
	orders     *orders.Service
	tanks      *tank.Service
	ledger     *ledger.Service
	numerator  numerator.Generator
	txManager  tx.Manager
}

// NewRecorder creates a delivery recorder.
func NewRecorder(
	deliveries Repository,
	orderSvc *orders.Service,
	tankSvc *tank.Service,
	ledgerSvc *ledger.Service,
	num numerator.Generator,
	txManager tx.Manager,
) *Recorder {
	return &Recorder{
		deliveries: deliveries,
		orders:     orderSvc,
		tanks:      tankSvc,
		ledger:     ledgerSvc,
		numerator:  num,
		txManager:  txManager,
	}
}

// Record creates a delivery against an order, moves the allocated quantities
// into the tanks and appends one ledger entry per affected tank. Returned
// warnings are advisory (capacity overruns); the delivery is committed
// regardless.
func (r *Recorder) Record(ctx context.Context, in RecordInput) (*Delivery, []Warning, error) {
	var (
		d        *Delivery
		warnings []Warning
	)

	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		order, err := r.orders.GetForUpdate(ctx, in.OrderID)
		if err != nil {
			return err
		}
		if !order.Status.CanReceive() {
			return apperror.NewBusinessRule(
				apperror.CodeOrderNotReceivable,
				fmt.Sprintf("order in status %s cannot receive deliveries", order.Status),
			).WithDetail("order_id", order.ID.String()).
				WithDetail("status", string(order.Status))
		}

		received, err := r.orders.ReceivedQuantities(ctx, order.ID, nil)
		if err != nil {
			return fmt.Errorf("received quantities: %w", err)
		}

		views, err := r.lockTanks(ctx, tankIDs(in.Allocations, nil))
		if err != nil {
			return err
		}

		warnings, err = ValidateAllocations(order.Items, received, in.Allocations, views, nil)
		if err != nil {
			return err
		}

		d = New(order.ID, in.Date, in.Reference)
		d.Notes = in.Notes
		d.CreatedBy = appctx.GetActorID(ctx)
		d.UpdatedBy = d.CreatedBy
		if d.Reference == "" {
			number, err := r.numerator.GetNextNumber(ctx, numerator.DefaultConfig("DLV"), time.Now())
			if err != nil {
				return fmt.Errorf("generate number: %w", err)
			}
			d.Reference = number
		}
		d.Items = buildItems(order, in.Allocations)

		if err := d.Validate(ctx); err != nil {
			return err
		}

		if err := r.deliveries.Create(ctx, d); err != nil {
			return fmt.Errorf("create delivery: %w", err)
		}
		if err := r.deliveries.SaveItems(ctx, d.ID, d.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}

		deltas := diffByTank(nil, quantityByTank(in.Allocations))
		if err := r.applyDeltas(ctx, d.ID, ledger.OperationDelivery, deltas, d.Reference); err != nil {
			return err
		}

		return r.finishMutation(ctx, order, d)
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Info(ctx, "delivery recorded",
		"id", d.ID,
		"order_id", d.OrderID,
		"reference", d.Reference,
		"status", d.Status,
		"warnings", len(warnings),
	)

	return d, warnings, nil
}

// Edit replaces a delivery's allocations and applies only the difference to
// the tanks: a tank whose quantity is unchanged sees no volume movement and
// no ledger entry. Quantities can move down as well as up, so an edit can
// pull an order back from delivered to in_progress.
func (r *Recorder) Edit(ctx context.Context, deliveryID id.ID, in EditInput) (*Delivery, []Warning, error) {
	var (
		d        *Delivery
		warnings []Warning
	)

	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// Read once without the order lock to learn which order to lock,
		// then re-read under the lock for the authoritative prior state.
		head, err := r.deliveries.GetByID(ctx, deliveryID)
		if err != nil {
			return err
		}

		order, err := r.orders.GetForUpdate(ctx, head.OrderID)
		if err != nil {
			return err
		}

		d, err = r.getWithItems(ctx, deliveryID)
		if err != nil {
			return err
		}
		if d.Status == StatusVoided {
			return apperror.NewBusinessRule(
				apperror.CodeDeliveryVoided,
				"voided delivery cannot be edited",
			).WithDetail("delivery_id", deliveryID.String())
		}

		// Prior contribution does not count against its own ceiling.
		receivedExcl, err := r.orders.ReceivedQuantities(ctx, order.ID, &d.ID)
		if err != nil {
			return fmt.Errorf("received quantities: %w", err)
		}

		oldByTank := d.QuantityByTank()
		newByTank := quantityByTank(in.Allocations)

		views, err := r.lockTanks(ctx, tankIDs(in.Allocations, oldByTank))
		if err != nil {
			return err
		}

		warnings, err = ValidateAllocations(order.Items, receivedExcl, in.Allocations, views, oldByTank)
		if err != nil {
			return err
		}

		d.Date = in.Date
		if in.Reference != "" {
			d.Reference = in.Reference
		}
		d.Notes = in.Notes
		d.UpdatedBy = appctx.GetActorID(ctx)
		d.Touch()
		d.Items = buildItems(order, in.Allocations)

		if err := d.Validate(ctx); err != nil {
			return err
		}

		if err := r.deliveries.Update(ctx, d); err != nil {
			return fmt.Errorf("update delivery: %w", err)
		}
		if err := r.deliveries.SaveItems(ctx, d.ID, d.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}

		deltas := diffByTank(oldByTank, newByTank)
		if err := r.applyDeltas(ctx, d.ID, ledger.OperationDelivery, deltas, d.Reference); err != nil {
			return err
		}

		return r.finishMutation(ctx, order, d)
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Info(ctx, "delivery edited",
		"id", d.ID,
		"order_id", d.OrderID,
		"status", d.Status,
		"warnings", len(warnings),
	)

	return d, warnings, nil
}

// Void reverses a delivery in full: every tank it filled is drained by the
// delivered quantity, with matching ledger entries. The delivery document and
// its allocation rows are kept for audit.
func (r *Recorder) Void(ctx context.Context, deliveryID id.ID) (*Delivery, error) {
	var d *Delivery

	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		head, err := r.deliveries.GetByID(ctx, deliveryID)
		if err != nil {
			return err
		}

		order, err := r.orders.GetForUpdate(ctx, head.OrderID)
		if err != nil {
			return err
		}

		d, err = r.getWithItems(ctx, deliveryID)
		if err != nil {
			return err
		}
		if d.Status == StatusVoided {
			return apperror.NewBusinessRule(
				apperror.CodeDeliveryVoided,
				"delivery is already voided",
			).WithDetail("delivery_id", deliveryID.String())
		}

		deltas := diffByTank(d.QuantityByTank(), nil)
		if err := r.applyDeltas(ctx, d.ID, ledger.OperationVoid, deltas, d.Reference); err != nil {
			return err
		}

		d.Status = StatusVoided
		d.UpdatedBy = appctx.GetActorID(ctx)
		d.Touch()
		if err := r.deliveries.Update(ctx, d); err != nil {
			return fmt.Errorf("update delivery: %w", err)
		}

		if _, err := r.orders.RecomputeStatus(ctx, order); err != nil {
			return err
		}
		return r.syncSiblingStatuses(ctx, order, d.ID)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "delivery voided",
		"id", d.ID,
		"order_id", d.OrderID,
	)

	return d, nil
}

// GetByID retrieves a delivery with its allocations.
func (r *Recorder) GetByID(ctx context.Context, deliveryID id.ID) (*Delivery, error) {
	return r.getWithItems(ctx, deliveryID)
}

// List retrieves deliveries with filtering.
func (r *Recorder) List(ctx context.Context, filter ListFilter) ([]*Delivery, error) {
	return r.deliveries.List(ctx, filter)
}

// ListByOrder retrieves all deliveries for an order, voided included.
func (r *Recorder) ListByOrder(ctx context.Context, orderID id.ID) ([]*Delivery, error) {
	return r.deliveries.ListByOrder(ctx, orderID)
}

func (r *Recorder) getWithItems(ctx context.Context, deliveryID id.ID) (*Delivery, error) {
	d, err := r.deliveries.GetByID(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	items, err := r.deliveries.GetItems(ctx, deliveryID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	d.Items = items
	return d, nil
}

// lockTanks row-locks the tanks in ascending id order and returns their
// snapshots. The fixed lock order keeps concurrent deliveries touching
// overlapping tank sets from deadlocking.
func (r *Recorder) lockTanks(ctx context.Context, ids []id.ID) (map[id.ID]TankView, error) {
	views := make(map[id.ID]TankView, len(ids))
	for _, tankID := range ids {
		t, err := r.tanks.GetForUpdate(ctx, tankID)
		if err != nil {
			if apperror.IsNotFound(err) {
				// Unknown tanks fail the whole submission; the validator
				// reports them itemized alongside other violations.
				continue
			}
			return nil, err
		}
		views[t.ID] = TankView{
			ID:            t.ID,
			FuelTypeID:    t.FuelTypeID,
			Capacity:      t.Capacity,
			CurrentVolume: t.CurrentVolume,
		}
	}
	return views, nil
}

// applyDeltas moves tank volumes and appends ledger entries, one per tank
// with a non-negligible delta, in ascending tank id order. Deltas within
// tolerance of zero are skipped entirely: no volume movement, no entry.
func (r *Recorder) applyDeltas(ctx context.Context, deliveryID id.ID, op ledger.OperationType, deltas map[id.ID]types.Volume, notes string) error {
	ids := sortedTankIDs(deltas)

	entries := make([]ledger.Entry, 0, len(ids))
	actor := appctx.GetActorID(ctx)

	for _, tankID := range ids {
		delta := deltas[tankID]
		if types.IsEffectivelyZero(delta) {
			continue
		}

		previous, current, err := r.tanks.ApplyDelta(ctx, tankID, delta)
		if err != nil {
			return err
		}

		entries = append(entries, ledger.NewEntry(
			tankID, op, deliveryID,
			previous, delta, current,
			actor, notes,
		))
	}

	if len(entries) == 0 {
		return nil
	}
	return r.ledger.Append(ctx, entries)
}

// finishMutation re-derives the order status and the delivery statuses from
// the cumulative receipts now on record.
func (r *Recorder) finishMutation(ctx context.Context, order *orders.PurchaseOrder, d *Delivery) error {
	if _, err := r.orders.RecomputeStatus(ctx, order); err != nil {
		return err
	}

	received, err := r.orders.ReceivedQuantities(ctx, order.ID, nil)
	if err != nil {
		return fmt.Errorf("received quantities: %w", err)
	}
	status := deriveDeliveryStatus(order.Items, received)

	if d.Status != status {
		d.Status = status
		if err := r.deliveries.Update(ctx, d); err != nil {
			return fmt.Errorf("update delivery status: %w", err)
		}
	}

	return r.syncSiblingStatuses(ctx, order, d.ID)
}

// syncSiblingStatuses brings the order's other non-voided deliveries in line
// with the aggregate fulfillment state. Delivery status is defined over the
// order's cumulative receipts, so an edit to one delivery can flip another
// between partial and complete.
func (r *Recorder) syncSiblingStatuses(ctx context.Context, order *orders.PurchaseOrder, exclude id.ID) error {
	received, err := r.orders.ReceivedQuantities(ctx, order.ID, nil)
	if err != nil {
		return fmt.Errorf("received quantities: %w", err)
	}
	status := deriveDeliveryStatus(order.Items, received)

	siblings, err := r.deliveries.ListByOrder(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("list deliveries: %w", err)
	}

	for _, sib := range siblings {
		if sib.ID == exclude || sib.Status == StatusVoided || sib.Status == status {
			continue
		}
		sib.Status = status
		if err := r.deliveries.Update(ctx, sib); err != nil {
			return fmt.Errorf("update delivery status: %w", err)
		}
	}
	return nil
}

// deriveDeliveryStatus is complete iff every order line is fully received in
// aggregate, within tolerance.
func deriveDeliveryStatus(items []orders.POItem, received map[id.ID]types.Volume) Status {
	for _, item := range items {
		if received[item.ID].LessThan(item.OrderedQuantity.Sub(types.Epsilon)) {
			return StatusPartial
		}
	}
	return StatusComplete
}

// buildItems materializes allocation rows, snapshotting each line's ordered
// quantity at recording time.
func buildItems(order *orders.PurchaseOrder, allocations []Allocation) []Item {
	items := make([]Item, 0, len(allocations))
	for i, alloc := range allocations {
		item := Item{
			ID:               id.New(),
			LineNo:           i + 1,
			POItemID:         alloc.POItemID,
			TankID:           alloc.TankID,
			QuantityReceived: alloc.Quantity,
			Notes:            alloc.Notes,
		}
		if line := order.Item(alloc.POItemID); line != nil {
			item.FuelTypeID = line.FuelTypeID
			item.QuantityOrdered = line.OrderedQuantity
		}
		items = append(items, item)
	}
	return items
}

func quantityByTank(allocations []Allocation) map[id.ID]types.Volume {
	byTank := make(map[id.ID]types.Volume, len(allocations))
	for _, alloc := range allocations {
		byTank[alloc.TankID] = byTank[alloc.TankID].Add(alloc.Quantity)
	}
	return byTank
}

// diffByTank computes new minus old per tank, over the union of both key
// sets. A tank present only in old gets a negative delta (its quantity was
// removed); present only in new, a positive one.
func diffByTank(oldByTank, newByTank map[id.ID]types.Volume) map[id.ID]types.Volume {
	deltas := make(map[id.ID]types.Volume, len(oldByTank)+len(newByTank))
	for tankID, qty := range newByTank {
		deltas[tankID] = qty.Sub(oldByTank[tankID])
	}
	for tankID, qty := range oldByTank {
		if _, ok := newByTank[tankID]; !ok {
			deltas[tankID] = qty.Neg()
		}
	}
	return deltas
}

// tankIDs returns the union of allocation tanks and prior tanks, ascending.
func tankIDs(allocations []Allocation, prior map[id.ID]types.Volume) []id.ID {
	seen := make(map[id.ID]struct{}, len(allocations)+len(prior))
	for _, alloc := range allocations {
		seen[alloc.TankID] = struct{}{}
	}
	for tankID := range prior {
		seen[tankID] = struct{}{}
	}

	ids := make([]id.ID, 0, len(seen))
	for tankID := range seen {
		ids = append(ids, tankID)
	}
	sortIDs(ids)
	return ids
}

func sortedTankIDs(deltas map[id.ID]types.Volume) []id.ID {
	ids := make([]id.ID, 0, len(deltas))
	for tankID := range deltas {
		ids = append(ids, tankID)
	}
	sortIDs(ids)
	return ids
}

func sortIDs(ids []id.ID) {
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
}
