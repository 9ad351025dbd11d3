package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/domain/delivery"
	"fueldepot/internal/infrastructure/storage/postgres"
)

var deliveryColumns = []string{
	"id", "version", "order_id", "date", "reference", "status", "notes",
	"created_at", "updated_at", "created_by", "updated_by",
}

// DeliveryRepo implements delivery.Repository.
type DeliveryRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewDeliveryRepo creates a new delivery repository.
func NewDeliveryRepo(txm *postgres.TxManager) *DeliveryRepo {
	return &DeliveryRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new delivery header.
func (r *DeliveryRepo) Create(ctx context.Context, d *delivery.Delivery) error {
	q := r.builder.Insert(deliveriesTable).
		Columns(deliveryColumns...).
		Values(
			d.ID, d.Version, d.OrderID, d.Date, d.Reference, d.Status, d.Notes,
			d.CreatedAt, d.UpdatedAt, d.CreatedBy, d.UpdatedBy,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("delivery", "reference", d.Reference)
		}
		return fmt.Errorf("insert delivery: %w", err)
	}

	return nil
}

// GetByID retrieves a delivery header by ID.
func (r *DeliveryRepo) GetByID(ctx context.Context, deliveryID id.ID) (*delivery.Delivery, error) {
	q := r.builder.Select(deliveryColumns...).From(deliveriesTable).
		Where(squirrel.Eq{"id": deliveryID}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var d delivery.Delivery
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &d, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("delivery", deliveryID.String())
		}
		return nil, fmt.Errorf("get delivery: %w", err)
	}

	return &d, nil
}

// Update persists header changes with optimistic locking.
func (r *DeliveryRepo) Update(ctx context.Context, d *delivery.Delivery) error {
	prevVersion := d.Version
	d.Touch()

	q := r.builder.Update(deliveriesTable).
		Set("version", d.Version).
		Set("date", d.Date).
		Set("reference", d.Reference).
		Set("status", d.Status).
		Set("notes", d.Notes).
		Set("updated_at", d.UpdatedAt).
		Set("updated_by", d.UpdatedBy).
		Where(squirrel.Eq{"id": d.ID, "version": prevVersion})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update delivery: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("delivery", d.ID.String())
	}

	return nil
}

// GetItems retrieves allocation rows, in line order.
func (r *DeliveryRepo) GetItems(ctx context.Context, deliveryID id.ID) ([]delivery.Item, error) {
	q := r.builder.Select(
		"id", "line_no", "po_item_id", "tank_id", "fuel_type_id",
		"quantity_ordered", "quantity_received", "notes",
	).From(deliveryItemsTable).
		Where(squirrel.Eq{"delivery_id": deliveryID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []delivery.Item
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}

	return items, nil
}

// SaveItems replaces the delivery's allocation rows (delete existing +
// insert new). The ledger carries the historical record.
func (r *DeliveryRepo) SaveItems(ctx context.Context, deliveryID id.ID, items []delivery.Item) error {
	querier := r.txm.GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + deliveryItemsTable + " WHERE delivery_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, deliveryID); err != nil {
		return fmt.Errorf("delete existing items: %w", err)
	}

	if len(items) == 0 {
		return nil
	}

	q := r.builder.Insert(deliveryItemsTable).
		Columns(
			"id", "delivery_id", "line_no", "po_item_id", "tank_id", "fuel_type_id",
			"quantity_ordered", "quantity_received", "notes",
		)

	for _, item := range items {
		q = q.Values(
			item.ID, deliveryID, item.LineNo, item.POItemID, item.TankID, item.FuelTypeID,
			item.QuantityOrdered, item.QuantityReceived, item.Notes,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert items: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}

	return nil
}

// ListByOrder retrieves all deliveries for an order, voided included,
// oldest first.
func (r *DeliveryRepo) ListByOrder(ctx context.Context, orderID id.ID) ([]*delivery.Delivery, error) {
	q := r.builder.Select(deliveryColumns...).From(deliveriesTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*delivery.Delivery
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select deliveries: %w", err)
	}

	return items, nil
}

// List retrieves deliveries with filtering.
func (r *DeliveryRepo) List(ctx context.Context, filter delivery.ListFilter) ([]*delivery.Delivery, error) {
	q := r.builder.Select(deliveryColumns...).From(deliveriesTable)

	if filter.OrderID != nil {
		q = q.Where(squirrel.Eq{"order_id": *filter.OrderID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}

	q = q.OrderBy("date DESC", "created_at DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*delivery.Delivery
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select deliveries: %w", err)
	}

	return items, nil
}

var _ delivery.Repository = (*DeliveryRepo)(nil)
