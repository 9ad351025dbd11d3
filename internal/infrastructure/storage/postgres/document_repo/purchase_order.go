// Package document_repo provides PostgreSQL implementations for document
// repositories.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
	"fueldepot/internal/domain/orders"
	"fueldepot/internal/infrastructure/storage/postgres"
)

const (
	purchaseOrdersTable     = "doc_purchase_orders"
	purchaseOrderItemsTable = "doc_purchase_order_items"
	deliveriesTable         = "doc_deliveries"
	deliveryItemsTable      = "doc_delivery_items"
)

var purchaseOrderColumns = []string{
	"id", "version", "number", "date", "supplier_id", "status",
	"total_amount", "comment",
	"created_at", "updated_at", "created_by", "updated_by",
}

// PurchaseOrderRepo implements orders.Repository.
type PurchaseOrderRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewPurchaseOrderRepo creates a new purchase order repository.
func NewPurchaseOrderRepo(txm *postgres.TxManager) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new purchase order header.
func (r *PurchaseOrderRepo) Create(ctx context.Context, order *orders.PurchaseOrder) error {
	q := r.builder.Insert(purchaseOrdersTable).
		Columns(purchaseOrderColumns...).
		Values(
			order.ID, order.Version, order.Number, order.Date, order.SupplierID, order.Status,
			order.TotalAmount, order.Comment,
			order.CreatedAt, order.UpdatedAt, order.CreatedBy, order.UpdatedBy,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("purchase_order", "number", order.Number)
		}
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

// GetByID retrieves an order header by ID.
func (r *PurchaseOrderRepo) GetByID(ctx context.Context, orderID id.ID) (*orders.PurchaseOrder, error) {
	return r.getOne(ctx, squirrel.Eq{"id": orderID}, orderID.String(), false)
}

// GetByNumber retrieves an order header by document number.
func (r *PurchaseOrderRepo) GetByNumber(ctx context.Context, number string) (*orders.PurchaseOrder, error) {
	return r.getOne(ctx, squirrel.Eq{"number": number}, number, false)
}

// GetForUpdate retrieves an order header with a pessimistic row lock. This is
// the order-scoped lock serializing concurrent delivery mutations.
func (r *PurchaseOrderRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*orders.PurchaseOrder, error) {
	return r.getOne(ctx, squirrel.Eq{"id": orderID}, orderID.String(), true)
}

func (r *PurchaseOrderRepo) getOne(ctx context.Context, pred any, key string, forUpdate bool) (*orders.PurchaseOrder, error) {
	q := r.builder.Select(purchaseOrderColumns...).From(purchaseOrdersTable).Where(pred).Limit(1)
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var order orders.PurchaseOrder
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &order, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("purchase_order", key)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	return &order, nil
}

// Update persists header changes with optimistic locking.
func (r *PurchaseOrderRepo) Update(ctx context.Context, order *orders.PurchaseOrder) error {
	prevVersion := order.Version
	order.Touch()

	q := r.builder.Update(purchaseOrdersTable).
		Set("version", order.Version).
		Set("number", order.Number).
		Set("date", order.Date).
		Set("supplier_id", order.SupplierID).
		Set("status", order.Status).
		Set("total_amount", order.TotalAmount).
		Set("comment", order.Comment).
		Set("updated_at", order.UpdatedAt).
		Set("updated_by", order.UpdatedBy).
		Where(squirrel.Eq{"id": order.ID, "version": prevVersion})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("purchase_order", order.ID.String())
	}

	return nil
}

// UpdateStatus writes only the status field. Used by the status derivation;
// deliberately bypasses optimistic locking because the caller already holds
// the order row lock.
func (r *PurchaseOrderRepo) UpdateStatus(ctx context.Context, orderID id.ID, status orders.Status) error {
	q := r.builder.Update(purchaseOrdersTable).
		Set("status", status).
		Where(squirrel.Eq{"id": orderID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("purchase_order", orderID.String())
	}

	return nil
}

// GetItems retrieves order lines, in line order.
func (r *PurchaseOrderRepo) GetItems(ctx context.Context, orderID id.ID) ([]orders.POItem, error) {
	q := r.builder.Select(
		"id", "line_no", "fuel_type_id",
		"ordered_quantity", "unit_price", "invoice_value",
	).From(purchaseOrderItemsTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []orders.POItem
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}

	return items, nil
}

// SaveItems replaces the order's lines (delete existing + insert new).
func (r *PurchaseOrderRepo) SaveItems(ctx context.Context, orderID id.ID, items []orders.POItem) error {
	querier := r.txm.GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + purchaseOrderItemsTable + " WHERE order_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, orderID); err != nil {
		return fmt.Errorf("delete existing items: %w", err)
	}

	if len(items) == 0 {
		return nil
	}

	q := r.builder.Insert(purchaseOrderItemsTable).
		Columns(
			"id", "order_id", "line_no", "fuel_type_id",
			"ordered_quantity", "unit_price", "invoice_value",
		)

	for _, item := range items {
		q = q.Values(
			item.ID, orderID, item.LineNo, item.FuelTypeID,
			item.OrderedQuantity, item.UnitPrice, item.InvoiceValue,
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

// List retrieves orders with filtering.
func (r *PurchaseOrderRepo) List(ctx context.Context, filter orders.ListFilter) ([]*orders.PurchaseOrder, error) {
	q := r.builder.Select(purchaseOrderColumns...).From(purchaseOrdersTable)

	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
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

	q = q.OrderBy("date DESC", "number DESC")

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

	var items []*orders.PurchaseOrder
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}

	return items, nil
}

// receivedRow is the scan target for the per-line receipt aggregation.
type receivedRow struct {
	POItemID id.ID        `db:"po_item_id"`
	Received types.Volume `db:"received"`
}

// ReceivedQuantities sums quantity_received per order line across all
// non-voided deliveries of the order. When excludeDeliveryID is set, that
// delivery's own contribution is left out (used while editing it).
func (r *PurchaseOrderRepo) ReceivedQuantities(ctx context.Context, orderID id.ID, excludeDeliveryID *id.ID) (map[id.ID]types.Volume, error) {
	sql := `
		SELECT di.po_item_id, COALESCE(SUM(di.quantity_received), 0) AS received
		FROM doc_delivery_items di
		JOIN doc_deliveries d ON d.id = di.delivery_id
		WHERE d.order_id = $1
		  AND d.status <> 'voided'
		  AND ($2::uuid IS NULL OR d.id <> $2)
		GROUP BY di.po_item_id
	`

	var rows []receivedRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, orderID, excludeDeliveryID); err != nil {
		return nil, fmt.Errorf("sum received quantities: %w", err)
	}

	result := make(map[id.ID]types.Volume, len(rows))
	for _, row := range rows {
		result[row.POItemID] = row.Received
	}

	return result, nil
}

// DeliveryCount returns the number of non-voided deliveries for an order.
func (r *PurchaseOrderRepo) DeliveryCount(ctx context.Context, orderID id.ID) (int, error) {
	sql := `
		SELECT COUNT(*)
		FROM doc_deliveries
		WHERE order_id = $1 AND status <> 'voided'
	`

	var count int
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, orderID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count deliveries: %w", err)
	}

	return count, nil
}

var _ orders.Repository = (*PurchaseOrderRepo)(nil)
