package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/domain/catalogs/supplier"
	"fueldepot/internal/infrastructure/storage/postgres"
)

const suppliersTable = "cat_suppliers"

var supplierColumns = []string{
	"id", "version", "code", "name", "contact_phone", "address", "is_active",
}

// SupplierRepo implements supplier.Repository.
type SupplierRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewSupplierRepo creates a new supplier repository.
func NewSupplierRepo(txm *postgres.TxManager) *SupplierRepo {
	return &SupplierRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new supplier.
func (r *SupplierRepo) Create(ctx context.Context, sup *supplier.Supplier) error {
	q := r.builder.Insert(suppliersTable).
		Columns(supplierColumns...).
		Values(sup.ID, sup.Version, sup.Code, sup.Name, sup.ContactPhone, sup.Address, sup.IsActive)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("supplier", "code", sup.Code)
		}
		return fmt.Errorf("insert supplier: %w", err)
	}

	return nil
}

// GetByID retrieves a supplier by ID.
func (r *SupplierRepo) GetByID(ctx context.Context, supID id.ID) (*supplier.Supplier, error) {
	return r.getOne(ctx, squirrel.Eq{"id": supID}, supID.String())
}

// GetByCode retrieves a supplier by code.
func (r *SupplierRepo) GetByCode(ctx context.Context, code string) (*supplier.Supplier, error) {
	return r.getOne(ctx, squirrel.Eq{"code": code}, code)
}

func (r *SupplierRepo) getOne(ctx context.Context, pred any, key string) (*supplier.Supplier, error) {
	q := r.builder.Select(supplierColumns...).From(suppliersTable).Where(pred).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var sup supplier.Supplier
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &sup, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("supplier", key)
		}
		return nil, fmt.Errorf("get supplier: %w", err)
	}

	return &sup, nil
}

// Update persists supplier changes with optimistic locking.
func (r *SupplierRepo) Update(ctx context.Context, sup *supplier.Supplier) error {
	prevVersion := sup.Version
	sup.Touch()

	q := r.builder.Update(suppliersTable).
		Set("version", sup.Version).
		Set("code", sup.Code).
		Set("name", sup.Name).
		Set("contact_phone", sup.ContactPhone).
		Set("address", sup.Address).
		Set("is_active", sup.IsActive).
		Where(squirrel.Eq{"id": sup.ID, "version": prevVersion})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update supplier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("supplier", sup.ID.String())
	}

	return nil
}

// List retrieves suppliers ordered by name.
func (r *SupplierRepo) List(ctx context.Context, activeOnly bool) ([]*supplier.Supplier, error) {
	q := r.builder.Select(supplierColumns...).From(suppliersTable)
	if activeOnly {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	q = q.OrderBy("name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*supplier.Supplier
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select suppliers: %w", err)
	}

	return items, nil
}

var _ supplier.Repository = (*SupplierRepo)(nil)
