// Package catalog_repo provides PostgreSQL implementations for catalog
// repositories.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/domain/catalogs/fueltype"
	"fueldepot/internal/infrastructure/storage/postgres"
)

const fuelTypesTable = "cat_fuel_types"

var fuelTypeColumns = []string{
	"id", "version", "code", "name", "octane", "is_active",
}

// FuelTypeRepo implements fueltype.Repository.
type FuelTypeRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewFuelTypeRepo creates a new fuel type repository.
func NewFuelTypeRepo(txm *postgres.TxManager) *FuelTypeRepo {
	return &FuelTypeRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new fuel type.
func (r *FuelTypeRepo) Create(ctx context.Context, ft *fueltype.FuelType) error {
	q := r.builder.Insert(fuelTypesTable).
		Columns(fuelTypeColumns...).
		Values(ft.ID, ft.Version, ft.Code, ft.Name, ft.Octane, ft.IsActive)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("fuel_type", "code", ft.Code)
		}
		return fmt.Errorf("insert fuel type: %w", err)
	}

	return nil
}

// GetByID retrieves a fuel type by ID.
func (r *FuelTypeRepo) GetByID(ctx context.Context, ftID id.ID) (*fueltype.FuelType, error) {
	return r.getOne(ctx, squirrel.Eq{"id": ftID}, ftID.String())
}

// GetByCode retrieves a fuel type by code.
func (r *FuelTypeRepo) GetByCode(ctx context.Context, code string) (*fueltype.FuelType, error) {
	return r.getOne(ctx, squirrel.Eq{"code": code}, code)
}

func (r *FuelTypeRepo) getOne(ctx context.Context, pred any, key string) (*fueltype.FuelType, error) {
	q := r.builder.Select(fuelTypeColumns...).From(fuelTypesTable).Where(pred).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var ft fueltype.FuelType
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &ft, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("fuel_type", key)
		}
		return nil, fmt.Errorf("get fuel type: %w", err)
	}

	return &ft, nil
}

// Update persists fuel type changes with optimistic locking.
func (r *FuelTypeRepo) Update(ctx context.Context, ft *fueltype.FuelType) error {
	prevVersion := ft.Version
	ft.Touch()

	q := r.builder.Update(fuelTypesTable).
		Set("version", ft.Version).
		Set("code", ft.Code).
		Set("name", ft.Name).
		Set("octane", ft.Octane).
		Set("is_active", ft.IsActive).
		Where(squirrel.Eq{"id": ft.ID, "version": prevVersion})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update fuel type: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("fuel_type", ft.ID.String())
	}

	return nil
}

// List retrieves fuel types ordered by code.
func (r *FuelTypeRepo) List(ctx context.Context, activeOnly bool) ([]*fueltype.FuelType, error) {
	q := r.builder.Select(fuelTypeColumns...).From(fuelTypesTable)
	if activeOnly {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	q = q.OrderBy("code")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*fueltype.FuelType
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select fuel types: %w", err)
	}

	return items, nil
}

var _ fueltype.Repository = (*FuelTypeRepo)(nil)
