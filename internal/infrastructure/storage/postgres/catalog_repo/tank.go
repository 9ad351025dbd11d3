package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
	"fueldepot/internal/domain/catalogs/tank"
	"fueldepot/internal/infrastructure/storage/postgres"
)

const tanksTable = "cat_tanks"

var tankColumns = []string{
	"id", "version", "code", "name", "fuel_type_id",
	"capacity", "current_volume", "is_active", "location",
}

// TankRepo implements tank.Repository.
type TankRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewTankRepo creates a new tank repository.
func NewTankRepo(txm *postgres.TxManager) *TankRepo {
	return &TankRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new tank.
func (r *TankRepo) Create(ctx context.Context, t *tank.Tank) error {
	q := r.builder.Insert(tanksTable).
		Columns(tankColumns...).
		Values(
			t.ID, t.Version, t.Code, t.Name, t.FuelTypeID,
			t.Capacity, t.CurrentVolume, t.IsActive, t.Location,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("tank", "code", t.Code)
		}
		return fmt.Errorf("insert tank: %w", err)
	}

	return nil
}

// GetByID retrieves a tank by ID.
func (r *TankRepo) GetByID(ctx context.Context, tankID id.ID) (*tank.Tank, error) {
	return r.getOne(ctx, squirrel.Eq{"id": tankID}, tankID.String(), false)
}

// GetByCode retrieves a tank by code.
func (r *TankRepo) GetByCode(ctx context.Context, code string) (*tank.Tank, error) {
	return r.getOne(ctx, squirrel.Eq{"code": code}, code, false)
}

// GetForUpdate retrieves a tank with a pessimistic row lock.
// Callers must lock tanks in ascending ID order to avoid deadlocks.
func (r *TankRepo) GetForUpdate(ctx context.Context, tankID id.ID) (*tank.Tank, error) {
	return r.getOne(ctx, squirrel.Eq{"id": tankID}, tankID.String(), true)
}

func (r *TankRepo) getOne(ctx context.Context, pred any, key string, forUpdate bool) (*tank.Tank, error) {
	q := r.builder.Select(tankColumns...).From(tanksTable).Where(pred).Limit(1)
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var t tank.Tank
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &t, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("tank", key)
		}
		return nil, fmt.Errorf("get tank: %w", err)
	}

	return &t, nil
}

// Update persists tank master data with optimistic locking.
func (r *TankRepo) Update(ctx context.Context, t *tank.Tank) error {
	prevVersion := t.Version
	t.Touch()

	q := r.builder.Update(tanksTable).
		Set("version", t.Version).
		Set("code", t.Code).
		Set("name", t.Name).
		Set("fuel_type_id", t.FuelTypeID).
		Set("capacity", t.Capacity).
		Set("is_active", t.IsActive).
		Set("location", t.Location).
		Where(squirrel.Eq{"id": t.ID, "version": prevVersion})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update tank: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("tank", t.ID.String())
	}

	return nil
}

// SetVolume writes the new cached volume for a tank previously locked with
// GetForUpdate, within the same transaction. Does not bump the version: the
// volume is a projection of the ledger, not master data.
func (r *TankRepo) SetVolume(ctx context.Context, tankID id.ID, volume types.Volume) error {
	q := r.builder.Update(tanksTable).
		Set("current_volume", volume).
		Where(squirrel.Eq{"id": tankID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set volume: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("tank", tankID.String())
	}

	return nil
}

// List retrieves tanks with filtering, ordered by code.
func (r *TankRepo) List(ctx context.Context, filter tank.ListFilter) ([]*tank.Tank, error) {
	q := r.builder.Select(tankColumns...).From(tanksTable)

	if filter.FuelTypeID != nil {
		q = q.Where(squirrel.Eq{"fuel_type_id": *filter.FuelTypeID})
	}
	if filter.ActiveOnly {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	q = q.OrderBy("code")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*tank.Tank
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select tanks: %w", err)
	}

	return items, nil
}

var _ tank.Repository = (*TankRepo)(nil)
