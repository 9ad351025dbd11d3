package tank

import (
	"context"
	"fmt"

	"fueldepot/internal/core/apperror"
	appctx "fueldepot/internal/core/context"
	"fueldepot/internal/core/id"
	"fueldepot/internal/core/tx"
	"fueldepot/internal/core/types"
	"fueldepot/internal/domain/ledger"
	"fueldepot/pkg/logger"
)

// Service provides business operations for tanks. It is the sole owner of
// the current_volume field: ApplyDelta is the only code path that changes it,
// and every change is paired with a ledger entry in the same transaction.
type Service struct {
	repo      Repository
	ledger    *ledger.Service
	txManager tx.Manager
}

// NewService creates a new tank service.
func NewService(repo Repository, ledgerSvc *ledger.Service, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		ledger:    ledgerSvc,
		txManager: txManager,
	}
}

// Register creates a new tank. A non-zero opening volume seeds the ledger
// with an opening entry so the chain replays from the tank's first fill.
func (s *Service) Register(ctx context.Context, t *Tank, openingVolume types.Volume) error {
	if openingVolume.IsNegative() {
		return apperror.NewValidation("opening volume cannot be negative").
			WithDetail("value", openingVolume.String())
	}

	t.CurrentVolume = openingVolume

	if err := t.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, t); err != nil {
			return fmt.Errorf("create tank: %w", err)
		}

		if openingVolume.IsZero() {
			return nil
		}

		entry := ledger.NewEntry(
			t.ID, ledger.OperationOpening, id.Nil(),
			types.Zero(), openingVolume, openingVolume,
			appctx.GetActorID(ctx), "opening volume",
		)
		return s.ledger.Append(ctx, []ledger.Entry{entry})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "tank registered",
		"id", t.ID,
		"code", t.Code,
		"capacity", t.Capacity,
		"opening_volume", openingVolume,
	)

	return nil
}

// GetByID retrieves a tank.
func (s *Service) GetByID(ctx context.Context, tankID id.ID) (*Tank, error) {
	return s.repo.GetByID(ctx, tankID)
}

// List retrieves tanks with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Tank, error) {
	return s.repo.List(ctx, filter)
}

// Update modifies tank master data. CurrentVolume is deliberately not
// writable here; only ApplyDelta changes it.
func (s *Service) Update(ctx context.Context, t *Tank) error {
	if err := t.Validate(ctx); err != nil {
		return err
	}

	existing, err := s.repo.GetByID(ctx, t.ID)
	if err != nil {
		return err
	}
	t.CurrentVolume = existing.CurrentVolume

	return s.repo.Update(ctx, t)
}

// Decommission takes a tank out of service. Tanks are never deleted;
// their ledger history must remain replayable.
func (s *Service) Decommission(ctx context.Context, tankID id.ID) error {
	t, err := s.repo.GetByID(ctx, tankID)
	if err != nil {
		return err
	}

	t.IsActive = false
	return s.repo.Update(ctx, t)
}

// GetForUpdate loads a tank under a row lock held for the rest of the
// enclosing transaction. Used by the delivery recorder to take a consistent
// volume snapshot before validating and applying deltas.
func (s *Service) GetForUpdate(ctx context.Context, tankID id.ID) (*Tank, error) {
	return s.repo.GetForUpdate(ctx, tankID)
}

// ApplyDelta applies a signed volume change to a tank and returns the
// volumes before and after. The tank row is locked for the rest of the
// enclosing transaction; callers must pair the returned values with a
// ledger append in that same transaction.
//
// Capacity is not enforced here: the allocation validator surfaces capacity
// overruns as advisory warnings before the recorder commits.
func (s *Service) ApplyDelta(ctx context.Context, tankID id.ID, delta types.Volume) (previous, current types.Volume, err error) {
	t, err := s.repo.GetForUpdate(ctx, tankID)
	if err != nil {
		return types.Zero(), types.Zero(), err
	}

	previous = t.CurrentVolume
	current = previous.Add(delta)

	if current.LessThan(types.Epsilon.Neg()) {
		return previous, previous, apperror.NewBusinessRule(
			apperror.CodeBusinessRule,
			"volume change would drain tank below zero",
		).WithDetail("tank_id", tankID.String()).
			WithDetail("current", previous.String()).
			WithDetail("delta", delta.String())
	}

	if err := s.repo.SetVolume(ctx, tankID, current); err != nil {
		return previous, previous, fmt.Errorf("set volume: %w", err)
	}

	return previous, current, nil
}

// RecordAdjustment applies a manual correction to a tank's volume outside of
// any delivery (dip-stick readings, spillage, evaporation) and records it in
// the ledger atomically.
func (s *Service) RecordAdjustment(ctx context.Context, tankID id.ID, amount types.Volume, notes string) (ledger.Entry, error) {
	if types.IsEffectivelyZero(amount) {
		return ledger.Entry{}, apperror.NewValidation("adjustment amount must be non-zero").
			WithDetail("value", amount.String())
	}

	var entry ledger.Entry
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		previous, current, err := s.ApplyDelta(ctx, tankID, amount)
		if err != nil {
			return err
		}

		entry = ledger.NewEntry(
			tankID, ledger.OperationAdjustment, id.Nil(),
			previous, amount, current,
			appctx.GetActorID(ctx), notes,
		)
		return s.ledger.Append(ctx, []ledger.Entry{entry})
	})
	if err != nil {
		return ledger.Entry{}, err
	}

	logger.Info(ctx, "tank adjustment recorded",
		"tank_id", tankID,
		"amount", amount,
	)

	return entry, nil
}

// History returns the tank's full ledger history, oldest first.
func (s *Service) History(ctx context.Context, tankID id.ID) ([]ledger.Entry, error) {
	if _, err := s.repo.GetByID(ctx, tankID); err != nil {
		return nil, err
	}
	return s.ledger.History(ctx, tankID)
}
