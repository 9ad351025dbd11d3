package ledger

import (
	"context"
	"fmt"

	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
	"fueldepot/pkg/logger"
)

// Service provides operations on the inventory ledger.
// Transactions are managed by the caller (the delivery recorder or the
// tank service); Append must run inside the same transaction as the
// volume mutation it records.
type Service struct {
	repo Repository
}

// NewService creates a new ledger service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Append validates and persists ledger entries.
func (s *Service) Append(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	for i := range entries {
		if err := entries[i].Validate(ctx); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}

	if err := s.repo.Append(ctx, entries); err != nil {
		return fmt.Errorf("append entries: %w", err)
	}

	logger.Info(ctx, "appended ledger entries",
		"count", len(entries),
		"tank_id", entries[0].TankID,
	)

	return nil
}

// History returns the full volume history for a tank, oldest first.
func (s *Service) History(ctx context.Context, tankID id.ID) ([]Entry, error) {
	return s.repo.History(ctx, tankID)
}

// ByReference returns all entries caused by a document, oldest first.
func (s *Service) ByReference(ctx context.Context, referenceID id.ID) ([]Entry, error) {
	return s.repo.ByReference(ctx, referenceID)
}

// Replay folds a tank's entries into its final volume, verifying the chain
// along the way: every entry's previous_volume must equal the running value.
// Used by reconciliation audits.
func Replay(entries []Entry) (types.Volume, error) {
	volume := types.Zero()

	for i, e := range entries {
		if i == 0 {
			volume = e.PreviousVolume
		}
		if !e.PreviousVolume.Equal(volume) {
			return volume, fmt.Errorf("entry %d: previous volume %s does not match running volume %s",
				i, e.PreviousVolume.String(), volume.String())
		}
		volume = volume.Add(e.ChangeAmount)
		if !e.NewVolume.Equal(volume) {
			return volume, fmt.Errorf("entry %d: new volume %s does not match computed volume %s",
				i, e.NewVolume.String(), volume.String())
		}
	}

	return volume, nil
}

// Reconcile replays a tank's history and compares it against the tank's
// cached current volume. Returns the replayed volume and an error when the
// chain is broken or the projection drifted.
func (s *Service) Reconcile(ctx context.Context, tankID id.ID, currentVolume types.Volume) (types.Volume, error) {
	entries, err := s.repo.History(ctx, tankID)
	if err != nil {
		return types.Zero(), fmt.Errorf("history: %w", err)
	}

	replayed, err := Replay(entries)
	if err != nil {
		return replayed, fmt.Errorf("tank %s: %w", tankID, err)
	}

	if !replayed.Equal(currentVolume) {
		return replayed, fmt.Errorf("tank %s: ledger replays to %s but cached volume is %s",
			tankID, replayed.String(), currentVolume.String())
	}

	return replayed, nil
}
