// Package register_repo provides PostgreSQL implementations for register
// repositories.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fueldepot/internal/core/id"
	"fueldepot/internal/domain/ledger"
	"fueldepot/internal/infrastructure/storage/postgres"
)

const ledgerTable = "reg_tank_ledger"

var ledgerColumns = []string{
	"id", "tank_id", "operation_type", "reference_id",
	"previous_volume", "change_amount", "new_volume",
	"recorded_at", "actor", "notes",
}

// LedgerRepo implements ledger.Repository. Append-and-read only: the table
// has no UPDATE or DELETE path, in code or in SQL.
type LedgerRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txm *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Append inserts entries in order. Must be called within the same
// transaction as the tank volume mutation the entries describe.
func (r *LedgerRepo) Append(ctx context.Context, entries []ledger.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	// Fast path: COPY when inside a transaction, which appends always are.
	if tx := r.txm.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txm)
		rows := make([][]any, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []any{
				e.ID, e.TankID, e.OperationType, e.ReferenceID,
				e.PreviousVolume, e.ChangeAmount, e.NewVolume,
				e.RecordedAt, e.Actor, e.Notes,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, ledgerTable, ledgerColumns, rows); err != nil {
			return fmt.Errorf("copy entries: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(ledgerTable).Columns(ledgerColumns...)
	for _, e := range entries {
		q = q.Values(
			e.ID, e.TankID, e.OperationType, e.ReferenceID,
			e.PreviousVolume, e.ChangeAmount, e.NewVolume,
			e.RecordedAt, e.Actor, e.Notes,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert entries: %w", err)
	}

	return nil
}

// History returns all entries for a tank, oldest first.
func (r *LedgerRepo) History(ctx context.Context, tankID id.ID) ([]ledger.Entry, error) {
	q := r.builder.Select(ledgerColumns...).From(ledgerTable).
		Where(squirrel.Eq{"tank_id": tankID}).
		OrderBy("recorded_at", "id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []ledger.Entry
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}

	return entries, nil
}

// ByReference returns all entries caused by a document, oldest first.
func (r *LedgerRepo) ByReference(ctx context.Context, referenceID id.ID) ([]ledger.Entry, error) {
	q := r.builder.Select(ledgerColumns...).From(ledgerTable).
		Where(squirrel.Eq{"reference_id": referenceID}).
		OrderBy("recorded_at", "id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []ledger.Entry
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select by reference: %w", err)
	}

	return entries, nil
}

var _ ledger.Repository = (*LedgerRepo)(nil)
