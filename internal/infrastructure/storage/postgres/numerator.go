package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"fueldepot/pkg/numerator"
)

// NumeratorQuerier adapts the TxManager to the numerator's Querier contract,
// so number allocation joins the caller's transaction when one is open.
type NumeratorQuerier struct {
	txm *TxManager
}

// NewNumerator creates a numerator service backed by this TxManager.
func NewNumerator(txm *TxManager) *numerator.Service {
	return numerator.New(&NumeratorQuerier{txm: txm})
}

// QueryRow delegates to the context-appropriate querier.
func (q *NumeratorQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return q.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...)
}

var _ numerator.Querier = (*NumeratorQuerier)(nil)
