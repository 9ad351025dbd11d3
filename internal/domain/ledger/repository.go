package ledger

import (
	"context"

	"fueldepot/internal/core/id"
)

// Repository defines storage operations for ledger entries.
// The interface is intentionally append-and-read only: there is no update
// or delete, in code or in SQL.
type Repository interface {
	// Append inserts entries in order. Must be called within the same
	// transaction as the tank volume mutation the entries describe.
	Append(ctx context.Context, entries []Entry) error

	// History returns all entries for a tank, oldest first.
	History(ctx context.Context, tankID id.ID) ([]Entry, error)

	// ByReference returns all entries caused by a document (e.g. a delivery),
	// oldest first.
	ByReference(ctx context.Context, referenceID id.ID) ([]Entry, error)
}
