package shared

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrIdempotencyConflict indicates the operation id was already processed.
var ErrIdempotencyConflict = errors.New("operation already processed")

// IdempotencyStore prunes processed operation ids. Inserting an id rides the
// repository transaction of the mutation it guards, so a rolled-back command
// leaves no record behind; this store only owns the retention sweep.
type IdempotencyStore struct {
	pool *pgxpool.Pool
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(pool *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{pool: pool}
}

// Cleanup removes entries older than retention.
func (s *IdempotencyStore) Cleanup(ctx context.Context, olderThan time.Duration) error {
	if s == nil {
		return nil
	}
	cutoff := time.Now().Add(-olderThan)
	_, err := s.pool.Exec(ctx, `DELETE FROM processed_operations WHERE processed_at < $1`, cutoff)
	return err
}
