package quota

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrStorage marks ledger I/O failures. A request that hits it must be
// treated as not consumed: the failing write never counted.
var ErrStorage = errors.New("quota storage failure")

// Store is the per-user, per-day request ledger. Consume is the atomic
// check-then-increment; Get and Set exist for inspection and backfill.
type Store interface {
	Get(ctx context.Context, userJID, date string) (int, error)
	Set(ctx context.Context, userJID, date string, count int) error
	Consume(ctx context.Context, userJID, date string, limit int) (admitted bool, count int, err error)
}

// PostgresStore keeps the ledger in the usage_counts table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Get returns the count for (userJID, date), 0 if no row exists.
func (s *PostgresStore) Get(ctx context.Context, userJID, date string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count FROM usage_counts WHERE user_jid = $1 AND req_date = $2`,
		userJID, date,
	).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: reading count for %s/%s: %v", ErrStorage, userJID, date, err)
	}
	return count, nil
}

// Set upserts the count for (userJID, date), replacing any prior value.
func (s *PostgresStore) Set(ctx context.Context, userJID, date string, count int) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO usage_counts (user_jid, req_date, count) VALUES ($1, $2, $3)
		 ON CONFLICT (user_jid, req_date)
		 DO UPDATE SET count = EXCLUDED.count, updated_at = now()`,
		userJID, date, count)
	if err != nil {
		return fmt.Errorf("%w: writing count for %s/%s: %v", ErrStorage, userJID, date, err)
	}
	return nil
}

// Consume increments the count for (userJID, date) only while it is below
// limit, as a single statement so concurrent calls for the same key
// serialize on the row. Returns whether the increment happened and the
// count after the call (the unchanged count on rejection).
func (s *PostgresStore) Consume(ctx context.Context, userJID, date string, limit int) (bool, int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`INSERT INTO usage_counts (user_jid, req_date, count) VALUES ($1, $2, 1)
		 ON CONFLICT (user_jid, req_date)
		 DO UPDATE SET count = usage_counts.count + 1, updated_at = now()
		 WHERE usage_counts.count < $3
		 RETURNING count`,
		userJID, date, limit,
	).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		// Conditional update did not fire: already at or over the limit.
		current, gerr := s.Get(ctx, userJID, date)
		if gerr != nil {
			return false, 0, gerr
		}
		return false, current, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("%w: consuming for %s/%s: %v", ErrStorage, userJID, date, err)
	}
	return true, count, nil
}
