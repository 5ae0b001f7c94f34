package subscribers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository maintains the channel subscriber registry. Rows are written by
// the XMPP presence handler and by the admin API; the rate limiter only
// reads through IsSubscribed.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new subscriber Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Add records jid as a subscriber. Idempotent.
func (r *Repository) Add(ctx context.Context, jid string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO subscribers (jid) VALUES ($1) ON CONFLICT (jid) DO NOTHING`, jid)
	if err != nil {
		return fmt.Errorf("adding subscriber %s: %w", jid, err)
	}
	return nil
}

// Remove deletes jid from the registry. Idempotent.
func (r *Repository) Remove(ctx context.Context, jid string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM subscribers WHERE jid = $1`, jid)
	if err != nil {
		return fmt.Errorf("removing subscriber %s: %w", jid, err)
	}
	return nil
}

// IsSubscribed reports whether jid is a subscriber. It never fails: a
// lookup error reads as false, so the stricter limit applies.
func (r *Repository) IsSubscribed(ctx context.Context, jid string) bool {
	var subscribed bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM subscribers WHERE jid = $1)`, jid,
	).Scan(&subscribed)
	if err != nil {
		slog.Warn("subscriber lookup failed, treating as unsubscribed", "jid", jid, "error", err)
		return false
	}
	return subscribed
}
