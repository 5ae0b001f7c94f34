package usage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles usage_events PostgreSQL operations.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new usage Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert persists a single usage event.
func (r *Repository) Insert(ctx context.Context, event *Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO usage_events (id, user_jid, req_date, count, daily_limit, admitted, subscribed, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		event.ID, event.UserJID, event.Date, event.Count, event.DailyLimit,
		event.Admitted, event.Subscribed, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting usage event: %w", err)
	}
	return nil
}

// ListByUser returns the user's usage events, newest first.
func (r *Repository) ListByUser(ctx context.Context, userJID string, params ListParams) ([]Event, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}

	var totalCount int64
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM usage_events WHERE user_jid = $1", userJID).Scan(&totalCount)
	if err != nil {
		return nil, 0, fmt.Errorf("counting usage events: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_jid, req_date::text, count, daily_limit, admitted, subscribed, created_at
		 FROM usage_events WHERE user_jid = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`, userJID, params.PageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("querying usage events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.UserJID, &e.Date, &e.Count, &e.DailyLimit,
			&e.Admitted, &e.Subscribed, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning usage event: %w", err)
		}
		events = append(events, e)
	}

	return events, totalCount, nil
}
