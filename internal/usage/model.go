package usage

import (
	"time"

	"github.com/google/uuid"
)

// Event matches the usage_events table schema. One row is written per
// quota decision so operators can reconstruct a user's day.
type Event struct {
	ID         uuid.UUID `json:"id"`
	UserJID    string    `json:"user_jid"`
	Date       string    `json:"date"`
	Count      int       `json:"count"`
	DailyLimit int       `json:"daily_limit"`
	Admitted   bool      `json:"admitted"`
	Subscribed bool      `json:"subscribed"`
	CreatedAt time.Time `json:"created_at"`
}

// ListParams holds pagination parameters for event queries.
type ListParams struct {
	Page     int
	PageSize int
}
