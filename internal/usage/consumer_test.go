package usage

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	inats "github.com/webdev-it/baza-ai/internal/nats"
)

func TestConvertEvent(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	event := inats.UsageEvent{
		UserJID:    "alice@example.org",
		Date:       "2026-03-14",
		Count:      7,
		Limit:      20,
		Admitted:   true,
		Subscribed: false,
		Timestamp:  ts,
	}

	row := convertEvent(event)

	assert.NotEqual(t, uuid.Nil, row.ID)
	assert.Equal(t, "alice@example.org", row.UserJID)
	assert.Equal(t, "2026-03-14", row.Date)
	assert.Equal(t, 7, row.Count)
	assert.Equal(t, 20, row.DailyLimit)
	assert.True(t, row.Admitted)
	assert.False(t, row.Subscribed)
	assert.Equal(t, ts, row.CreatedAt)
}

func TestConvertEventAssignsDistinctIDs(t *testing.T) {
	event := inats.UsageEvent{UserJID: "bob@example.org", Date: "2026-03-14"}
	a := convertEvent(event)
	b := convertEvent(event)
	assert.NotEqual(t, a.ID, b.ID)
}
