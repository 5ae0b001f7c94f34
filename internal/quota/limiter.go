package quota

import (
	"context"
	"time"
)

// SubscriptionChecker reports whether a user is subscribed to the channel.
// Implementations must not fail: any lookup problem reads as false, which
// only tightens the limit.
type SubscriptionChecker interface {
	IsSubscribed(ctx context.Context, jid string) bool
}

// Limiter applies the daily per-user quota. The subscription flag is looked
// up fresh on every call since it can change between requests.
type Limiter struct {
	store      Store
	subs       SubscriptionChecker
	unsubLimit int
	subLimit   int
}

// NewLimiter creates a new Limiter.
func NewLimiter(store Store, subs SubscriptionChecker, unsubLimit, subLimit int) *Limiter {
	return &Limiter{
		store:      store,
		subs:       subs,
		unsubLimit: unsubLimit,
		subLimit:   subLimit,
	}
}

// CheckAndConsume admits the request and increments the user's count for
// today, or rejects it without mutating the ledger. The check and the
// increment are one atomic store operation, so two concurrent calls for the
// same user never both spend the last slot. A storage error is returned
// as-is; the caller must not treat the request as consumed.
func (l *Limiter) CheckAndConsume(ctx context.Context, userJID string, now time.Time) (Decision, error) {
	subscribed := l.subs.IsSubscribed(ctx, userJID)
	limit := l.unsubLimit
	if subscribed {
		limit = l.subLimit
	}

	admitted, count, err := l.store.Consume(ctx, userJID, DateKey(now), limit)
	if err != nil {
		return Decision{}, err
	}

	return Decision{
		Admitted:   admitted,
		Limit:      limit,
		Count:      count,
		Subscribed: subscribed,
	}, nil
}

// Limit returns the daily threshold for the given tier.
func (l *Limiter) Limit(subscribed bool) int {
	if subscribed {
		return l.subLimit
	}
	return l.unsubLimit
}
