package quota

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is a mutex-guarded in-memory Store used to exercise the limiter
// policy without a database. Consume mirrors the single-statement semantics
// of the Postgres store.
type memStore struct {
	mu     sync.Mutex
	counts map[string]int
	fail   error
}

func newMemStore() *memStore {
	return &memStore{counts: make(map[string]int)}
}

func (m *memStore) key(user, date string) string { return user + "|" + date }

func (m *memStore) Get(_ context.Context, user, date string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return 0, m.fail
	}
	return m.counts[m.key(user, date)], nil
}

func (m *memStore) Set(_ context.Context, user, date string, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.counts[m.key(user, date)] = count
	return nil
}

func (m *memStore) Consume(_ context.Context, user, date string, limit int) (bool, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return false, 0, m.fail
	}
	k := m.key(user, date)
	if m.counts[k] >= limit {
		return false, m.counts[k], nil
	}
	m.counts[k]++
	return true, m.counts[k], nil
}

type staticSubs bool

func (s staticSubs) IsSubscribed(context.Context, string) bool { return bool(s) }

func TestLimiter_ConsumeCountsUp(t *testing.T) {
	store := newMemStore()
	l := NewLimiter(store, staticSubs(false), 20, 40)
	ctx := context.Background()
	now := time.Now()

	for i := 1; i <= 5; i++ {
		d, err := l.CheckAndConsume(ctx, "user@example.com", now)
		require.NoError(t, err)
		assert.True(t, d.Admitted)
		assert.Equal(t, i, d.Count)
		assert.Equal(t, 20, d.Limit)
	}

	count, err := store.Get(ctx, "user@example.com", DateKey(now))
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestLimiter_RejectAtBoundary(t *testing.T) {
	store := newMemStore()
	l := NewLimiter(store, staticSubs(false), 3, 40)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 3; i++ {
		d, err := l.CheckAndConsume(ctx, "user@example.com", now)
		require.NoError(t, err)
		require.True(t, d.Admitted)
	}

	// At the limit: reject, and do not increment further.
	d, err := l.CheckAndConsume(ctx, "user@example.com", now)
	require.NoError(t, err)
	assert.False(t, d.Admitted)
	assert.Equal(t, 3, d.Limit)
	assert.Equal(t, 3, d.Count)

	count, err := store.Get(ctx, "user@example.com", DateKey(now))
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestLimiter_SubscribedTier(t *testing.T) {
	store := newMemStore()
	l := NewLimiter(store, staticSubs(true), 20, 40)

	d, err := l.CheckAndConsume(context.Background(), "user@example.com", time.Now())
	require.NoError(t, err)
	assert.True(t, d.Admitted)
	assert.True(t, d.Subscribed)
	assert.Equal(t, 40, d.Limit)
}

func TestLimiter_ConcurrentLastSlot(t *testing.T) {
	store := newMemStore()
	l := NewLimiter(store, staticSubs(false), 1, 40)
	ctx := context.Background()
	now := time.Now()

	const callers = 16
	var wg sync.WaitGroup
	admits := make(chan bool, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := l.CheckAndConsume(ctx, "racer@example.com", now)
			require.NoError(t, err)
			admits <- d.Admitted
		}()
	}
	wg.Wait()
	close(admits)

	admitted := 0
	for a := range admits {
		if a {
			admitted++
		}
	}
	assert.Equal(t, 1, admitted, "exactly one caller may take the last slot")
}

func TestLimiter_StorageErrorPropagates(t *testing.T) {
	store := newMemStore()
	store.fail = ErrStorage
	l := NewLimiter(store, staticSubs(false), 20, 40)

	_, err := l.CheckAndConsume(context.Background(), "user@example.com", time.Now())
	assert.ErrorIs(t, err, ErrStorage)
}

func TestLimiter_DaysAreIndependent(t *testing.T) {
	store := newMemStore()
	l := NewLimiter(store, staticSubs(false), 1, 40)
	ctx := context.Background()

	today := time.Now()
	tomorrow := today.Add(24 * time.Hour)

	d, err := l.CheckAndConsume(ctx, "user@example.com", today)
	require.NoError(t, err)
	require.True(t, d.Admitted)

	d, err = l.CheckAndConsume(ctx, "user@example.com", today)
	require.NoError(t, err)
	require.False(t, d.Admitted)

	// A new day starts a fresh budget.
	d, err = l.CheckAndConsume(ctx, "user@example.com", tomorrow)
	require.NoError(t, err)
	assert.True(t, d.Admitted)
	assert.Equal(t, 1, d.Count)
}
