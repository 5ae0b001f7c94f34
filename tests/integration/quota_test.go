//go:build integration

package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webdev-it/baza-ai/internal/quota"
	"github.com/webdev-it/baza-ai/internal/subscribers"
)

func TestPostgresStoreConsume(t *testing.T) {
	env := SetupTestEnv(t)
	env.Truncate(t)

	ctx := context.Background()
	store := quota.NewPostgresStore(env.Pool)
	date := quota.DateKey(time.Now().UTC())

	for i := 1; i <= 3; i++ {
		admitted, count, err := store.Consume(ctx, "alice@example.org", date, 3)
		require.NoError(t, err)
		assert.True(t, admitted)
		assert.Equal(t, i, count)
	}

	admitted, count, err := store.Consume(ctx, "alice@example.org", date, 3)
	require.NoError(t, err)
	assert.False(t, admitted)
	assert.Equal(t, 3, count)

	got, err := store.Get(ctx, "alice@example.org", date)
	require.NoError(t, err)
	assert.Equal(t, 3, got)
}

func TestPostgresStoreConsumeConcurrent(t *testing.T) {
	env := SetupTestEnv(t)
	env.Truncate(t)

	ctx := context.Background()
	store := quota.NewPostgresStore(env.Pool)
	date := quota.DateKey(time.Now().UTC())

	const limit = 20
	const workers = 50

	var wg sync.WaitGroup
	admits := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			admitted, _, err := store.Consume(ctx, "bob@example.org", date, limit)
			if err != nil {
				t.Error(err)
				return
			}
			admits <- admitted
		}()
	}
	wg.Wait()
	close(admits)

	total := 0
	for admitted := range admits {
		if admitted {
			total++
		}
	}
	assert.Equal(t, limit, total, "exactly the limit must be admitted under contention")
}

func TestPostgresStoreSetOverride(t *testing.T) {
	env := SetupTestEnv(t)
	env.Truncate(t)

	ctx := context.Background()
	store := quota.NewPostgresStore(env.Pool)
	date := quota.DateKey(time.Now().UTC())

	require.NoError(t, store.Set(ctx, "carol@example.org", date, 19))

	admitted, count, err := store.Consume(ctx, "carol@example.org", date, 20)
	require.NoError(t, err)
	assert.True(t, admitted)
	assert.Equal(t, 20, count)

	admitted, _, err = store.Consume(ctx, "carol@example.org", date, 20)
	require.NoError(t, err)
	assert.False(t, admitted)
}

func TestSubscribersRepository(t *testing.T) {
	env := SetupTestEnv(t)
	env.Truncate(t)

	ctx := context.Background()
	repo := subscribers.NewRepository(env.Pool)

	assert.False(t, repo.IsSubscribed(ctx, "dave@example.org"))

	require.NoError(t, repo.Add(ctx, "dave@example.org"))
	assert.True(t, repo.IsSubscribed(ctx, "dave@example.org"))

	// Adding twice is a no-op.
	require.NoError(t, repo.Add(ctx, "dave@example.org"))

	require.NoError(t, repo.Remove(ctx, "dave@example.org"))
	assert.False(t, repo.IsSubscribed(ctx, "dave@example.org"))
}
