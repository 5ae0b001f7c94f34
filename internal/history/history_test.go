package history

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AppendAndSnapshot(t *testing.T) {
	s := NewStore(10)

	s.AppendUserTurn("user@example.com", "Hello")
	s.AppendModelTurn("user@example.com", "Hi there!")

	turns := s.History("user@example.com")
	require.Len(t, turns, 2)
	assert.Equal(t, RoleUser, turns[0].Role)
	assert.Equal(t, "Hello", turns[0].Content)
	assert.Equal(t, RoleModel, turns[1].Role)
	assert.Equal(t, "Hi there!", turns[1].Content)
}

func TestStore_SnapshotIsDetached(t *testing.T) {
	s := NewStore(10)
	s.AppendUserTurn("user@example.com", "first")

	snap := s.History("user@example.com")
	s.AppendModelTurn("user@example.com", "second")

	assert.Len(t, snap, 1, "snapshot must not observe later appends")
}

func TestStore_EvictsOldestFirst(t *testing.T) {
	s := NewStore(10)

	// 12 exchanges = 24 turns appended; only the last 10 turns survive.
	for i := 1; i <= 12; i++ {
		s.AppendExchange("user@example.com", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	turns := s.History("user@example.com")
	require.Len(t, turns, 10)
	assert.Equal(t, "q8", turns[0].Content)
	assert.Equal(t, "a8", turns[1].Content)
	assert.Equal(t, "q12", turns[8].Content)
	assert.Equal(t, "a12", turns[9].Content)

	for _, turn := range turns {
		assert.NotContains(t, []string{"q1", "a1", "q2", "a2"}, turn.Content)
	}
}

func TestStore_CapNeverExceeded(t *testing.T) {
	s := NewStore(10)
	for i := 0; i < 50; i++ {
		s.AppendUserTurn("user@example.com", "x")
		assert.LessOrEqual(t, len(s.History("user@example.com")), 10)
	}
}

func TestStore_OddCapLeavesUnpairedTurn(t *testing.T) {
	s := NewStore(3)
	s.AppendExchange("user@example.com", "q1", "a1")
	s.AppendExchange("user@example.com", "q2", "a2")

	turns := s.History("user@example.com")
	require.Len(t, turns, 3)
	// Eviction is by count, so the surviving window starts mid-pair.
	assert.Equal(t, RoleModel, turns[0].Role)
	assert.Equal(t, "a1", turns[0].Content)
}

func TestStore_Reset(t *testing.T) {
	s := NewStore(10)
	s.AppendExchange("user@example.com", "q", "a")

	s.Reset("user@example.com")
	assert.Empty(t, s.History("user@example.com"))

	s.AppendUserTurn("user@example.com", "fresh")
	assert.Len(t, s.History("user@example.com"), 1)
}

func TestStore_UsersAreIsolated(t *testing.T) {
	s := NewStore(10)
	s.AppendUserTurn("a@example.com", "from a")
	s.AppendUserTurn("b@example.com", "from b")

	assert.Len(t, s.History("a@example.com"), 1)
	assert.Len(t, s.History("b@example.com"), 1)
	assert.Equal(t, "from a", s.History("a@example.com")[0].Content)
}

func TestStore_ConcurrentAppends(t *testing.T) {
	s := NewStore(10)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			user := fmt.Sprintf("user%d@example.com", n%4)
			for j := 0; j < 100; j++ {
				s.AppendExchange(user, "q", "a")
			}
		}(i)
	}
	wg.Wait()

	for n := 0; n < 4; n++ {
		turns := s.History(fmt.Sprintf("user%d@example.com", n))
		assert.Len(t, turns, 10)
		// Exchanges must never interleave: turns alternate user/model.
		for i := 0; i < len(turns); i += 2 {
			assert.Equal(t, RoleUser, turns[i].Role)
			assert.Equal(t, RoleModel, turns[i+1].Role)
		}
	}
}
