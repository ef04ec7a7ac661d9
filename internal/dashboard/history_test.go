package dashboard

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatinsight/insight-bot/internal/core/domain"
)

func TestHistoryPushAndOrder(t *testing.T) {
	h := NewHistory(10)

	h.Push("alice", &domain.Analysis{Style: "terse"})
	h.Push("bob", &domain.Analysis{Style: "verbose"})

	entries := h.Entries()
	require.Len(t, entries, 2)

	assert.Equal(t, "bob", entries[0].Username, "newest first")
	assert.Equal(t, "alice", entries[1].Username)
	assert.NotEmpty(t, entries[0].ID)
	assert.NotEqual(t, entries[0].ID, entries[1].ID)
}

func TestHistoryEvictsOldest(t *testing.T) {
	h := NewHistory(3)

	for i := 0; i < 5; i++ {
		h.Push(fmt.Sprintf("user%d", i), &domain.Analysis{})
	}

	entries := h.Entries()
	require.Len(t, entries, 3)

	assert.Equal(t, "user4", entries[0].Username)
	assert.Equal(t, "user2", entries[2].Username, "oldest two evicted")
}

func TestHistoryDefaultCapacity(t *testing.T) {
	h := NewHistory(0)

	for i := 0; i < defaultHistoryCap+10; i++ {
		h.Push("u", &domain.Analysis{})
	}

	assert.Equal(t, defaultHistoryCap, h.Len())
}

func TestHistoryEntriesIsSnapshot(t *testing.T) {
	h := NewHistory(5)
	h.Push("alice", &domain.Analysis{})

	entries := h.Entries()
	entries[0].Username = "mutated"

	assert.Equal(t, "alice", h.Entries()[0].Username)
}

func TestHistoryConcurrentPush(t *testing.T) {
	h := NewHistory(50)

	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()
			h.Push("u", &domain.Analysis{})
		}()
	}

	wg.Wait()

	assert.Equal(t, 50, h.Len())
}
