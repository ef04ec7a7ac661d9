package dashboard

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chatinsight/insight-bot/internal/core/domain"
)

const defaultHistoryCap = 50

// HistoryEntry is one completed dashboard analysis. Ids are assigned
// on push and do not survive a restart.
type HistoryEntry struct {
	ID        string           `json:"id"`
	Username  string           `json:"username"`
	Analysis  *domain.Analysis `json:"analysis"`
	CreatedAt time.Time        `json:"createdAt"`
}

// History is a bounded in-memory buffer of recent analyses. When full,
// a push evicts the oldest entry.
type History struct {
	mu      sync.Mutex
	entries []HistoryEntry
	cap     int
	now     func() time.Time
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = defaultHistoryCap
	}

	return &History{
		entries: make([]HistoryEntry, 0, capacity),
		cap:     capacity,
		now:     time.Now,
	}
}

func (h *History) Push(username string, analysis *domain.Analysis) HistoryEntry {
	entry := HistoryEntry{
		ID:        uuid.NewString(),
		Username:  username,
		Analysis:  analysis,
		CreatedAt: h.now(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == h.cap {
		copy(h.entries, h.entries[1:])
		h.entries = h.entries[:len(h.entries)-1]
	}

	h.entries = append(h.entries, entry)

	return entry
}

// Entries returns a snapshot, newest first.
func (h *History) Entries() []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]HistoryEntry, len(h.entries))
	for i, entry := range h.entries {
		out[len(h.entries)-1-i] = entry
	}

	return out
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.entries)
}
