package pool

import (
	"sync"

	"github.com/utkarsh5026/tilegen/internal/types"
)

type pendingEntry struct {
	future *types.Future[[]byte]
	worker int
}

// correlator is the pending table: in-flight request ids mapped to the
// future awaiting each response. Every entry is removed exactly once, by
// delivery, dispatch failure, worker exit or pool teardown.
type correlator struct {
	mu      sync.Mutex
	pending map[uint64]pendingEntry
	closed  bool
}

func newCorrelator() *correlator {
	return &correlator{pending: make(map[uint64]pendingEntry)}
}

func (c *correlator) register(id uint64, entry pendingEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrPoolDestroyed
	}
	c.pending[id] = entry
	return nil
}

// take removes and returns the entry for id.
func (c *correlator) take(id uint64) (pendingEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	return entry, ok
}

// takeWorker removes and returns every entry dispatched to worker.
func (c *correlator) takeWorker(worker int) []pendingEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	var entries []pendingEntry
	for id, entry := range c.pending {
		if entry.worker == worker {
			entries = append(entries, entry)
			delete(c.pending, id)
		}
	}
	return entries
}

// close refuses further registrations and returns every remaining entry.
func (c *correlator) close() []pendingEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	entries := make([]pendingEntry, 0, len(c.pending))
	for _, entry := range c.pending {
		entries = append(entries, entry)
	}
	clear(c.pending)
	return entries
}

func (c *correlator) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
