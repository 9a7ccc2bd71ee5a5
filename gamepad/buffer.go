package gamepad

import (
	"sync"

	"github.com/Alia5/winbridge/internal/metrics"
)

// StateBufferCapacity is the most snapshots a StateBuffer holds.
const StateBufferCapacity = 20

// StateBuffer is a bounded FIFO of snapshots. When full, saving a new
// snapshot evicts the oldest one, so the buffer always holds the most recent
// changes in arrival order.
type StateBuffer struct {
	mu    sync.Mutex
	items []Snapshot
}

// NewStateBuffer returns an empty buffer.
func NewStateBuffer() *StateBuffer {
	return &StateBuffer{items: make([]Snapshot, 0, StateBufferCapacity)}
}

// Save appends a copy of s. It reports whether the oldest entry was evicted
// to make room.
func (b *StateBuffer) Save(s Snapshot) bool {
	cp := append(Snapshot(nil), s...)

	b.mu.Lock()
	defer b.mu.Unlock()

	evicted := false
	if len(b.items) >= StateBufferCapacity {
		b.items[0] = nil
		b.items = b.items[1:]
		evicted = true
		metrics.Get().SnapshotsEvicted.Inc()
	}
	b.items = append(b.items, cp)
	metrics.Get().BufferedSnapshots.Set(float64(len(b.items)))
	return evicted
}

// Pop removes and returns the oldest snapshot.
func (b *StateBuffer) Pop() (Snapshot, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.items) == 0 {
		return nil, false
	}
	s := b.items[0]
	b.items[0] = nil
	b.items = b.items[1:]
	metrics.Get().BufferedSnapshots.Set(float64(len(b.items)))
	return s, true
}

// Clear drops every buffered snapshot and returns how many were dropped.
func (b *StateBuffer) Clear() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.items)
	b.items = make([]Snapshot, 0, StateBufferCapacity)
	metrics.Get().BufferedSnapshots.Set(0)
	return n
}

// Len returns the number of buffered snapshots.
func (b *StateBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}
