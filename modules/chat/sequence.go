package chat

import (
	"sync"
	"sync/atomic"
)

// SequenceAllocator issues strictly increasing per-room sequence
// numbers, starting at 1 on first use. Counters for different rooms are
// independent and never contend.
type SequenceAllocator struct {
	counters sync.Map // roomID -> *atomic.Uint64
}

// NewSequenceAllocator creates an empty allocator.
func NewSequenceAllocator() *SequenceAllocator {
	return &SequenceAllocator{}
}

func (a *SequenceAllocator) counter(roomID string) *atomic.Uint64 {
	if c, ok := a.counters.Load(roomID); ok {
		return c.(*atomic.Uint64)
	}
	c, _ := a.counters.LoadOrStore(roomID, new(atomic.Uint64))
	return c.(*atomic.Uint64)
}

// Next advances the room's counter and returns the new value.
func (a *SequenceAllocator) Next(roomID string) uint64 {
	return a.counter(roomID).Add(1)
}

// Current returns the last value issued for the room, 0 if none.
func (a *SequenceAllocator) Current(roomID string) uint64 {
	return a.counter(roomID).Load()
}

// Seed raises the room's counter to last if it is currently lower.
// Called at startup with the highest persisted sequence per room so
// sequences stay unique across restarts.
func (a *SequenceAllocator) Seed(roomID string, last uint64) {
	c := a.counter(roomID)
	for {
		current := c.Load()
		if current >= last {
			return
		}
		if c.CompareAndSwap(current, last) {
			return
		}
	}
}
