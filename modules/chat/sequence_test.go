package chat

import (
	"sync"
	"testing"
)

func TestSequenceAllocatorStartsAtZero(t *testing.T) {
	seq := NewSequenceAllocator()

	if got := seq.Current("room-1"); got != 0 {
		t.Errorf("Current() on fresh room = %d, want 0", got)
	}
}

func TestSequenceAllocatorNext(t *testing.T) {
	seq := NewSequenceAllocator()

	for want := uint64(1); want <= 5; want++ {
		if got := seq.Next("room-1"); got != want {
			t.Errorf("Next() = %d, want %d", got, want)
		}
	}

	if got := seq.Current("room-1"); got != 5 {
		t.Errorf("Current() after 5 Next() = %d, want 5", got)
	}
}

func TestSequenceAllocatorRoomsAreIndependent(t *testing.T) {
	seq := NewSequenceAllocator()

	seq.Next("room-a")
	seq.Next("room-a")
	seq.Next("room-b")

	if got := seq.Current("room-a"); got != 2 {
		t.Errorf("Current(room-a) = %d, want 2", got)
	}
	if got := seq.Current("room-b"); got != 1 {
		t.Errorf("Current(room-b) = %d, want 1", got)
	}
}

func TestSequenceAllocatorSeed(t *testing.T) {
	seq := NewSequenceAllocator()

	seq.Seed("room-1", 42)
	if got := seq.Current("room-1"); got != 42 {
		t.Errorf("Current() after Seed(42) = %d, want 42", got)
	}
	if got := seq.Next("room-1"); got != 43 {
		t.Errorf("Next() after Seed(42) = %d, want 43", got)
	}

	// Seeding below the current value must not move it backwards.
	seq.Seed("room-1", 10)
	if got := seq.Current("room-1"); got != 43 {
		t.Errorf("Current() after lower Seed = %d, want 43", got)
	}
}

func TestSequenceAllocatorConcurrentNext(t *testing.T) {
	const (
		goroutines = 10
		perRoutine = 100
	)

	seq := NewSequenceAllocator()
	seen := make([]map[uint64]bool, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		seen[i] = make(map[uint64]bool, perRoutine)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < perRoutine; j++ {
				seen[i][seq.Next("room-1")] = true
			}
		}(i)
	}
	wg.Wait()

	// Every value in 1..goroutines*perRoutine was handed out exactly once.
	total := 0
	all := make(map[uint64]bool)
	for i := 0; i < goroutines; i++ {
		for v := range seen[i] {
			if all[v] {
				t.Fatalf("sequence %d handed out twice", v)
			}
			all[v] = true
			total++
		}
	}

	want := goroutines * perRoutine
	if total != want {
		t.Fatalf("handed out %d sequences, want %d", total, want)
	}
	for v := uint64(1); v <= uint64(want); v++ {
		if !all[v] {
			t.Fatalf("sequence %d never handed out", v)
		}
	}
}
