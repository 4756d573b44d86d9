// If you are AI: This file contains unit tests for the counters store.

package counters

import (
	"bytes"
	"testing"
	"time"

	"aeronmd/internal/core/clock"
)

func newTestStore(slots int32, clk clock.Clock, reuseWindowMs int64) *Store {
	return NewStore(
		make([]byte, slots*MetadataLength),
		make([]byte, slots*CounterLength),
		clk, reuseWindowMs)
}

func TestAllocateAssignsAscendingIDs(t *testing.T) {
	store := newTestStore(8, &clock.Manual{}, 1000)

	for want := int32(0); want < 3; want++ {
		id, err := store.Allocate(1, nil, "counter")
		if err != nil {
			t.Fatalf("Allocate: %v", err)
		}
		if id != want {
			t.Errorf("id = %d, want %d", id, want)
		}
	}
}

func TestAllocateWritesMetadata(t *testing.T) {
	store := newTestStore(8, &clock.Manual{}, 1000)

	key := []byte{1, 2, 3, 4}
	id, err := store.Allocate(42, key, "bytes sent")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	if store.State(id) != RecordAllocated {
		t.Errorf("state = %d, want allocated", store.State(id))
	}
	if store.TypeID(id) != 42 {
		t.Errorf("type id = %d, want 42", store.TypeID(id))
	}
	if store.Label(id) != "bytes sent" {
		t.Errorf("label = %q", store.Label(id))
	}
	if !bytes.Equal(store.Key(id)[:4], key) {
		t.Errorf("key = %v, want prefix %v", store.Key(id)[:4], key)
	}
	if store.FreeForReuseDeadlineMs(id) != NotFreeToReuse {
		t.Errorf("deadline = %d, want not-free-to-reuse", store.FreeForReuseDeadlineMs(id))
	}
}

func TestValueOperations(t *testing.T) {
	store := newTestStore(8, &clock.Manual{}, 1000)
	id, _ := store.Allocate(1, nil, "gauge")

	store.SetValue(id, 41)
	if got := store.GetValue(id); got != 41 {
		t.Errorf("GetValue = %d, want 41", got)
	}
	if got := store.AddValue(id, 2); got != 43 {
		t.Errorf("AddValue = %d, want 43", got)
	}
	if got := store.Increment(id); got != 44 {
		t.Errorf("Increment = %d, want 44", got)
	}

	store.SetRegistrationID(id, 777)
	if got := store.GetRegistrationID(id); got != 777 {
		t.Errorf("registration id = %d, want 777", got)
	}
}

func TestFreeSlotNotReusedBeforeDeadline(t *testing.T) {
	clk := &clock.Manual{}
	store := newTestStore(2, clk, 1000)

	first, _ := store.Allocate(1, nil, "a")
	store.Allocate(1, nil, "b")
	store.Free(first)

	// Both slots are unavailable: one allocated, one resting.
	if _, err := store.Allocate(1, nil, "c"); err == nil {
		t.Fatal("Allocate should fail while the freed slot is resting")
	}

	clk.Advance(1001 * time.Millisecond)

	id, err := store.Allocate(1, nil, "c")
	if err != nil {
		t.Fatalf("Allocate after deadline: %v", err)
	}
	if id != first {
		t.Errorf("reused id = %d, want %d", id, first)
	}
	if store.Label(id) != "c" {
		t.Errorf("label = %q, want fresh payload", store.Label(id))
	}
}

func TestAllocateCapacityExceeded(t *testing.T) {
	store := newTestStore(2, &clock.Manual{}, 1000)
	store.Allocate(1, nil, "a")
	store.Allocate(1, nil, "b")

	if _, err := store.Allocate(1, nil, "c"); err == nil {
		t.Error("Allocate on a full store should fail")
	}
}

func TestForEachStopsAtUnusedAndSkipsReclaimed(t *testing.T) {
	store := newTestStore(8, &clock.Manual{}, 1000)

	a, _ := store.Allocate(1, nil, "a")
	b, _ := store.Allocate(1, nil, "b")
	c, _ := store.Allocate(1, nil, "c")
	store.SetValue(a, 10)
	store.SetValue(c, 30)
	store.Free(b)

	var visited []int32
	store.ForEach(func(id, _ int32, _ []byte, _ string, _ int64) {
		visited = append(visited, id)
	})

	if len(visited) != 2 || visited[0] != a || visited[1] != c {
		t.Errorf("visited %v, want [%d %d]", visited, a, c)
	}
}

func TestLabelTruncation(t *testing.T) {
	store := newTestStore(2, &clock.Manual{}, 1000)

	long := make([]byte, MaxLabelLength+100)
	for i := range long {
		long[i] = 'x'
	}
	id, err := store.Allocate(1, nil, string(long))
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if got := len(store.Label(id)); got != MaxLabelLength {
		t.Errorf("label length = %d, want %d", got, MaxLabelLength)
	}
}
