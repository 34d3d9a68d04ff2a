package internal

import (
	"container/heap"
	"sort"
	"testing"
)

// TestNewDeadlineHeap tests the creation of a new DeadlineHeap
func TestNewDeadlineHeap(t *testing.T) {
	dh := NewDeadlineHeap()

	if dh == nil {
		t.Fatal("NewDeadlineHeap() returned nil")
	}

	if dh.Len() != 0 {
		t.Errorf("New heap should be empty, but has length %d", dh.Len())
	}
}

// TestAddItem tests adding items to the heap
func TestAddItem(t *testing.T) {
	dh := NewDeadlineHeap()
	heap.Init(dh)

	// Add a few items
	dh.AddItem(1, 100)
	dh.AddItem(2, 200)
	dh.AddItem(3, 50)

	if dh.Len() != 3 {
		t.Errorf("Heap should have 3 items, but has %d", dh.Len())
	}

	// Check if items exist
	for _, key := range []uint64{1, 2, 3} {
		if !dh.Contains(key) {
			t.Errorf("Heap should contain key %d", key)
		}
	}

	// Check the order (min heap, so the earliest deadline should be first)
	item, exists := dh.Peek()
	if !exists {
		t.Fatal("Peek() should return an item")
	}

	if item.Key != 3 || item.Deadline != 50 {
		t.Errorf("Expected min item to be (3,50), got (%d,%d)", item.Key, item.Deadline)
	}
}

// TestUpdateItem tests updating the deadline of an existing item
func TestUpdateItem(t *testing.T) {
	dh := NewDeadlineHeap()
	heap.Init(dh)

	// Add items
	dh.AddItem(1, 100)
	dh.AddItem(2, 200)

	// Push the deadline of item 1 past item 2
	dh.AddItem(1, 300)

	if dh.Len() != 2 {
		t.Errorf("Heap should still have 2 items, but has %d", dh.Len())
	}

	// Check if heap property is maintained
	min, _ := dh.Peek()
	if min.Key != 2 {
		t.Errorf("Min item should now be key 2, got %d", min.Key)
	}
}

// TestRemoveByKey tests removing items by key
func TestRemoveByKey(t *testing.T) {
	dh := NewDeadlineHeap()
	heap.Init(dh)

	dh.AddItem(1, 100)
	dh.AddItem(2, 200)
	dh.AddItem(3, 50)

	// Remove the current minimum
	deadline, removed := dh.RemoveByKey(3)
	if !removed {
		t.Fatal("RemoveByKey(3) should succeed")
	}
	if deadline != 50 {
		t.Errorf("Removed item should have deadline 50, got %d", deadline)
	}

	if dh.Contains(3) {
		t.Error("Heap should no longer contain key 3")
	}

	// Heap property must hold after removal
	min, _ := dh.Peek()
	if min.Key != 1 {
		t.Errorf("Min item should now be key 1, got %d", min.Key)
	}

	// Removing a missing key is a no-op
	if _, removed := dh.RemoveByKey(42); removed {
		t.Error("RemoveByKey(42) should report false for a missing key")
	}
}

// TestPopOrder tests that items pop in deadline order
func TestPopOrder(t *testing.T) {
	dh := NewDeadlineHeap()
	heap.Init(dh)

	deadlines := []int64{500, 100, 300, 200, 400}
	for i, d := range deadlines {
		dh.AddItem(uint64(i), d)
	}

	sorted := make([]int64, len(deadlines))
	copy(sorted, deadlines)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	for i := 0; dh.Len() > 0; i++ {
		item := heap.Pop(dh).(*Item)
		if item.Deadline != sorted[i] {
			t.Errorf("Pop %d: expected deadline %d, got %d", i, sorted[i], item.Deadline)
		}
	}
}
