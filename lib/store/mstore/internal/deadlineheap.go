// This file provides a specialized priority queue for expiry collection.
//
// The implementation combines a binary heap with a hash map to provide both
// efficient deadline-ordered operations and key-based access:
//
//   - O(log n) for deadline operations (add, pop)
//   - O(1) for key-based lookups and existence checks
//   - O(log n) for key-based removal
//
// Removal by key matters for the garbage collector: when an entry is
// overwritten or deleted before its deadline, its stale heap item must be
// discarded without scanning the whole heap.
//
// Note: this implementation is not thread-safe; the garbage collector is the
// only user and accesses it from a single goroutine per shard.

package internal

import (
	"container/heap"
	"strconv"
)

// Item is an element of the deadline heap: a key hash paired with the
// unix-nanosecond deadline at which it should be collected.
type Item struct {
	Key      uint64 // Unique identifier for the item
	Deadline int64  // Expiry timestamp used for ordering in the heap
	index    int    // Index in the heap, maintained by the heap package
}

func (i *Item) String() string {
	return "{Key: " + strconv.FormatUint(i.Key, 10) + ", Deadline: " + strconv.FormatInt(i.Deadline, 10) + "}"
}

// DeadlineHeap implements a min-heap ordered by deadline
// with both heap operations and key-based access
type DeadlineHeap struct {
	items    []*Item          // The actual heap slice
	itemsMap map[uint64]*Item // Map for O(1) access by key
}

// NewDeadlineHeap creates a new empty deadline heap
func NewDeadlineHeap() *DeadlineHeap {
	return &DeadlineHeap{
		items:    make([]*Item, 0),
		itemsMap: make(map[uint64]*Item),
	}
}

// Len returns the number of items in the heap (part of heap.Interface)
func (dh *DeadlineHeap) Len() int { return len(dh.items) }

// Less compares items by deadline, earliest first (part of heap.Interface)
func (dh *DeadlineHeap) Less(i, j int) bool {
	return dh.items[i].Deadline < dh.items[j].Deadline
}

// Swap exchanges items at positions i and j (part of heap.Interface)
func (dh *DeadlineHeap) Swap(i, j int) {
	dh.items[i], dh.items[j] = dh.items[j], dh.items[i]
	dh.items[i].index = i
	dh.items[j].index = j
}

// Push adds an item to the heap (part of heap.Interface)
func (dh *DeadlineHeap) Push(x interface{}) {
	n := len(dh.items)
	item := x.(*Item)
	item.index = n
	dh.items = append(dh.items, item)
	dh.itemsMap[item.Key] = item
}

// Pop removes and returns the earliest-deadline item (part of heap.Interface)
func (dh *DeadlineHeap) Pop() interface{} {
	old := dh.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil  // Avoid memory leak
	item.index = -1 // For safety
	dh.items = old[:n-1]
	delete(dh.itemsMap, item.Key)
	return item
}

// AddItem adds a new item to the heap or updates the deadline of an existing one
func (dh *DeadlineHeap) AddItem(key uint64, deadline int64) {
	// Check if item already exists
	if item, exists := dh.itemsMap[key]; exists {
		// Update deadline and fix heap
		item.Deadline = deadline
		heap.Fix(dh, item.index)
		return
	}

	// Create and add new item
	item := &Item{
		Key:      key,
		Deadline: deadline,
	}
	heap.Push(dh, item)
}

// RemoveByKey removes an item by its key
func (dh *DeadlineHeap) RemoveByKey(key uint64) (int64, bool) {
	item, exists := dh.itemsMap[key]
	if !exists {
		return 0, false
	}

	// Remove from heap
	heap.Remove(dh, item.index)
	return item.Deadline, true
}

// Peek returns the earliest-deadline item without removing it
func (dh *DeadlineHeap) Peek() (*Item, bool) {
	if len(dh.items) == 0 {
		return nil, false
	}
	return dh.items[0], true
}

// Contains checks if a key exists in the heap
func (dh *DeadlineHeap) Contains(key uint64) bool {
	_, exists := dh.itemsMap[key]
	return exists
}
