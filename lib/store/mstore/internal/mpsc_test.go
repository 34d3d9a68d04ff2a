package internal

import (
	"sync"
	"testing"
	"time"
)

func TestMPSCBasicOperations(t *testing.T) {
	q := NewMPSC[Event]()
	defer q.Close()

	// Push some events
	events := []Event{
		{Type: EventTWrite, Key: 1},
		{Type: EventTWrite, Key: 2},
		{Type: EventTDelete, Key: 1},
	}

	for i := range events {
		if ok := q.Push(&events[i]); !ok {
			t.Fatalf("Push of event %d failed on open queue", i)
		}
	}

	// Consume and verify the values in order
	for i := range events {
		select {
		case got := <-q.Recv():
			if got == nil {
				t.Fatal("Received nil event")
			}
			if got.Type != events[i].Type || got.Key != events[i].Key {
				t.Errorf("Event %d: expected %+v, got %+v", i, events[i], *got)
			}
		case <-time.After(time.Second):
			t.Fatalf("Timed out waiting for event %d", i)
		}
	}
}

func TestMPSCConcurrentProducers(t *testing.T) {
	q := NewMPSC[Event]()
	defer q.Close()

	const producers = 10
	const perProducer = 1000

	var wg sync.WaitGroup
	wg.Add(producers)

	for p := 0; p < producers; p++ {
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				ev := &Event{Type: EventTWrite, Key: KeyHash(p*perProducer + i)}
				if ok := q.Push(ev); !ok {
					t.Errorf("Push failed on open queue")
					return
				}
			}
		}(p)
	}

	// Consume everything
	seen := make(map[KeyHash]bool)
	for i := 0; i < producers*perProducer; i++ {
		select {
		case got := <-q.Recv():
			if got == nil {
				t.Fatal("Received nil event")
			}
			if seen[got.Key] {
				t.Errorf("Key %d received twice", got.Key)
			}
			seen[got.Key] = true
		case <-time.After(5 * time.Second):
			t.Fatalf("Timed out after %d of %d events", i, producers*perProducer)
		}
	}

	wg.Wait()

	if len(seen) != producers*perProducer {
		t.Errorf("Expected %d distinct events, got %d", producers*perProducer, len(seen))
	}
}

func TestMPSCClose(t *testing.T) {
	q := NewMPSC[Event]()

	if q.IsClosed() {
		t.Error("New queue should not be closed")
	}

	q.Push(&Event{Type: EventTWrite, Key: 1})
	q.Close()

	if !q.IsClosed() {
		t.Error("Queue should report closed after Close()")
	}

	if ok := q.Push(&Event{Type: EventTWrite, Key: 2}); ok {
		t.Error("Push on a closed queue should fail")
	}

	// Closing twice must not panic
	q.Close()

	// The receive channel drains and then closes
	deadline := time.After(time.Second)
	for {
		select {
		case _, open := <-q.Recv():
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("Recv channel never closed")
		}
	}
}
