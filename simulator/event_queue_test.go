package simulator

import (
	"testing"
)

func testNeuron(uid string) *ExplicitNeuron {
	return NewExplicitNeuron(uid, StandardParams())
}

func TestEventQueueBasicOperations(t *testing.T) {
	t.Run("new queue is empty", func(t *testing.T) {
		q := NewCancelableEventQueue()
		if q.Len() != 0 {
			t.Errorf("Expected empty queue, got length %d", q.Len())
		}
		if _, batch := q.PopBatch(); batch != nil {
			t.Error("Expected nil batch from empty queue")
		}
	})

	t.Run("push assigns unique identities", func(t *testing.T) {
		q := NewCancelableEventQueue()
		n := testNeuron("q.a")

		id1 := q.Push(NewSpikeHitEvent(10.0, n, SynapseV, 1.0))
		id2 := q.Push(NewSpikeHitEvent(10.0, n, SynapseV, 1.0))
		if id1 == id2 {
			t.Errorf("Two events with identical payloads must get distinct identities, both got %d", id1)
		}
		if !q.Contains(id1) || !q.Contains(id2) {
			t.Error("Both pushed events should be pending")
		}
	})

	t.Run("push and pop single event", func(t *testing.T) {
		q := NewCancelableEventQueue()
		n := testNeuron("q.a")

		q.Push(NewSpikeHitEvent(10.0, n, SynapseGe, 2.5))
		if q.Len() != 1 {
			t.Errorf("Expected length 1, got %d", q.Len())
		}

		batchTime, batch := q.PopBatch()
		if len(batch) != 1 {
			t.Fatalf("Expected 1 event, got %d", len(batch))
		}
		if batchTime != 10.0 {
			t.Errorf("Expected batch time 10.0, got %.1f", batchTime)
		}
		if q.Len() != 0 {
			t.Errorf("Expected empty queue after pop, got length %d", q.Len())
		}
	})
}

func TestEventQueueOrdering(t *testing.T) {
	q := NewCancelableEventQueue()
	n := testNeuron("q.a")

	// Push events in non-chronological order
	for _, ts := range []float64{15.0, 5.0, 20.0, 1.0, 10.0} {
		q.Push(NewSpikeHitEvent(ts, n, SynapseV, 1.0))
	}

	expected := []float64{1.0, 5.0, 10.0, 15.0, 20.0}
	for i, want := range expected {
		batchTime, batch := q.PopBatch()
		if len(batch) != 1 {
			t.Fatalf("Batch %d: expected 1 event, got %d", i, len(batch))
		}
		if batchTime != want {
			t.Errorf("Batch %d: expected time %.1f, got %.1f", i, want, batchTime)
		}
	}

	if q.Len() != 0 {
		t.Errorf("Expected empty queue, got length %d", q.Len())
	}
}

func TestEventQueueBatchesSameTimestamp(t *testing.T) {
	q := NewCancelableEventQueue()
	a := testNeuron("q.a")
	b := testNeuron("q.b")

	q.Push(NewSpikeHitEvent(10.0, a, SynapseV, 1.0))
	q.Push(NewNeuronResetEvent(10.0, b))
	q.Push(NewSpikeHitEvent(10.0, b, SynapseGf, 0.5))
	q.Push(NewSpikeHitEvent(12.0, a, SynapseV, 1.0))

	batchTime, batch := q.PopBatch()
	if batchTime != 10.0 {
		t.Errorf("Expected batch time 10.0, got %.1f", batchTime)
	}
	if len(batch) != 3 {
		t.Fatalf("Expected all 3 events at t=10.0 in one batch, got %d", len(batch))
	}
	if q.Len() != 1 {
		t.Errorf("Expected 1 event left, got %d", q.Len())
	}

	batchTime, batch = q.PopBatch()
	if batchTime != 12.0 || len(batch) != 1 {
		t.Errorf("Expected single event at t=12.0, got %d events at %.1f", len(batch), batchTime)
	}
}

func TestEventQueueRemoveByID(t *testing.T) {
	t.Run("removes a pending event", func(t *testing.T) {
		q := NewCancelableEventQueue()
		n := testNeuron("q.a")

		keep := q.Push(NewSpikeHitEvent(5.0, n, SynapseV, 1.0))
		drop := q.Push(NewSpikeHitEvent(5.0, n, SynapseV, 2.0))

		if !q.Remove(drop) {
			t.Fatal("Remove of a pending event should report true")
		}
		if q.Contains(drop) {
			t.Error("Removed event should no longer be pending")
		}
		if !q.Contains(keep) {
			t.Error("Sibling event with identical time/target must be untouched")
		}

		_, batch := q.PopBatch()
		if len(batch) != 1 {
			t.Fatalf("Expected 1 surviving event, got %d", len(batch))
		}
		if batch[0].ID() != keep {
			t.Errorf("Expected surviving event %d, got %d", keep, batch[0].ID())
		}
	})

	t.Run("idempotent on double remove", func(t *testing.T) {
		q := NewCancelableEventQueue()
		id := q.Push(NewSpikeHitEvent(5.0, testNeuron("q.a"), SynapseV, 1.0))

		if !q.Remove(id) {
			t.Fatal("First remove should succeed")
		}
		if q.Remove(id) {
			t.Error("Second remove of the same identity must be a no-op")
		}
	})

	t.Run("no-op on already-popped event", func(t *testing.T) {
		q := NewCancelableEventQueue()
		id := q.Push(NewSpikeHitEvent(5.0, testNeuron("q.a"), SynapseV, 1.0))
		q.PopBatch()

		if q.Remove(id) {
			t.Error("Remove of a fired event must be a silent no-op")
		}
		if q.Len() != 0 {
			t.Errorf("Queue corrupted by stale remove, length %d", q.Len())
		}
	})

	t.Run("counts cancellations", func(t *testing.T) {
		q := NewCancelableEventQueue()
		id1 := q.Push(NewSpikeHitEvent(1.0, testNeuron("q.a"), SynapseV, 1.0))
		id2 := q.Push(NewSpikeHitEvent(2.0, testNeuron("q.a"), SynapseV, 1.0))
		q.Remove(id1)
		q.Remove(id2)
		q.Remove(id2) // stale, not counted

		if q.Canceled() != 2 {
			t.Errorf("Expected 2 cancellations, got %d", q.Canceled())
		}
	})
}

func TestEventQueueRemovedEventNeverPopped(t *testing.T) {
	q := NewCancelableEventQueue()
	n := testNeuron("q.a")

	var removed EventID
	ids := make(map[EventID]bool)
	for i := 0; i < 20; i++ {
		id := q.Push(NewSpikeHitEvent(float64(i%5), n, SynapseV, 1.0))
		ids[id] = true
		if i == 7 {
			removed = id
		}
	}
	q.Remove(removed)

	popped := make(map[EventID]bool)
	for q.Len() > 0 {
		_, batch := q.PopBatch()
		for _, event := range batch {
			popped[event.ID()] = true
		}
	}

	if popped[removed] {
		t.Error("A canceled event must never be observed as processed")
	}
	if len(popped) != len(ids)-1 {
		t.Errorf("Expected %d popped events, got %d", len(ids)-1, len(popped))
	}
}

func TestEventQueueStress(t *testing.T) {
	q := NewCancelableEventQueue()
	n := testNeuron("q.a")

	const count = 1000
	for i := 0; i < count; i++ {
		ts := float64((i * 7) % 100)
		q.Push(NewSpikeHitEvent(ts, n, SynapseV, 1.0))
	}
	// Cancel a scattered third of them
	for id := EventID(1); id <= count; id += 3 {
		q.Remove(id)
	}

	lastTime := -1.0
	total := 0
	for q.Len() > 0 {
		batchTime, batch := q.PopBatch()
		if batchTime <= lastTime {
			t.Fatalf("Batch times must strictly increase: %.1f after %.1f", batchTime, lastTime)
		}
		lastTime = batchTime
		total += len(batch)
	}

	expected := count - (count+2)/3
	if total != expected {
		t.Errorf("Expected %d surviving events, got %d", expected, total)
	}
}
