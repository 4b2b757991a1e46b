package simulator

import "container/heap"

// CancelableEventQueue is a priority queue for simulation events, ordered by
// timestamp, that additionally supports removing a specific still-pending
// event by identity. The predictive engine schedules events speculatively
// and must be able to cancel exactly the events derived from a stale
// prediction, so the queue tracks every event's heap position.
type CancelableEventQueue struct {
	events   eventHeap
	pending  map[EventID]Event
	nextID   EventID
	canceled uint64
}

// NewCancelableEventQueue creates a new empty queue
func NewCancelableEventQueue() *CancelableEventQueue {
	eq := &CancelableEventQueue{
		events:  make(eventHeap, 0),
		pending: make(map[EventID]Event),
		nextID:  1,
	}
	heap.Init(&eq.events)
	return eq
}

// Push adds an event to the queue, stamping it with a fresh identity
func (eq *CancelableEventQueue) Push(event Event) EventID {
	id := eq.nextID
	eq.nextID++
	event.meta().id = id
	eq.pending[id] = event
	heap.Push(&eq.events, event)
	return id
}

// Remove cancels the pending event with the given identity. Removing an
// event that already fired or was already removed is a silent no-op:
// cancellation racing with delivery must never corrupt state.
func (eq *CancelableEventQueue) Remove(id EventID) bool {
	event, ok := eq.pending[id]
	if !ok {
		return false
	}
	heap.Remove(&eq.events, event.meta().heapPos)
	delete(eq.pending, id)
	eq.canceled++
	return true
}

// PopBatch removes and returns all events sharing the current minimum
// timestamp. Returns an empty batch when the queue is empty (the engine's
// loop terminator). Events within a batch are not further ordered.
func (eq *CancelableEventQueue) PopBatch() (float64, []Event) {
	if eq.events.Len() == 0 {
		return 0, nil
	}
	minTime := eq.events[0].Timestamp()
	var batch []Event
	for eq.events.Len() > 0 && eq.events[0].Timestamp() == minTime {
		event := heap.Pop(&eq.events).(Event)
		delete(eq.pending, event.ID())
		batch = append(batch, event)
	}
	return minTime, batch
}

// Peek returns the earliest event without removing it, or nil when empty
func (eq *CancelableEventQueue) Peek() Event {
	if eq.events.Len() == 0 {
		return nil
	}
	return eq.events[0]
}

// Contains reports whether an event with the given identity is still pending
func (eq *CancelableEventQueue) Contains(id EventID) bool {
	_, ok := eq.pending[id]
	return ok
}

// IsEmpty returns true if the queue is empty
func (eq *CancelableEventQueue) IsEmpty() bool {
	return eq.events.Len() == 0
}

// Len returns the number of pending events
func (eq *CancelableEventQueue) Len() int {
	return eq.events.Len()
}

// Canceled returns the total number of events removed by identity so far
func (eq *CancelableEventQueue) Canceled() uint64 {
	return eq.canceled
}

// eventHeap implements heap.Interface, keeping each event's heapPos in sync
// with every sift so Remove stays O(log n)
type eventHeap []Event

func (h eventHeap) Len() int           { return len(h) }
func (h eventHeap) Less(i, j int) bool { return h[i].Timestamp() < h[j].Timestamp() }

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].meta().heapPos = i
	h[j].meta().heapPos = j
}

func (h *eventHeap) Push(x interface{}) {
	event := x.(Event)
	event.meta().heapPos = len(*h)
	*h = append(*h, event)
}

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	event := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return event
}
