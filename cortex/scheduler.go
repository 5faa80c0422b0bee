package cortex

import "container/heap"

// Spike is an event popped by the scheduler: the node fired at the
// given time, and every one of its targets should integrate it.
type Spike struct {
	Time float64
	Node *Node

	// seq breaks ties between spikes at the same time in favour of
	// insertion order.
	seq int
}

// spikeHeap is a binary min-heap of spike events keyed by spike time.
type spikeHeap struct {
	events []Spike
	nextSeq int
}

func (h *spikeHeap) Len() int { return len(h.events) }

func (h *spikeHeap) Less(i, j int) bool {
	if h.events[i].Time != h.events[j].Time {
		return h.events[i].Time < h.events[j].Time
	}
	return h.events[i].seq < h.events[j].seq
}

func (h *spikeHeap) Swap(i, j int) {
	h.events[i], h.events[j] = h.events[j], h.events[i]
}

func (h *spikeHeap) Push(x any) {
	h.events = append(h.events, x.(Spike))
}

func (h *spikeHeap) Pop() any {
	old := h.events
	n := len(old)
	ev := old[n-1]
	h.events = old[:n-1]
	return ev
}

// Scheduler orders spike events by time, breaking ties by insertion
// order. Each network owns one; it is only touched by the worker
// currently evaluating that network.
type Scheduler struct {
	heap spikeHeap
}

// Push queues a spike event.
func (s *Scheduler) Push(ev Spike) {
	ev.seq = s.heap.nextSeq
	s.heap.nextSeq++
	heap.Push(&s.heap, ev)
}

// Pop removes and returns the earliest spike event.
func (s *Scheduler) Pop() Spike {
	return heap.Pop(&s.heap).(Spike)
}

// Empty reports whether any events remain.
func (s *Scheduler) Empty() bool {
	return s.heap.Len() == 0
}

// Reset discards all queued events.
func (s *Scheduler) Reset() {
	s.heap.events = s.heap.events[:0]
	s.heap.nextSeq = 0
}
