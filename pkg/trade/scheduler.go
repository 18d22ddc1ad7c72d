package trade

import (
	"container/heap"
	"math"
	"time"
)

// Default settlement delay bounds for pending limit orders.
const (
	DefaultSettleMin = 60 * time.Second
	DefaultSettleMax = 300 * time.Second
)

// settlement is one scheduled fill
type settlement struct {
	fireAt  time.Time
	seq     uint64
	orderID string
	index   int // position in the heap, maintained by Swap
}

// settlementHeap implements heap.Interface (earliest fireAt on top, ties by seq)
// Use container/heap package to manipulate this heap (Init, Push, Pop, Remove)
type settlementHeap []*settlement

func (h settlementHeap) Len() int { return len(h) }
func (h settlementHeap) Less(i, j int) bool {
	if !h[i].fireAt.Equal(h[j].fireAt) {
		return h[i].fireAt.Before(h[j].fireAt)
	}
	return h[i].seq < h[j].seq
}
func (h settlementHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *settlementHeap) Push(x interface{}) {
	s := x.(*settlement)
	s.index = len(*h)
	*h = append(*h, s)
}

func (h *settlementHeap) Pop() interface{} {
	old := *h
	n := len(old)
	s := old[n-1]
	old[n-1] = nil
	s.index = -1
	*h = old[0 : n-1]
	return s
}

// Scheduler is a priority queue of pending-order fills keyed by order id.
// Not safe for concurrent use: the Engine lock guards it.
// Wake() signals the settlement loop whenever the head may have changed.
type Scheduler struct {
	minDelay time.Duration
	maxDelay time.Duration
	queue    settlementHeap
	byID     map[string]*settlement
	nextSeq  uint64
	wake     chan struct{}
}

// NewScheduler creates a scheduler whose delays fall in [minDelay, maxDelay)
func NewScheduler(minDelay, maxDelay time.Duration) *Scheduler {
	if minDelay <= 0 {
		minDelay = DefaultSettleMin
	}
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Scheduler{
		minDelay: minDelay,
		maxDelay: maxDelay,
		byID:     make(map[string]*settlement),
		wake:     make(chan struct{}, 1),
	}
}

// Delay returns the deterministic settlement delay for orderID.
// Formula: minDelay + floor(hash01(orderID) × (maxDelay - minDelay)) milliseconds
func (s *Scheduler) Delay(orderID string) time.Duration {
	spanMs := float64((s.maxDelay - s.minDelay) / time.Millisecond)
	return s.minDelay + time.Duration(math.Floor(hash01(orderID)*spanMs))*time.Millisecond
}

// Schedule queues orderID to fire Delay(orderID) after now.
// Scheduling an id that is already queued is a no-op.
func (s *Scheduler) Schedule(orderID string, now time.Time) time.Time {
	if e, ok := s.byID[orderID]; ok {
		return e.fireAt
	}
	s.nextSeq++
	e := &settlement{fireAt: now.Add(s.Delay(orderID)), seq: s.nextSeq, orderID: orderID}
	heap.Push(&s.queue, e)
	s.byID[orderID] = e
	s.signal()
	return e.fireAt
}

// Cancel removes orderID's entry. Returns false if none was queued.
func (s *Scheduler) Cancel(orderID string) bool {
	e, ok := s.byID[orderID]
	if !ok {
		return false
	}
	heap.Remove(&s.queue, e.index)
	delete(s.byID, orderID)
	s.signal()
	return true
}

// FireAt returns when orderID is due, if queued
func (s *Scheduler) FireAt(orderID string) (time.Time, bool) {
	e, ok := s.byID[orderID]
	if !ok {
		return time.Time{}, false
	}
	return e.fireAt, true
}

// PopDue removes and returns the earliest entry due at or before now
func (s *Scheduler) PopDue(now time.Time) (string, bool) {
	if s.queue.Len() == 0 || s.queue[0].fireAt.After(now) {
		return "", false
	}
	e := heap.Pop(&s.queue).(*settlement)
	delete(s.byID, e.orderID)
	return e.orderID, true
}

// Next returns the earliest fire time
func (s *Scheduler) Next() (time.Time, bool) {
	if s.queue.Len() == 0 {
		return time.Time{}, false
	}
	return s.queue[0].fireAt, true
}

// Len returns number of queued settlements
func (s *Scheduler) Len() int {
	return s.queue.Len()
}

// Wake fires (non-blocking, coalesced) when the queue head may have changed
func (s *Scheduler) Wake() <-chan struct{} {
	return s.wake
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
