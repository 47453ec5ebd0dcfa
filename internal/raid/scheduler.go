package raid

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// DefaultTickPeriod is the interval between status re-evaluations of a
// pending session.
const DefaultTickPeriod = 60 * time.Second

// TickFunc is invoked by the Scheduler once per period per session until
// the session's handle is released.
type TickFunc func(ctx context.Context, sessionID string)

// tickEntry is one scheduled session in the heap.
type tickEntry struct {
	id    string
	at    time.Time // next fire time
	index int       // heap index, maintained by tickHeap
}

// tickHeap is a min-heap of tick entries ordered by fire time.
type tickHeap []*tickEntry

func (h tickHeap) Len() int            { return len(h) }
func (h tickHeap) Less(i, j int) bool  { return h[i].at.Before(h[j].at) }
func (h tickHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *tickHeap) Push(x interface{}) { e := x.(*tickEntry); e.index = len(*h); *h = append(*h, e) }
func (h *tickHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Scheduler drives per-session recurring ticks from a single loop over a
// min-heap of fire times, rather than one OS timer per session. A session's
// handle is armed by Add and released exactly once by Release (double
// release is tolerated).
type Scheduler struct {
	period time.Duration
	tick   TickFunc

	mu      sync.Mutex
	heap    tickHeap
	entries map[string]*tickEntry
	wake    chan struct{}
}

// NewScheduler creates a Scheduler. A period <= 0 falls back to
// DefaultTickPeriod.
func NewScheduler(period time.Duration, tick TickFunc) *Scheduler {
	if period <= 0 {
		period = DefaultTickPeriod
	}
	return &Scheduler{
		period:  period,
		tick:    tick,
		entries: make(map[string]*tickEntry),
		wake:    make(chan struct{}, 1),
	}
}

// Add arms the recurring tick for a session. The first tick fires one
// period after Add; a session whose deadline already passed therefore
// resolves on that first tick. Adding an already-armed session is a no-op.
func (sc *Scheduler) Add(sessionID string) {
	sc.mu.Lock()
	if _, ok := sc.entries[sessionID]; ok {
		sc.mu.Unlock()
		return
	}
	e := &tickEntry{id: sessionID, at: time.Now().Add(sc.period)}
	sc.entries[sessionID] = e
	heap.Push(&sc.heap, e)
	sc.mu.Unlock()
	sc.poke()
}

// Release disarms the session's tick. Releasing an unknown or already
// released session is a no-op.
func (sc *Scheduler) Release(sessionID string) {
	sc.mu.Lock()
	e, ok := sc.entries[sessionID]
	if ok {
		delete(sc.entries, sessionID)
		heap.Remove(&sc.heap, e.index)
	}
	sc.mu.Unlock()
	if ok {
		sc.poke()
	}
}

// Armed reports whether the session currently has a scheduled tick.
func (sc *Scheduler) Armed(sessionID string) bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	_, ok := sc.entries[sessionID]
	return ok
}

// poke nudges the run loop to recompute its wait.
func (sc *Scheduler) poke() {
	select {
	case sc.wake <- struct{}{}:
	default:
	}
}

// Run drives the tick loop until ctx is cancelled. Due entries are re-armed
// one period ahead and their TickFunc invoked in its own goroutine, so a
// slow resolution on one session never delays ticks for another.
func (sc *Scheduler) Run(ctx context.Context) {
	timer := time.NewTimer(sc.period)
	defer timer.Stop()

	for {
		var wait time.Duration
		now := time.Now()

		sc.mu.Lock()
		for sc.heap.Len() > 0 && !sc.heap[0].at.After(now) {
			e := sc.heap[0]
			e.at = e.at.Add(sc.period)
			heap.Fix(&sc.heap, 0)
			go sc.tick(ctx, e.id)
		}
		if sc.heap.Len() > 0 {
			wait = time.Until(sc.heap[0].at)
		} else {
			wait = sc.period
		}
		sc.mu.Unlock()

		if wait < time.Millisecond {
			wait = time.Millisecond
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-sc.wake:
		}
	}
}
