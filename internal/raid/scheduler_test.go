package raid

import (
	"context"
	"sync"
	"testing"
	"time"
)

// tickRecorder collects tick invocations by session ID.
type tickRecorder struct {
	mu    sync.Mutex
	ticks map[string]int
}

func newTickRecorder() *tickRecorder {
	return &tickRecorder{ticks: make(map[string]int)}
}

func (r *tickRecorder) tick(ctx context.Context, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks[id]++
}

func (r *tickRecorder) count(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ticks[id]
}

func TestScheduler_TicksArmedSession(t *testing.T) {
	rec := newTickRecorder()
	sc := NewScheduler(10*time.Millisecond, rec.tick)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sc.Run(ctx)

	sc.Add("s1")
	deadline := time.Now().Add(time.Second)
	for rec.count("s1") < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("expected at least 2 ticks, got %d", rec.count("s1"))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestScheduler_ReleaseStopsTicks(t *testing.T) {
	rec := newTickRecorder()
	sc := NewScheduler(10*time.Millisecond, rec.tick)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sc.Run(ctx)

	sc.Add("s1")
	deadline := time.Now().Add(time.Second)
	for rec.count("s1") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected a tick before release")
		}
		time.Sleep(5 * time.Millisecond)
	}

	sc.Release("s1")
	n := rec.count("s1")
	time.Sleep(50 * time.Millisecond)
	// The loop may have had one fire in flight at release time.
	if rec.count("s1") > n+1 {
		t.Fatalf("ticks continued after release: %d -> %d", n, rec.count("s1"))
	}
	if sc.Armed("s1") {
		t.Fatal("session should be disarmed after release")
	}
}

func TestScheduler_DoubleReleaseTolerated(t *testing.T) {
	sc := NewScheduler(time.Minute, func(ctx context.Context, id string) {})
	sc.Add("s1")
	sc.Release("s1")
	sc.Release("s1") // must not panic
	sc.Release("never-armed")
}

func TestScheduler_AddIsIdempotent(t *testing.T) {
	sc := NewScheduler(time.Minute, func(ctx context.Context, id string) {})
	sc.Add("s1")
	sc.Add("s1")
	if !sc.Armed("s1") {
		t.Fatal("expected armed")
	}
	sc.Release("s1")
	if sc.Armed("s1") {
		t.Fatal("expected disarmed after single release despite double add")
	}
}

func TestScheduler_IndependentSessions(t *testing.T) {
	rec := newTickRecorder()
	sc := NewScheduler(10*time.Millisecond, rec.tick)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sc.Run(ctx)

	sc.Add("s1")
	sc.Add("s2")
	sc.Release("s1")

	deadline := time.Now().Add(time.Second)
	for rec.count("s2") < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("expected s2 to keep ticking, got %d", rec.count("s2"))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestScheduler_DefaultPeriod(t *testing.T) {
	sc := NewScheduler(0, func(ctx context.Context, id string) {})
	if sc.period != DefaultTickPeriod {
		t.Fatalf("expected default period, got %v", sc.period)
	}
}

func TestTickHeap_MinOrdering(t *testing.T) {
	now := time.Now()
	h := tickHeap{
		{id: "late", at: now.Add(2 * time.Hour), index: 0},
		{id: "early", at: now.Add(time.Hour), index: 1},
	}
	if !h.Less(1, 0) {
		t.Fatal("earlier fire time should sort first")
	}
	h.Swap(0, 1)
	if h[0].id != "early" || h[0].index != 0 || h[1].index != 1 {
		t.Fatalf("swap did not maintain indexes: %+v", h)
	}
}
