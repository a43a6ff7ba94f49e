package pump

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// blockingHandler lets tests hold the consumer inside the handler so queued
// items stay queued.
type blockingHandler struct {
	mu      sync.Mutex
	got     []string
	release chan struct{}
	started chan struct{}
	once    sync.Once
}

func newBlockingHandler() *blockingHandler {
	return &blockingHandler{
		release: make(chan struct{}),
		started: make(chan struct{}),
	}
}

func (b *blockingHandler) handle(item Item) {
	b.once.Do(func() { close(b.started) })
	<-b.release
	b.mu.Lock()
	b.got = append(b.got, item.Method)
	b.mu.Unlock()
}

func (b *blockingHandler) methods() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.got))
	copy(out, b.got)
	return out
}

func TestRegularLaneDropOldest(t *testing.T) {
	bh := newBlockingHandler()
	tracker := NewTracker()
	p := NewPump(bh.handle, tracker, nil, 2)

	// Occupy the consumer so A, B, C queue up behind it.
	p.Enqueue(Item{Method: "plug"})
	<-bh.started

	p.Enqueue(Item{Method: "A"})
	p.Enqueue(Item{Method: "B"})
	p.Enqueue(Item{Method: "C"})

	if got := tracker.DropsFor("A"); got != 1 {
		t.Fatalf("drop counter for A should be 1 but got: %d", got)
	}
	if got := tracker.Drops(); got != 1 {
		t.Fatalf("total drops should be 1 but got: %d", got)
	}
	snap := tracker.Snapshot()
	if snap.NotificationDepth != 2 {
		t.Fatalf("queue should hold [B C] (depth 2) but depth is: %d", snap.NotificationDepth)
	}

	close(bh.release)
	p.Close()

	want := []string{"plug", "B", "C"}
	if diff := cmp.Diff(want, bh.methods()); diff != "" {
		t.Fatalf("delivered methods mismatch (-want +got):\n%s", diff)
	}
}

func TestPriorityLaneNeverDrops(t *testing.T) {
	bh := newBlockingHandler()
	tracker := NewTracker()
	p := NewPump(bh.handle, tracker, nil, 2)

	const n = 50 // far beyond the regular capacity
	p.EnqueuePriority(Item{Method: "p0"})
	<-bh.started
	for i := 1; i < n; i++ {
		p.EnqueuePriority(Item{Method: "p"})
	}
	if got := tracker.Drops(); got != 0 {
		t.Fatalf("priority enqueues should never drop, got %d drops", got)
	}
	snap := tracker.Snapshot()
	if snap.PriorityPeak != n-1 {
		t.Fatalf("priority peak should be %d but got: %d", n-1, snap.PriorityPeak)
	}

	close(bh.release)
	p.Close()
	if got := len(bh.methods()); got != n {
		t.Fatalf("all %d priority items should be delivered but got: %d", n, got)
	}
}

func TestLaneOrderingFIFO(t *testing.T) {
	var mu sync.Mutex
	var got []string
	tracker := NewTracker()
	p := NewPump(func(item Item) {
		mu.Lock()
		got = append(got, item.Method)
		mu.Unlock()
	}, tracker, nil, 100)

	want := []string{"a", "b", "c", "d", "e"}
	for _, m := range want {
		p.Enqueue(Item{Method: m})
	}
	p.Close()

	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("regular lane should be FIFO (-want +got):\n%s", diff)
	}
}

func TestPriorityInlineAfterClose(t *testing.T) {
	var mu sync.Mutex
	var got []string
	tracker := NewTracker()
	p := NewPump(func(item Item) {
		mu.Lock()
		got = append(got, item.Method)
		mu.Unlock()
	}, tracker, nil, 10)
	p.Close()

	done := make(chan struct{})
	go func() {
		p.EnqueuePriority(Item{Method: "critical"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("priority enqueue after close should handle inline, not block")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != "critical" {
		t.Fatalf("item should be handled inline after close, got: %v", got)
	}
}

func TestRegularRejectedAfterCloseCounts(t *testing.T) {
	tracker := NewTracker()
	p := NewPump(func(Item) {}, tracker, nil, 10)
	p.Close()

	p.Enqueue(Item{Method: "late"})
	if got := tracker.DropsFor("late"); got != 1 {
		t.Fatalf("post-close regular enqueue should count as a drop, got: %d", got)
	}
	snap := tracker.Snapshot()
	if snap.NotificationDepth != 0 {
		t.Fatalf("depth should be untouched by rejected items, got: %d", snap.NotificationDepth)
	}
}

func TestTrackerPeaksAreMonotonic(t *testing.T) {
	tracker := NewTracker()
	tracker.enqueued(false)
	tracker.enqueued(false)
	tracker.enqueued(false)
	tracker.dequeued(false)
	tracker.dequeued(false)

	snap := tracker.Snapshot()
	if snap.NotificationDepth != 1 {
		t.Fatalf("depth should be 1 but got: %d", snap.NotificationDepth)
	}
	if snap.NotificationPeak != 3 {
		t.Fatalf("peak should remain 3 but got: %d", snap.NotificationPeak)
	}
}
