package pump

import "sync"

// Snapshot is a point-in-time view of queue depths and their monotonic
// peaks. Peaks reset only when the process restarts.
type Snapshot struct {
	NotificationDepth int
	NotificationPeak  int
	PriorityDepth     int
	PriorityPeak      int
}

// Tracker is pure accounting for the notification pump: lane depths, peak
// depths, and drop counts by method. It performs no I/O.
type Tracker struct {
	mu sync.Mutex

	notifDepth int
	notifPeak  int
	prioDepth  int
	prioPeak   int

	drops         int64
	dropsByMethod map[string]int64
}

// NewTracker is
func NewTracker() *Tracker {
	return &Tracker{dropsByMethod: make(map[string]int64)}
}

func (t *Tracker) enqueued(priority bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if priority {
		t.prioDepth++
		if t.prioDepth > t.prioPeak {
			t.prioPeak = t.prioDepth
		}
	} else {
		t.notifDepth++
		if t.notifDepth > t.notifPeak {
			t.notifPeak = t.notifDepth
		}
	}
}

func (t *Tracker) dequeued(priority bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if priority {
		t.prioDepth--
	} else {
		t.notifDepth--
	}
}

// dropped records the eviction of a regular-lane item and returns the new
// total drop count, which callers use for sampled logging.
func (t *Tracker) dropped(method string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notifDepth--
	t.drops++
	t.dropsByMethod[method]++
	return t.drops
}

// rejected records a regular-lane item refused at enqueue time (shutdown);
// unlike dropped it does not touch depth because the item was never queued.
func (t *Tracker) rejected(method string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.drops++
	t.dropsByMethod[method]++
	return t.drops
}

// Drops returns the total number of dropped regular-lane items.
func (t *Tracker) Drops() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.drops
}

// DropsFor returns the drop count for one notification method.
func (t *Tracker) DropsFor(method string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropsByMethod[method]
}

// Snapshot returns current depths and peaks.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		NotificationDepth: t.notifDepth,
		NotificationPeak:  t.notifPeak,
		PriorityDepth:     t.prioDepth,
		PriorityPeak:      t.prioPeak,
	}
}
