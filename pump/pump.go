// Package pump delivers backend notifications to a handler through two
// independent lanes: an unbounded priority lane for notifications whose loss
// would break correctness, and a bounded regular lane that drops its oldest
// item under sustained overload. Items within a lane are handled strictly in
// arrival order; the lanes make no ordering guarantee between each other.
package pump

import (
	"encoding/json"
	"log"
	"sync"
)

// DefaultCapacity is the regular-lane bound.
const DefaultCapacity = 1000

// dropLogSample limits drop logging to every Nth occurrence.
const dropLogSample = 100

// Item is one queued notification.
type Item struct {
	Method string
	Params json.RawMessage
}

// Handler processes one dequeued notification.
type Handler func(item Item)

type lane struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []Item
	closed bool
}

func newLane() *lane {
	l := &lane{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Pump is the two-lane asynchronous delivery queue.
type Pump struct {
	handler  Handler
	tracker  *Tracker
	logger   *log.Logger
	capacity int

	regular  *lane
	priority *lane
	wg       sync.WaitGroup
}

// NewPump starts one consumer goroutine per lane. capacity bounds the
// regular lane; zero selects DefaultCapacity.
func NewPump(handler Handler, tracker *Tracker, logger *log.Logger, capacity int) *Pump {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	p := &Pump{
		handler:  handler,
		tracker:  tracker,
		logger:   logger,
		capacity: capacity,
		regular:  newLane(),
		priority: newLane(),
	}
	p.wg.Add(2)
	go p.consume(p.regular, false)
	go p.consume(p.priority, true)
	return p
}

// Enqueue places an item on the regular lane. When the lane is full the
// oldest queued item is evicted and counted against its method. Items
// arriving after Close are dropped.
func (p *Pump) Enqueue(item Item) {
	l := p.regular
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		total := p.tracker.rejected(item.Method)
		p.logDrop(item.Method, total)
		return
	}
	if len(l.items) >= p.capacity {
		evicted := l.items[0]
		l.items = l.items[:copy(l.items, l.items[1:])]
		total := p.tracker.dropped(evicted.Method)
		p.logDrop(evicted.Method, total)
	}
	l.items = append(l.items, item)
	p.tracker.enqueued(false)
	l.cond.Signal()
	l.mu.Unlock()
}

// EnqueuePriority places an item on the priority lane, which never drops.
// If the lane cannot accept the item (shutdown in progress), the handler
// runs inline instead.
func (p *Pump) EnqueuePriority(item Item) {
	l := p.priority
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		p.handler(item)
		return
	}
	l.items = append(l.items, item)
	p.tracker.enqueued(true)
	l.cond.Signal()
	l.mu.Unlock()
}

// Close stops both lanes. Consumers drain already-queued items before
// exiting; Close returns once both loops have finished.
func (p *Pump) Close() {
	for _, l := range []*lane{p.regular, p.priority} {
		l.mu.Lock()
		l.closed = true
		l.cond.Broadcast()
		l.mu.Unlock()
	}
	p.wg.Wait()
}

func (p *Pump) consume(l *lane, priority bool) {
	defer p.wg.Done()
	for {
		l.mu.Lock()
		for len(l.items) == 0 && !l.closed {
			l.cond.Wait()
		}
		if len(l.items) == 0 && l.closed {
			l.mu.Unlock()
			return
		}
		item := l.items[0]
		l.items = l.items[:copy(l.items, l.items[1:])]
		l.mu.Unlock()

		p.tracker.dequeued(priority)
		p.handler(item)
	}
}

func (p *Pump) logDrop(method string, total int64) {
	if p.logger == nil {
		return
	}
	if total%dropLogSample == 1 {
		p.logger.Printf("notification pump: dropped %q under load (%d total drops)", method, total)
	}
}
