package trade

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Subscriber receives every account snapshot broadcast. It runs outside the
// engine lock and may call back into the Engine, including mutations.
type Subscriber func(Snapshot)

// delivery is one queued snapshot. target != 0 sends it to that subscriber
// only; otherwise it goes to every subscriber with id <= maxID.
type delivery struct {
	snap   Snapshot
	target uint64
	maxID  uint64
}

// Publisher fans snapshots out to subscribers in enqueue order.
//
// Enqueue calls are made under the engine lock, so the queue holds snapshots
// in mutation order. Drain is single-flight: whichever goroutine finds the
// queue idle delivers everything queued, including snapshots enqueued by
// subscribers while it runs. A panicking subscriber is logged and skipped.
type Publisher struct {
	mu       sync.Mutex
	subs     map[uint64]Subscriber
	nextID   uint64
	queue    []delivery
	draining bool
	logger   *zap.Logger
}

func NewPublisher(logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{subs: make(map[uint64]Subscriber), logger: logger}
}

func (p *Publisher) add(fn Subscriber) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	p.subs[p.nextID] = fn
	return p.nextID
}

func (p *Publisher) remove(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.subs, id)
}

// Len returns number of live subscribers
func (p *Publisher) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// Enqueue queues snap for every current subscriber
func (p *Publisher) Enqueue(snap Snapshot) {
	p.mu.Lock()
	p.queue = append(p.queue, delivery{snap: snap, maxID: p.nextID})
	p.mu.Unlock()
}

// enqueueTo queues snap for subscriber id only (replay on subscribe)
func (p *Publisher) enqueueTo(id uint64, snap Snapshot) {
	p.mu.Lock()
	p.queue = append(p.queue, delivery{snap: snap, target: id})
	p.mu.Unlock()
}

// Publish enqueues snap and drains the queue
func (p *Publisher) Publish(snap Snapshot) {
	p.Enqueue(snap)
	p.Drain()
}

// Drain delivers queued snapshots until the queue is empty. It returns at
// once if another call is already draining.
func (p *Publisher) Drain() {
	p.mu.Lock()
	if p.draining {
		p.mu.Unlock()
		return
	}
	p.draining = true
	for len(p.queue) > 0 {
		d := p.queue[0]
		p.queue[0] = delivery{}
		p.queue = p.queue[1:]
		fns := p.targetsLocked(d)
		p.mu.Unlock()

		for _, fn := range fns {
			p.deliver(fn, d.snap)
		}
		p.mu.Lock()
	}
	p.queue = nil
	p.draining = false
	p.mu.Unlock()
}

func (p *Publisher) targetsLocked(d delivery) []Subscriber {
	if d.target != 0 {
		if fn, ok := p.subs[d.target]; ok {
			return []Subscriber{fn}
		}
		return nil
	}
	ids := make([]uint64, 0, len(p.subs))
	for id := range p.subs {
		if id <= d.maxID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]Subscriber, len(ids))
	for i, id := range ids {
		fns[i] = p.subs[id]
	}
	return fns
}

func (p *Publisher) deliver(fn Subscriber, snap Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("subscriber_panicked", zap.Any("panic", r))
		}
	}()
	fn(snap)
}
