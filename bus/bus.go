package bus

import "sync"

// defaultDepth bounds the bus's internal buffer; Publish blocks once full,
// giving the same natural backpressure the scheduler's queues use.
const defaultDepth = 1024

// Bus is the single global multi-producer, single-consumer Event queue of
// §6: any number of goroutines may Publish; exactly one consumer drains
// Events.
type Bus struct {
	ch     chan Event
	once   sync.Once
	closed chan struct{}
}

// New constructs a Bus with the given buffer depth (0 uses the default).
func New(depth int) *Bus {
	if depth <= 0 {
		depth = defaultDepth
	}
	return &Bus{ch: make(chan Event, depth), closed: make(chan struct{})}
}

// Publish enqueues e, blocking if the bus is full. It is safe to call
// from any number of goroutines concurrently.
func (b *Bus) Publish(e Event) {
	select {
	case b.ch <- e:
	case <-b.closed:
	}
}

// TryPublish enqueues e without blocking, reporting false if the buffer
// is full or the bus is closed.
func (b *Bus) TryPublish(e Event) bool {
	select {
	case <-b.closed:
		return false
	default:
	}
	select {
	case b.ch <- e:
		return true
	default:
		return false
	}
}

// Events returns the channel the single consumer drains.
func (b *Bus) Events() <-chan Event { return b.ch }

// Done returns a channel closed once Close has been called, so the
// consumer's select loop can stop alongside blocked producers instead of
// relying on the (never closed) Events channel for shutdown.
func (b *Bus) Done() <-chan struct{} { return b.closed }

// Close unblocks any pending or future Publish calls. The data channel
// itself is never closed (a live producer could otherwise panic sending
// on it); consumers should select on Done alongside Events.
func (b *Bus) Close() {
	b.once.Do(func() { close(b.closed) })
}
