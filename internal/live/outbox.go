package live

import "sync"

// outbox is an unbounded FIFO of outgoing messages. Views push to it while
// holding the session lock, so Push never blocks on the network.
type outbox struct {
	mu     sync.Mutex
	queue  []Message
	notify chan struct{}
	closed bool
}

func newOutbox() *outbox {
	return &outbox{notify: make(chan struct{}, 1)}
}

// Push appends m. Messages pushed after Close are dropped.
func (o *outbox) Push(m Message) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.queue = append(o.queue, m)
	o.mu.Unlock()

	select {
	case o.notify <- struct{}{}:
	default:
	}
}

// Drain removes and returns everything queued.
func (o *outbox) Drain() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.queue
	o.queue = nil
	return out
}

// Ready is signalled after a Push.
func (o *outbox) Ready() <-chan struct{} {
	return o.notify
}

// Close stops accepting messages.
func (o *outbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	o.queue = nil
}
