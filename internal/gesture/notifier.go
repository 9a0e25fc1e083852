package gesture

import (
	"sync"
	"sync/atomic"

	"github.com/ayusman/abhinaya/internal/log"
)

// DefaultNotifyBuffer is the number of events a Notifier queues before dropping.
const DefaultNotifyBuffer = 64

// Listener receives gesture events.
type Listener interface {
	OnGesture(kind Kind)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(kind Kind)

// OnGesture calls f(kind).
func (f ListenerFunc) OnGesture(kind Kind) {
	f(kind)
}

// Handlers is a Listener with one optional callback per gesture.
// Callbacks left nil are skipped.
type Handlers struct {
	NodLeft        func()
	NodRight       func()
	RightEyeBlink  func()
	LeftEyeBlink   func()
	Smile          func()
	DoubleEyeBlink func()
}

// OnGesture runs the callback registered for kind, if any.
func (h *Handlers) OnGesture(kind Kind) {
	if h == nil {
		return
	}

	var fn func()
	switch kind {
	case NodLeft:
		fn = h.NodLeft
	case NodRight:
		fn = h.NodRight
	case RightEyeBlink:
		fn = h.RightEyeBlink
	case LeftEyeBlink:
		fn = h.LeftEyeBlink
	case Smile:
		fn = h.Smile
	case DoubleEyeBlink:
		fn = h.DoubleEyeBlink
	}

	if fn != nil {
		fn()
	}
}

// Listeners passes each event to every listener in order. Nil entries are
// skipped.
type Listeners []Listener

// OnGesture calls OnGesture on each listener.
func (ls Listeners) OnGesture(kind Kind) {
	for _, l := range ls {
		if l != nil {
			l.OnGesture(kind)
		}
	}
}

type listenerRef struct {
	listener Listener
}

type delivery struct {
	listener Listener
	kind     Kind
}

// Notifier delivers gesture events to a single replaceable listener on
// its own goroutine, in the order Notify was called.
//
// The listener is looked up when Notify is called. Events already queued
// keep going to the listener that was current at that time even if
// SetListener replaces it afterwards.
type Notifier struct {
	listener atomic.Pointer[listenerRef]

	mu     sync.RWMutex // guards closed against concurrent sends
	closed bool
	queue  chan delivery
	done   chan struct{}
}

// NewNotifier creates a Notifier that queues up to buffer events and
// starts its delivery goroutine.
func NewNotifier(buffer int) *Notifier {
	if buffer <= 0 {
		buffer = DefaultNotifyBuffer
	}

	n := &Notifier{
		queue: make(chan delivery, buffer),
		done:  make(chan struct{}),
	}
	go n.run()
	return n
}

// SetListener replaces the listener. A nil listener discards later events.
func (n *Notifier) SetListener(l Listener) {
	if l == nil {
		n.listener.Store(nil)
		return
	}
	n.listener.Store(&listenerRef{listener: l})
}

// Listener returns the current listener, or nil.
func (n *Notifier) Listener() Listener {
	ref := n.listener.Load()
	if ref == nil {
		return nil
	}
	return ref.listener
}

// Notify queues kind for delivery and returns immediately. It reports
// false when the event was discarded: no listener, a full queue, or a
// closed notifier.
func (n *Notifier) Notify(kind Kind) bool {
	ref := n.listener.Load()
	if ref == nil {
		return false
	}

	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		return false
	}

	select {
	case n.queue <- delivery{listener: ref.listener, kind: kind}:
		return true
	default:
		log.Warn("gesture queue full, dropping event", "gesture", kind)
		return false
	}
}

// Close stops accepting events, delivers the ones already queued, and
// waits for the delivery goroutine to exit.
func (n *Notifier) Close() {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()

	<-n.done
}

func (n *Notifier) run() {
	defer close(n.done)
	for d := range n.queue {
		deliver(d)
	}
}

func deliver(d delivery) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("gesture listener panicked", "gesture", d.kind, "panic", r)
		}
	}()
	d.listener.OnGesture(d.kind)
}
