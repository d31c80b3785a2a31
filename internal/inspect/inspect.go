// Package inspect carries executed operations from a running machine to
// at most one observer without ever blocking the machine.
package inspect

import (
	"sync"

	"github.com/FabianRolfMatthiasNoll/gbstep/internal/isa"
)

// Event describes one executed instruction.
type Event struct {
	Address   uint16
	Operation isa.Operation
}

// queue is an unbounded FIFO shared by one Sender and one Receiver.
type queue struct {
	mu     sync.Mutex
	ready  sync.Cond
	items  []Event
	head   int
	sendOK bool // sender still open
	recvOK bool // receiver still open
}

// New returns a connected sender/receiver pair.
func New() (*Sender, *Receiver) {
	q := &queue{sendOK: true, recvOK: true}
	q.ready.L = &q.mu
	return &Sender{q: q}, &Receiver{q: q}
}

// Sender is the producing half, owned by the machine.
type Sender struct{ q *queue }

// Send enqueues ev. It never blocks and reports false once the receiver
// has been closed.
func (s *Sender) Send(ev Event) bool {
	q := s.q
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.recvOK || !q.sendOK {
		return false
	}
	q.items = append(q.items, ev)
	q.ready.Signal()
	return true
}

// Close tells the receiver no more events will arrive. Queued events
// remain readable.
func (s *Sender) Close() {
	q := s.q
	q.mu.Lock()
	q.sendOK = false
	q.mu.Unlock()
	q.ready.Broadcast()
}

// Receiver is the consuming half.
type Receiver struct{ q *queue }

// Recv blocks until an event is available. ok is false once the sender
// has closed and the queue is drained, or after the receiver is closed.
func (r *Receiver) Recv() (ev Event, ok bool) {
	q := r.q
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.pending() == 0 && q.sendOK && q.recvOK {
		q.ready.Wait()
	}
	return q.pop()
}

// TryRecv returns the next event if one is queued.
func (r *Receiver) TryRecv() (ev Event, ok bool) {
	q := r.q
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pop()
}

// Len is the number of queued events.
func (r *Receiver) Len() int {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()
	return r.q.pending()
}

// Close disconnects the receiver. Queued events are dropped and later
// sends fail.
func (r *Receiver) Close() {
	q := r.q
	q.mu.Lock()
	q.recvOK = false
	q.items, q.head = nil, 0
	q.mu.Unlock()
	q.ready.Broadcast()
}

func (q *queue) pending() int { return len(q.items) - q.head }

func (q *queue) pop() (Event, bool) {
	if !q.recvOK || q.pending() == 0 {
		return Event{}, false
	}
	ev := q.items[q.head]
	q.items[q.head] = Event{}
	q.head++
	if q.head == len(q.items) {
		q.items, q.head = q.items[:0], 0
	}
	return ev, true
}
