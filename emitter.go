package live

import "sync"

type EventKind string

const (
	EventOpen                 EventKind = "open"
	EventClose                EventKind = "close"
	EventContent              EventKind = "content"
	EventToolCall             EventKind = "toolcall"
	EventToolCallCancellation EventKind = "toolcallcancellation"
	EventAudio                EventKind = "audio"
	EventInterrupted          EventKind = "interrupted"
	EventTurnComplete         EventKind = "turncomplete"
	EventLog                  EventKind = "log"
)

// Event is the payload delivered to subscribers. Only the fields matching
// Kind are populated.
type Event struct {
	Kind EventKind

	Content      *ServerContent // EventContent
	ToolCall     *ToolCall      // EventToolCall
	CancelledIDs []string       // EventToolCallCancellation
	Audio        []byte         // EventAudio, raw bytes already base64-decoded
	CloseReason  string         // EventClose
	Log          string         // EventLog
}

type Handler func(Event)

type subscription struct {
	id int
	fn Handler
}

// emitter is a multi-consumer pub/sub with in-order delivery. Handler lists
// are copy-on-write so unsubscribing during dispatch is safe: the dispatch in
// flight keeps its snapshot, later dispatches see the updated list.
type emitter struct {
	mu       sync.Mutex
	seq      int
	handlers map[EventKind][]subscription
}

func (e *emitter) subscribe(kind EventKind, fn Handler) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handlers == nil {
		e.handlers = make(map[EventKind][]subscription)
	}
	e.seq++
	id := e.seq
	old := e.handlers[kind]
	next := make([]subscription, len(old), len(old)+1)
	copy(next, old)
	e.handlers[kind] = append(next, subscription{id: id, fn: fn})
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		old := e.handlers[kind]
		next := make([]subscription, 0, len(old))
		for _, sub := range old {
			if sub.id != id {
				next = append(next, sub)
			}
		}
		e.handlers[kind] = next
	}
}

func (e *emitter) emit(ev Event) {
	e.mu.Lock()
	subs := e.handlers[ev.Kind]
	e.mu.Unlock()
	for _, sub := range subs {
		sub.fn(ev)
	}
}
