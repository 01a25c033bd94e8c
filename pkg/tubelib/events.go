package tubelib

import (
	"sync"
)

// EventType names a Manager event.
type EventType string

const (
	// EventQueueUpdated carries a full copy of the queue in Jobs.
	EventQueueUpdated EventType = "queue-updated"
	// EventStatusChanged carries JobID and Status.
	EventStatusChanged EventType = "status-changed"
	// EventProgress carries JobID and Progress.
	EventProgress EventType = "progress"
	// EventCompleted carries JobID.
	EventCompleted EventType = "completed"
	// EventError carries JobID, Message, Kind and Retryable.
	EventError EventType = "error"
)

// DefaultEventBuffer is the per-subscriber channel capacity.
const DefaultEventBuffer = 256

// Event is an observational notification. Events are never required for
// correctness; a slow subscriber loses events instead of stalling the
// queue.
type Event struct {
	Type      EventType `json:"type"`
	JobID     string    `json:"job_id,omitempty"`
	Status    Status    `json:"status,omitempty"`
	Progress  Progress  `json:"progress"`
	Message   string    `json:"message,omitempty"`
	Kind      ErrorKind `json:"kind,omitempty"`
	Retryable bool      `json:"retryable,omitempty"`
	Jobs      []Job     `json:"jobs,omitempty"`
}

// broker fans events out to subscribers without ever blocking the
// publisher.
type broker struct {
	subs   map[int]chan Event
	next   int
	closed bool
	mu     sync.Mutex
}

func newBroker() *broker {
	return &broker{subs: make(map[int]chan Event)}
}

func (b *broker) subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	ch := make(chan Event, buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.next
	b.next++
	b.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

func (b *broker) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (b *broker) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *broker) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
