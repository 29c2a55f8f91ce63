package httptransport

import (
	"encoding/json"
	"sync"
	"time"
)

const subscriberBuffer = 64

// Event is one run loop notification as streamed to clients.
type Event struct {
	Type    string    `json:"type"`
	JobID   string    `json:"jobId"`
	Percent int       `json:"percent,omitempty"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

// Broadcaster fans run loop events out to SSE subscribers. A subscriber
// that falls behind loses events; it can always re-read the snapshot.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
	now  func() time.Time
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: map[chan Event]struct{}{}, now: time.Now}
}

func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Broadcaster) publish(e Event) {
	e.At = b.now().UTC()
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (b *Broadcaster) OnStart(jobID string) {
	b.publish(Event{Type: "started", JobID: jobID})
}

func (b *Broadcaster) OnProgress(jobID string, percent int) {
	b.publish(Event{Type: "progress", JobID: jobID, Percent: percent})
}

func (b *Broadcaster) OnComplete(jobID string, _ json.RawMessage) {
	b.publish(Event{Type: "completed", JobID: jobID, Percent: 100})
}

func (b *Broadcaster) OnError(jobID string, message string) {
	b.publish(Event{Type: "failed", JobID: jobID, Message: message})
}
