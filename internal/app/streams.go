// Package app holds the client-side application logic: the event
// streams, the room/participant reconciliation engine and the switch
// command codec.
package app

import (
	"sync"

	"github.com/guilleprfc/video-chat-app/internal/domain"
)

const subscriberBuffer = 16

// Stream is a typed broadcast channel that replays the latest published
// value to new subscribers. Publish never blocks: a subscriber that has
// fallen subscriberBuffer values behind misses intermediate updates and
// catches up on the next publish.
type Stream[T any] struct {
	mu    sync.Mutex
	subs  map[int]chan T
	next  int
	last  T
	valid bool
}

func NewStream[T any]() *Stream[T] {
	return &Stream[T]{subs: make(map[int]chan T)}
}

// Publish fans v out to all subscribers and caches it for replay.
func (s *Stream[T]) Publish(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = v
	s.valid = true
	for _, ch := range s.subs {
		select {
		case ch <- v:
		default:
		}
	}
}

// Subscribe registers a new receiver and replays the latest value, if
// any. The cancel func must be called to release the subscription.
func (s *Stream[T]) Subscribe() (<-chan T, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	ch := make(chan T, subscriberBuffer)
	if s.valid {
		ch <- s.last
	}
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
}

// Last returns the most recently published value.
func (s *Stream[T]) Last() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.valid
}

// Streams bundles every broadcast the orchestrator publishes to.
// External UI code subscribes here and never touches the orchestrator's
// internals.
type Streams struct {
	Rooms        *Stream[[]domain.Room]
	Participants *Stream[[]domain.Participant]
	Publishers   *Stream[[]domain.Publisher]
	CurrentUser  *Stream[domain.Participant]
	Talking      *Stream[domain.TalkEvent]
	StopTalking  *Stream[domain.TalkEvent]
	Errors       *Stream[error]
}

func NewStreams() *Streams {
	return &Streams{
		Rooms:        NewStream[[]domain.Room](),
		Participants: NewStream[[]domain.Participant](),
		Publishers:   NewStream[[]domain.Publisher](),
		CurrentUser:  NewStream[domain.Participant](),
		Talking:      NewStream[domain.TalkEvent](),
		StopTalking:  NewStream[domain.TalkEvent](),
		Errors:       NewStream[error](),
	}
}
