package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for stream value")
		panic("unreachable")
	}
}

func TestStreamReplaysLatestToNewSubscriber(t *testing.T) {
	s := NewStream[int]()
	s.Publish(1)
	s.Publish(2)

	ch, cancel := s.Subscribe()
	defer cancel()
	require.Equal(t, 2, recv(t, ch))
}

func TestStreamFansOut(t *testing.T) {
	s := NewStream[string]()
	a, cancelA := s.Subscribe()
	defer cancelA()
	b, cancelB := s.Subscribe()
	defer cancelB()

	s.Publish("hello")
	require.Equal(t, "hello", recv(t, a))
	require.Equal(t, "hello", recv(t, b))
}

func TestStreamCancelStopsDelivery(t *testing.T) {
	s := NewStream[int]()
	ch, cancel := s.Subscribe()
	cancel()

	// Publishing after cancel must not panic or block.
	s.Publish(7)
	_, open := <-ch
	require.False(t, open)
}

func TestStreamPublishNeverBlocks(t *testing.T) {
	s := NewStream[int]()
	_, cancel := s.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*3; i++ {
			s.Publish(i)
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestStreamLast(t *testing.T) {
	s := NewStream[int]()
	_, ok := s.Last()
	require.False(t, ok)

	s.Publish(9)
	v, ok := s.Last()
	require.True(t, ok)
	require.Equal(t, 9, v)
}
