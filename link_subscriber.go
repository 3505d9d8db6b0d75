package guidance

import "sync"

// linkSubscriber is a helper for managing link status subscriptions.
type linkSubscriber struct {
	ch     chan LinkStatus
	mu     sync.Mutex
	closed bool
}

// trySend delivers status without blocking. Slow subscribers miss
// intermediate edges and see the next one.
func (s *linkSubscriber) trySend(status LinkStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	select {
	case s.ch <- status:
	default:
	}
}

// close safely closes the subscriber's channel.
func (s *linkSubscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
