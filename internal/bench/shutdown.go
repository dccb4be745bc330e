package bench

import "sync"

// Shutdown is a one-shot signal fired by the sender once the grace period
// has elapsed and observed by the receiver.
type Shutdown struct {
	once sync.Once
	done chan struct{}
}

// NewShutdown returns an unfired signal.
func NewShutdown() *Shutdown {
	return &Shutdown{done: make(chan struct{})}
}

// Fire triggers the signal. Subsequent calls are no-ops.
func (s *Shutdown) Fire() {
	s.once.Do(func() { close(s.done) })
}

// Done returns a channel closed when the signal fires.
func (s *Shutdown) Done() <-chan struct{} {
	return s.done
}

// Fired reports whether Fire has been called.
func (s *Shutdown) Fired() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
