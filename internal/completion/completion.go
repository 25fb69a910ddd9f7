// Package completion provides the runtime-side termination signal a worker
// closes when its function returns. It carries no result; it only orders
// "the result slot is written" before "a joiner reads it".
package completion

import "sync"

// Signal is a one-shot, closed-channel completion flag. The zero value is
// not usable; create one with NewSignal.
type Signal struct {
	ch   chan struct{}
	once sync.Once
}

func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{})}
}

// IsReady checks the signal without blocking.
func (s *Signal) IsReady() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}

// Wait blocks until the signal is set.
func (s *Signal) Wait() {
	<-s.ch
}

// Channel exposes the underlying channel for use in select statements.
func (s *Signal) Channel() <-chan struct{} {
	return s.ch
}

// SetReady sets the signal. It is idempotent.
func (s *Signal) SetReady() {
	s.once.Do(func() { close(s.ch) })
}
