// Package lifecycle lets request handlers ask the process to restart. The
// server drains and exits with RestartExitCode so an outer supervisor
// (systemd, docker, a shell loop) can start it again on the restored state.
package lifecycle

import (
	"sync"
	"time"
)

// RestartExitCode is returned by main after a requested restart.
const RestartExitCode = 3

// Supervisor records the first restart request.
type Supervisor struct {
	once   sync.Once
	done   chan struct{}
	mu     sync.Mutex
	reason string
	at     time.Time
}

// New returns a Supervisor with no pending restart.
func New() *Supervisor {
	return &Supervisor{done: make(chan struct{})}
}

// RequestRestart asks for a restart. Only the first call has an effect; it
// reports whether this call was that one.
func (s *Supervisor) RequestRestart(reason string) bool {
	first := false
	s.once.Do(func() {
		s.mu.Lock()
		s.reason = reason
		s.at = time.Now()
		s.mu.Unlock()
		close(s.done)
		first = true
	})
	return first
}

// Done is closed once a restart has been requested.
func (s *Supervisor) Done() <-chan struct{} {
	return s.done
}

// Pending reports whether a restart was requested.
func (s *Supervisor) Pending() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Reason returns the restart reason and when it was requested.
func (s *Supervisor) Reason() (string, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason, s.at
}
