package app

import (
	"sync"
	"time"
)

// Session collects statistics about one run of the application
type Session struct {
	StartTime time.Time
	EndTime   *time.Time
	Ports     []string
	BytesRecv int64
	Tokens    int
	Moves     int
	mu        sync.RWMutex
}

// SessionStats is a snapshot of a Session
type SessionStats struct {
	Ports     []string
	BytesRecv int64
	Tokens    int
	Moves     int
	Duration  time.Duration
}

// NewSession creates a new session starting now
func NewSession() *Session {
	return &Session{
		StartTime: time.Now(),
	}
}

// End marks the session as ended. Later calls keep the first end time.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.EndTime != nil {
		return
	}
	now := time.Now()
	s.EndTime = &now
}

// Opened records that port was opened
func (s *Session) Opened(port string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.Ports {
		if p == port {
			return
		}
	}
	s.Ports = append(s.Ports, port)
}

// Received records a chunk of serial data
func (s *Session) Received(bytes, tokens, moves int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.BytesRecv += int64(bytes)
	s.Tokens += tokens
	s.Moves += moves
}

// Duration returns the duration of the session
func (s *Session) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.duration()
}

func (s *Session) duration() time.Duration {
	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return time.Since(s.StartTime)
}

// GetStats returns a snapshot of the session
func (s *Session) GetStats() SessionStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ports := make([]string, len(s.Ports))
	copy(ports, s.Ports)

	return SessionStats{
		Ports:     ports,
		BytesRecv: s.BytesRecv,
		Tokens:    s.Tokens,
		Moves:     s.Moves,
		Duration:  s.duration(),
	}
}
