package sessions

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// State is the lifecycle state of a session.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosing
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Conn is the transport a session runs over. *websocket.Conn satisfies it
// via the wsConn adapter; tests use in-memory fakes.
type Conn interface {
	// ReadMessage blocks until the next message or transport error.
	ReadMessage() ([]byte, error)

	// WriteMessage sends one text message. Implementations need not be
	// safe for concurrent writers; Session serializes writes.
	WriteMessage(data []byte) error

	// Close tears down the transport.
	Close() error
}

// Session is one logical WebSocket connection. It owns its keep-alive timer
// and processes inbound messages strictly in receive order.
type Session struct {
	// ID is the connection identifier.
	ID string

	conn    Conn
	manager *Manager

	mu          sync.Mutex
	state       State
	openedAt    time.Time
	lastPingAt  time.Time
	lastPongAt  time.Time
	missedPongs int

	done      chan struct{}
	closeOnce sync.Once

	// writeMu serializes frame writes: the keep-alive goroutine and the
	// read loop both send.
	writeMu sync.Mutex
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastPongAt returns when the peer last answered a keep-alive.
func (s *Session) LastPongAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPongAt
}

// run drives the session: it transitions to OPEN, starts the keep-alive
// timer, and processes messages until the transport errors or the session
// is closed.
func (s *Session) run() {
	s.mu.Lock()
	s.state = StateOpen
	s.openedAt = time.Now()
	s.mu.Unlock()

	go s.keepAlive()
	defer s.close()

	for {
		data, err := s.conn.ReadMessage()
		if err != nil {
			slog.Debug("session read ended", "session", s.ID, "error", err)
			return
		}
		s.handleMessage(data)
	}
}

// handleMessage processes one inbound frame. Malformed payloads produce an
// error envelope rather than terminating the session.
func (s *Session) handleMessage(data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Type == "" {
		slog.Debug("session received malformed payload", "session", s.ID)
		s.send(errorEnvelope("malformed message envelope"))
		return
	}

	switch env.Type {
	case TypePong:
		s.mu.Lock()
		s.lastPongAt = time.Now()
		s.missedPongs = 0
		s.mu.Unlock()

	case TypePing:
		// Peer-initiated liveness check.
		s.send(Envelope{Type: TypePong, Timestamp: nowMillis()})

	case TypeMessage:
		now := nowMillis()
		var latency int64
		if env.Timestamp > 0 && env.Timestamp <= now {
			latency = now - env.Timestamp
		}
		s.send(Envelope{
			Type:      TypeResponse,
			Data:      env.Data,
			Timestamp: now,
			Latency:   latency,
		})

	default:
		s.send(errorEnvelope("unsupported envelope type: " + env.Type))
	}
}

// keepAlive sends a ping envelope every interval. A send failure, or too
// many intervals without a pong, closes the session and stops the timer.
func (s *Session) keepAlive() {
	ticker := time.NewTicker(s.manager.config.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.missedPongs++
			missed := s.missedPongs
			s.lastPingAt = time.Now()
			s.mu.Unlock()

			if missed > s.manager.config.MaxMissedPongs {
				slog.Info("session missed keep-alive pongs, closing",
					"session", s.ID,
					"missed", missed-1,
				)
				s.close()
				return
			}

			if err := s.send(Envelope{Type: TypePing, Timestamp: nowMillis()}); err != nil {
				slog.Debug("keep-alive send failed", "session", s.ID, "error", err)
				s.close()
				return
			}
		}
	}
}

// send marshals and writes one envelope, serialized against other writers.
func (s *Session) send(env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(data)
}

// close tears the session down exactly once: keep-alive stops, the
// transport closes, and the session is removed from the manager.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.state = StateClosing
		s.mu.Unlock()

		close(s.done)
		s.conn.Close()
		s.manager.remove(s)

		s.mu.Lock()
		s.state = StateClosed
		s.mu.Unlock()

		slog.Debug("session closed", "session", s.ID)
	})
}

// Close terminates the session. Safe to call multiple times.
func (s *Session) Close() {
	s.close()
}
