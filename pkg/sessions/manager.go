// Package sessions manages WebSocket session lifecycle, keep-alive, and
// message echo for the gateway.
//
// Each accepted upgrade becomes one Session with its own keep-alive timer.
// Sessions exchange JSON envelopes (ping, pong, message, response, error);
// application messages are answered with a response envelope carrying the
// measured round-trip latency when the message included its send timestamp.
// Reconnection is a client concern: no reconnect logic lives server-side.
package sessions

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Config contains session manager settings.
type Config struct {
	// KeepAliveInterval is how often a ping envelope is sent per session.
	KeepAliveInterval time.Duration

	// MaxMissedPongs is the number of consecutive keep-alive intervals
	// without a pong after which a session is closed.
	MaxMissedPongs int

	// MaxConnections caps concurrent sessions.
	MaxConnections int
}

// Recorder receives session lifecycle events. The metrics collector
// satisfies this interface; a nil Recorder disables counting.
type Recorder interface {
	SessionOpened()
	SessionClosed()
}

// Manager accepts WebSocket upgrades and tracks open sessions.
type Manager struct {
	config   Config
	recorder Recorder
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager.
func NewManager(cfg Config, recorder Recorder) *Manager {
	return &Manager{
		config:   cfg,
		recorder: recorder,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The gateway fronts arbitrary origins; cross-origin policy
			// belongs to the backends it proxies for.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sessions: make(map[string]*Session),
	}
}

// IsUpgrade reports whether the request asks for a WebSocket session,
// either by path or by Upgrade header.
func IsUpgrade(r *http.Request) bool {
	if r.URL.Path == "/ws" {
		return true
	}
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// HandleUpgrade upgrades the connection and runs the session until it
// closes. Upgrades beyond MaxConnections are rejected with 503.
func (m *Manager) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	if m.ActiveSessions() >= m.config.MaxConnections {
		slog.Warn("session limit reached, rejecting upgrade",
			"limit", m.config.MaxConnections,
			"remote_addr", r.RemoteAddr,
		)
		http.Error(w, "session limit reached", http.StatusServiceUnavailable)
		return
	}

	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response.
		slog.Debug("websocket upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
		return
	}

	session := m.Accept(wsConn{conn})
	slog.Info("session opened", "session", session.ID, "remote_addr", r.RemoteAddr)
	session.run()
}

// Accept registers a session over an already-established transport and
// returns it in the CONNECTING state. The caller drives it with run; tests
// use Accept directly with fake transports.
func (m *Manager) Accept(conn Conn) *Session {
	session := &Session{
		ID:      uuid.NewString(),
		conn:    conn,
		manager: m,
		state:   StateConnecting,
		done:    make(chan struct{}),
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	if m.recorder != nil {
		m.recorder.SessionOpened()
	}
	return session
}

// remove drops a closed session from the registry.
func (m *Manager) remove(s *Session) {
	m.mu.Lock()
	_, present := m.sessions[s.ID]
	delete(m.sessions, s.ID)
	m.mu.Unlock()

	if present && m.recorder != nil {
		m.recorder.SessionClosed()
	}
}

// ActiveSessions returns the number of open sessions.
func (m *Manager) ActiveSessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll terminates every open session; used during shutdown.
func (m *Manager) CloseAll() {
	m.mu.RLock()
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.RUnlock()

	for _, s := range open {
		s.Close()
	}
}

// wsConn adapts *websocket.Conn to the Conn interface.
type wsConn struct {
	conn *websocket.Conn
}

func (w wsConn) ReadMessage() ([]byte, error) {
	_, data, err := w.conn.ReadMessage()
	return data, err
}

func (w wsConn) WriteMessage(data []byte) error {
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

func (w wsConn) Close() error {
	return w.conn.Close()
}
