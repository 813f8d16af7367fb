package sessions

import (
	"encoding/json"
	"time"
)

// Envelope types exchanged over a session.
const (
	TypePing     = "ping"
	TypePong     = "pong"
	TypeMessage  = "message"
	TypeResponse = "response"
	TypeError    = "error"
)

// Envelope is the JSON message frame exchanged with session peers.
// Timestamps are milliseconds since the Unix epoch.
type Envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
	Latency   int64           `json:"latency,omitempty"`
}

// nowMillis returns the current time in epoch milliseconds.
func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// errorEnvelope builds an error envelope with the given message as data.
func errorEnvelope(msg string) Envelope {
	data, _ := json.Marshal(msg)
	return Envelope{
		Type:      TypeError,
		Data:      data,
		Timestamp: nowMillis(),
	}
}
