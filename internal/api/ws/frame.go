package ws

import (
	"encoding/json"
	"time"

	"github.com/bytedance/sonic"
)

// Frame types sent by the server
const (
	FrameHello = "hello"
	FrameEvent = "event"
	FrameReply = "reply"
	FramePong  = "pong"
	FrameError = "error"
)

// Message types sent by the client
const (
	MsgPing        = "ping"
	MsgSubscribe   = "subscribe"
	MsgUnsubscribe = "unsubscribe"
	MsgEmit        = "emit"
	MsgCall        = "call"
	MsgTrigger     = "trigger"
)

// Frame is the server to client envelope
type Frame struct {
	Type      string      `json:"type"`
	Event     string      `json:"event,omitempty"`
	ID        string      `json:"id,omitempty"` // Correlates replies with calls
	Payload   interface{} `json:"payload,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// Message is the client to server envelope. Which fields apply depends on
// Type: Events for subscribe, Event and Payload for emit, ID, Service and
// Payload for call, Component and Entry for trigger.
type Message struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Events    []string        `json:"events,omitempty"`
	Event     string          `json:"event,omitempty"`
	Service   string          `json:"service,omitempty"`
	Component string          `json:"component,omitempty"`
	Entry     string          `json:"entry,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Hello is the payload of the first frame a client receives
type Hello struct {
	ClientID  string      `json:"client_id"`
	Layout    string      `json:"layout,omitempty"`
	Slots     interface{} `json:"slots"`
	Workspace interface{} `json:"workspace"`
}

// payload decodes the raw payload, nil when absent
func (m Message) payload() (interface{}, error) {
	if len(m.Payload) == 0 {
		return nil, nil
	}
	var v interface{}
	if err := sonic.Unmarshal(m.Payload, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func encode(f Frame) ([]byte, error) {
	if f.Timestamp == 0 {
		f.Timestamp = time.Now().UnixMilli()
	}
	return sonic.Marshal(f)
}
