package companion

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/bus"
	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// EventPrefix namespaces companion pushes on the bus
const EventPrefix = "companion:"

// EventStatus is emitted on the bus when the push stream connects or drops
const EventStatus = "companion.status"

// Push is a message received from the companion stream
type Push struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// StatusEvent is the payload of EventStatus
type StatusEvent struct {
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

// Stream relays companion WebSocket pushes onto the bus as
// "companion:<type>" events, reconnecting with backoff
type Stream struct {
	url    string
	bus    *bus.Bus
	dialer *websocket.Dialer
	logger *zap.Logger

	MinBackoff time.Duration
	MaxBackoff time.Duration

	mu        sync.RWMutex
	connected bool // Protected by mu
}

// NewStream creates a stream for url publishing on b
func NewStream(url string, b *bus.Bus, logger *zap.Logger) *Stream {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stream{
		url: url,
		bus: b,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		logger:     logger.Named("companion-stream"),
		MinBackoff: 500 * time.Millisecond,
		MaxBackoff: 30 * time.Second,
	}
}

// Connected reports whether the stream currently has a connection
func (s *Stream) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Run connects and relays until ctx ends
func (s *Stream) Run(ctx context.Context) error {
	attempt := 0
	for {
		conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
		if err == nil {
			attempt = 0
			s.setConnected(true, nil)
			err = s.relay(ctx, conn)
			s.setConnected(false, err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		wait := retryablehttp.DefaultBackoff(s.MinBackoff, s.MaxBackoff, attempt, nil)
		attempt++
		s.logger.Debug("companion stream reconnecting",
			zap.Duration("wait", wait),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (s *Stream) relay(ctx context.Context, conn *websocket.Conn) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var push Push
		if err := sonic.Unmarshal(data, &push); err != nil || push.Type == "" {
			s.logger.Warn("dropping malformed companion push", zap.Int("bytes", len(data)))
			continue
		}
		s.bus.Emit(EventPrefix+push.Type, push.Payload)
	}
}

func (s *Stream) setConnected(connected bool, err error) {
	s.mu.Lock()
	changed := s.connected != connected
	s.connected = connected
	s.mu.Unlock()

	if !changed {
		return
	}

	event := StatusEvent{Connected: connected}
	if err != nil && !connected {
		event.Error = err.Error()
	}
	if connected {
		s.logger.Info("companion stream connected", zap.String("url", s.url))
	} else {
		s.logger.Warn("companion stream disconnected", zap.Error(err))
	}
	s.bus.Emit(EventStatus, event)
}
