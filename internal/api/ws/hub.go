package ws

import (
	"sync"
	"time"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/bus"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/shell"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/id"
	"go.uber.org/zap"
)

// Hub fans bus events out to connected frontend clients. It taps the shell
// bus, so every event reaches every client whose filters match it. A client
// that cannot keep up is disconnected rather than blocking the emitter.
type Hub struct {
	shell       *shell.Shell
	callTimeout time.Duration

	mu      sync.RWMutex
	clients map[id.ClientID]*Client // Protected by mu
	tap     *bus.Subscription       // Protected by mu

	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewHub creates a hub bound to sh. Call Start to begin relaying events.
func NewHub(sh *shell.Shell, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		shell:       sh,
		callTimeout: 30 * time.Second,
		clients:     make(map[id.ClientID]*Client),
		logger:      logger.Named("ws"),
	}
}

// WithMetrics adds metrics tracking to the hub
func (h *Hub) WithMetrics(metrics *monitoring.Metrics) *Hub {
	h.metrics = metrics
	return h
}

// WithCallTimeout bounds service calls made by clients
func (h *Hub) WithCallTimeout(d time.Duration) *Hub {
	h.callTimeout = d
	return h
}

// Start taps the bus. Calling it twice is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.tap == nil {
		h.tap = h.shell.Bus.Tap(h.broadcast)
	}
}

// Close stops relaying and disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	tap := h.tap
	h.tap = nil
	clients := h.clients
	h.clients = make(map[id.ClientID]*Client)
	h.mu.Unlock()

	if tap != nil {
		tap.Unsubscribe()
	}
	for _, c := range clients {
		c.close()
		h.metrics.DecWSConnections()
	}
	h.logger.Info("websocket hub closed", zap.Int("clients", len(clients)))
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	h.metrics.IncWSConnections()
	h.logger.Debug("client connected", zap.String("client", c.id.String()))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	delete(h.clients, c.id)
	h.mu.Unlock()

	c.close()
	if ok {
		h.metrics.DecWSConnections()
		h.logger.Debug("client disconnected", zap.String("client", c.id.String()))
	}
}

// broadcast runs on the emitter's goroutine and must not block
func (h *Hub) broadcast(event string, payload interface{}) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		if c.wants(event) {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	data, err := encode(Frame{Type: FrameEvent, Event: event, Payload: payload})
	if err != nil {
		h.logger.Warn("event payload not encodable, dropped",
			zap.String("event", event),
			zap.Error(err))
		return
	}

	for _, c := range targets {
		if !c.enqueue(data) {
			h.logger.Warn("client too slow, disconnecting", zap.String("client", c.id.String()))
			h.unregister(c)
			continue
		}
		h.metrics.RecordWSMessage("out", FrameEvent)
	}
}
