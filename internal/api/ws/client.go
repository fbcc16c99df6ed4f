package ws

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/id"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

// reservedPrefix marks events only the host may publish
const reservedPrefix = "shell:"

// Client is one frontend connection
type Client struct {
	id   id.ClientID
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	mu         sync.RWMutex
	subscribed bool     // Protected by mu, false means every event
	patterns   []string // Protected by mu

	logger *zap.Logger
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	cid := id.NewClientID()
	return &Client{
		id:     cid,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
		logger: hub.logger.With(zap.String("client", cid.String())),
	}
}

// ID returns the client id
func (c *Client) ID() id.ClientID {
	return c.id
}

// wants reports whether event matches the client's filters
func (c *Client) wants(event string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.subscribed {
		return true
	}
	for _, p := range c.patterns {
		if ok, _ := doublestar.Match(p, event); ok {
			return true
		}
	}
	return false
}

func (c *Client) subscribe(patterns []string) ([]string, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid event pattern %q", p)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(patterns) > 0 {
		c.subscribed = true
	}
	for _, p := range patterns {
		if !containsString(c.patterns, p) {
			c.patterns = append(c.patterns, p)
		}
	}
	return append([]string(nil), c.patterns...), nil
}

// unsubscribe drops patterns, or all of them when none are given. A client
// that has subscribed once never falls back to receiving every event.
func (c *Client) unsubscribe(patterns []string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribed = true
	if len(patterns) == 0 {
		c.patterns = nil
		return []string{}
	}
	kept := c.patterns[:0]
	for _, p := range c.patterns {
		if !containsString(patterns, p) {
			kept = append(kept, p)
		}
	}
	c.patterns = kept
	return append([]string{}, kept...)
}

// enqueue queues data without blocking. It reports false when the buffer
// is full.
func (c *Client) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) reply(f Frame) {
	data, err := encode(f)
	if err != nil {
		data, _ = encode(Frame{Type: FrameError, ID: f.ID, Error: "reply not encodable: " + err.Error()})
	}
	if !c.enqueue(data) {
		c.logger.Warn("reply dropped, send buffer full", zap.String("type", f.Type))
		return
	}
	c.hub.metrics.RecordWSMessage("out", f.Type)
}

func (c *Client) close() {
	c.once.Do(func() {
		c.cancel()
		close(c.done)
	})
}

// readPump handles client messages until the connection fails
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}

		var msg Message
		if err := sonic.Unmarshal(data, &msg); err != nil {
			c.reply(Frame{Type: FrameError, Error: "invalid message"})
			continue
		}
		c.hub.metrics.RecordWSMessage("in", msg.Type)
		c.handle(msg)
	}
}

func (c *Client) handle(msg Message) {
	switch msg.Type {
	case MsgPing:
		c.reply(Frame{Type: FramePong, ID: msg.ID})

	case MsgSubscribe:
		patterns, err := c.subscribe(msg.Events)
		if err != nil {
			c.reply(Frame{Type: FrameReply, ID: msg.ID, Error: err.Error()})
			return
		}
		c.reply(Frame{Type: FrameReply, ID: msg.ID, Payload: patterns})

	case MsgUnsubscribe:
		c.reply(Frame{Type: FrameReply, ID: msg.ID, Payload: c.unsubscribe(msg.Events)})

	case MsgEmit:
		c.emit(msg)

	case MsgCall:
		if msg.ID == "" {
			msg.ID = uuid.NewString()
		}
		go c.call(msg)

	case MsgTrigger:
		if err := c.hub.shell.Trigger(msg.Component, msg.Entry); err != nil {
			c.reply(Frame{Type: FrameReply, ID: msg.ID, Error: err.Error()})
			return
		}
		c.reply(Frame{Type: FrameReply, ID: msg.ID, Payload: msg.Component})

	default:
		c.reply(Frame{Type: FrameError, ID: msg.ID, Error: fmt.Sprintf("unknown message type %q", msg.Type)})
	}
}

func (c *Client) emit(msg Message) {
	if msg.Event == "" || strings.HasPrefix(msg.Event, reservedPrefix) {
		c.reply(Frame{Type: FrameReply, ID: msg.ID, Error: fmt.Sprintf("event %q cannot be emitted by clients", msg.Event)})
		return
	}
	payload, err := msg.payload()
	if err != nil {
		c.reply(Frame{Type: FrameReply, ID: msg.ID, Error: "invalid payload"})
		return
	}
	delivered := c.hub.shell.Bus.Emit(msg.Event, payload)
	c.reply(Frame{Type: FrameReply, ID: msg.ID, Payload: delivered})
}

// call runs a service on its own goroutine so a slow provider does not
// stall the read loop
func (c *Client) call(msg Message) {
	input, err := msg.payload()
	if err != nil {
		c.reply(Frame{Type: FrameReply, ID: msg.ID, Error: "invalid payload"})
		return
	}

	ctx := c.ctx
	if c.hub.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.hub.callTimeout)
		defer cancel()
	}

	out, err := c.hub.shell.Bus.Call(ctx, msg.Service, input)
	if err != nil {
		c.reply(Frame{Type: FrameReply, ID: msg.ID, Error: err.Error()})
		return
	}
	c.reply(Frame{Type: FrameReply, ID: msg.ID, Payload: out})
}

// writePump writes queued frames and keepalive pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.hub.unregister(c)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.unregister(c)
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing"))
			return
		}
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
