package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/layout"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/shell"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/types"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type harness struct {
	shell *shell.Shell
	hub   *Hub
	url   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	sh := shell.New(shell.Options{})
	t.Cleanup(sh.Close)
	require.NoError(t, sh.Layouts.Register(layout.Definition{
		Name:  "main",
		Slots: []types.SlotSpec{{Name: "center", Capabilities: []string{"viewport"}}},
	}))
	require.True(t, sh.Layouts.SetActive("main"))

	hub := NewHub(sh, nil).WithCallTimeout(time.Second)
	hub.Start()
	t.Cleanup(hub.Close)

	router := gin.New()
	router.GET("/stream", hub.HandleConnection)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &harness{
		shell: sh,
		hub:   hub,
		url:   "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream",
	}
}

func (h *harness) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(h.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	hello := read(t, conn)
	require.Equal(t, FrameHello, hello.Type)
	require.Eventually(t, func() bool { return h.hub.Clients() > 0 }, time.Second, 5*time.Millisecond)
	return conn
}

type inbound struct {
	Type    string      `json:"type"`
	Event   string      `json:"event"`
	ID      string      `json:"id"`
	Payload interface{} `json:"payload"`
	Error   string      `json:"error"`
}

func read(t *testing.T, conn *websocket.Conn) inbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var f inbound
	require.NoError(t, sonic.Unmarshal(data, &f))
	return f
}

func write(t *testing.T, conn *websocket.Conn, msg interface{}) {
	t.Helper()
	data, err := sonic.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func TestHelloCarriesShellState(t *testing.T) {
	h := newHarness(t)

	conn, _, err := websocket.DefaultDialer.Dial(h.url, nil)
	require.NoError(t, err)
	defer conn.Close()

	hello := read(t, conn)
	require.Equal(t, FrameHello, hello.Type)
	payload := hello.Payload.(map[string]interface{})
	assert.Equal(t, "main", payload["layout"])
	assert.NotEmpty(t, payload["client_id"])
	assert.Len(t, payload["slots"], 1)
}

func TestSubscribeFiltersEvents(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t)

	write(t, conn, map[string]interface{}{"type": MsgSubscribe, "id": "s1", "events": []string{"game.*"}})
	ack := read(t, conn)
	assert.Equal(t, FrameReply, ack.Type)
	assert.Equal(t, "s1", ack.ID)
	assert.Equal(t, []interface{}{"game.*"}, ack.Payload)

	h.shell.Bus.Emit("other.tick", 1)
	h.shell.Bus.Emit("game.score", map[string]interface{}{"points": 10})

	frame := read(t, conn)
	assert.Equal(t, FrameEvent, frame.Type)
	assert.Equal(t, "game.score", frame.Event)
	assert.Equal(t, map[string]interface{}{"points": float64(10)}, frame.Payload)
}

func TestShellEventsReachClients(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t)

	require.NoError(t, h.shell.Layouts.Register(layout.Definition{Name: "alt"}))
	require.True(t, h.shell.Layouts.SetActive("alt"))

	frame := read(t, conn)
	assert.Equal(t, shell.EventLayoutChanged, frame.Event)
	assert.Equal(t, "alt", frame.Payload.(map[string]interface{})["name"])
}

func TestEmitAndCall(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t)

	got := make(chan interface{}, 1)
	h.shell.Bus.On("game.start", func(p interface{}) { got <- p })
	h.shell.Bus.Provide("math.double", func(ctx context.Context, in interface{}) (interface{}, error) {
		return in.(float64) * 2, nil
	})
	write(t, conn, map[string]interface{}{"type": MsgSubscribe, "events": []string{"none"}})
	read(t, conn)

	write(t, conn, map[string]interface{}{"type": MsgEmit, "id": "e1", "event": "game.start", "payload": map[string]interface{}{"level": 2}})
	ack := read(t, conn)
	assert.Equal(t, "e1", ack.ID)
	assert.Empty(t, ack.Error)
	assert.Equal(t, map[string]interface{}{"level": float64(2)}, <-got)

	write(t, conn, map[string]interface{}{"type": MsgEmit, "id": "e2", "event": "shell:layout"})
	rejected := read(t, conn)
	assert.Contains(t, rejected.Error, "cannot be emitted")

	write(t, conn, map[string]interface{}{"type": MsgCall, "id": "c1", "service": "math.double", "payload": 21})
	reply := read(t, conn)
	assert.Equal(t, "c1", reply.ID)
	assert.Equal(t, float64(42), reply.Payload)

	write(t, conn, map[string]interface{}{"type": MsgCall, "id": "c2", "service": "missing"})
	missing := read(t, conn)
	assert.Contains(t, missing.Error, "missing")
}

func TestTriggerAndUnknownMessage(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t)
	write(t, conn, map[string]interface{}{"type": MsgSubscribe, "events": []string{"none"}})
	read(t, conn)

	write(t, conn, map[string]interface{}{"type": MsgTrigger, "id": "t1", "component": "nope:nope"})
	reply := read(t, conn)
	assert.Equal(t, "t1", reply.ID)
	assert.Contains(t, reply.Error, "not found")

	write(t, conn, map[string]interface{}{"type": "dance"})
	unknown := read(t, conn)
	assert.Equal(t, FrameError, unknown.Type)

	write(t, conn, map[string]interface{}{"type": MsgPing, "id": "p"})
	assert.Equal(t, FramePong, read(t, conn).Type)
}

func TestCloseDisconnectsClients(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t)

	h.hub.Close()
	assert.Equal(t, 0, h.hub.Clients())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway))
}

func TestClientPatterns(t *testing.T) {
	c := &Client{}
	assert.True(t, c.wants("anything"))

	patterns, err := c.subscribe([]string{"shell:*", "companion:*"})
	require.NoError(t, err)
	assert.Len(t, patterns, 2)
	assert.True(t, c.wants("shell:slot"))
	assert.False(t, c.wants("game.score"))

	_, err = c.subscribe([]string{"[bad"})
	assert.Error(t, err)

	assert.Equal(t, []string{"companion:*"}, c.unsubscribe([]string{"shell:*"}))
	assert.Equal(t, []string{}, c.unsubscribe(nil))
	assert.False(t, c.wants("game.score"))
	assert.False(t, c.wants("shell:slot"))
}

func TestClientUnsubscribingLastPatternMatchesNothing(t *testing.T) {
	c := &Client{}
	_, err := c.subscribe([]string{"shell:*"})
	require.NoError(t, err)

	assert.Equal(t, []string{}, c.unsubscribe([]string{"shell:*"}))
	assert.False(t, c.wants("shell:slot"))
	assert.False(t, c.wants("game.score"))

	_, err = c.subscribe([]string{"game.*"})
	require.NoError(t, err)
	assert.True(t, c.wants("game.score"))
	assert.False(t, c.wants("shell:slot"))
}
