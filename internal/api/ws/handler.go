package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleConnection upgrades the request and serves the client until it
// disconnects. The first frame is a hello with the current shell state.
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(h, conn)
	active, _ := h.shell.Layouts.Active()
	client.reply(Frame{Type: FrameHello, Payload: Hello{
		ClientID:  client.id.String(),
		Layout:    active.Name,
		Slots:     h.shell.Slots(),
		Workspace: h.shell.Workspace.State(),
	}})

	h.register(client)
	go client.writePump()
	client.readPump()
}
