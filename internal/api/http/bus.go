package http

import (
	"net/http"
	"strings"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/utils"
	"github.com/gin-gonic/gin"
)

// EmitRequest publishes an event on the shell bus
type EmitRequest struct {
	Event   string      `json:"event" binding:"required"`
	Payload interface{} `json:"payload"`
}

// CallRequest carries the input of a service call
type CallRequest struct {
	Input interface{} `json:"input"`
}

// reservedPrefix marks events only the host may publish
const reservedPrefix = "shell:"

// EmitEvent publishes a frontend event to plugin listeners
func (h *Handlers) EmitEvent(c *gin.Context) {
	var req EmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "event name is required")
		return
	}
	if err := utils.ValidateEventName(req.Event, "event"); err != nil {
		badRequest(c, err.Error())
		return
	}
	if strings.HasPrefix(req.Event, reservedPrefix) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "shell events cannot be emitted by clients"})
		return
	}

	delivered := h.shell.Bus.Emit(req.Event, req.Payload)
	c.JSON(http.StatusOK, gin.H{"event": req.Event, "delivered": delivered})
}

// ListServices lists provided service names and listener counts
func (h *Handlers) ListServices(c *gin.Context) {
	c.JSON(http.StatusOK, h.shell.Bus.Stats())
}

// CallService invokes a bus service with the request input
func (h *Handlers) CallService(c *gin.Context) {
	var req CallRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid service input")
			return
		}
	}

	ctx, cancel := h.callContext(c)
	defer cancel()
	name := c.Param("name")
	out, err := h.shell.Bus.Call(ctx, name, req.Input)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"service": name, "output": out})
}
