package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/shell"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/types"
	"github.com/gin-gonic/gin"
)

// TriggerRequest selects a submenu entry when triggering a menu item
type TriggerRequest struct {
	Entry string `json:"entry"`
}

// RenderRequest carries the props passed to a render function
type RenderRequest struct {
	Props map[string]interface{} `json:"props"`
}

// ListComponents lists registrations. ?kind filters by kind and returns
// them in display order; ?capability resolves a capability tag in
// registration order. Both may not be combined.
func (h *Handlers) ListComponents(c *gin.Context) {
	kind := types.ComponentKind(c.Query("kind"))
	capability := c.Query("capability")

	switch {
	case kind != "" && capability != "":
		badRequest(c, "kind and capability are mutually exclusive")
		return
	case capability != "":
		regs := h.shell.Registry.GetMany(h.shell.Registry.ByCapability(capability))
		c.JSON(http.StatusOK, gin.H{"components": regs, "count": len(regs)})
		return
	case kind != "" && !kind.Valid():
		badRequest(c, fmt.Sprintf("unknown component kind %q", kind))
		return
	}

	regs := h.shell.Registry.List(kind)
	c.JSON(http.StatusOK, gin.H{"components": regs, "count": len(regs)})
}

// ListTags lists every capability tag in use
func (h *Handlers) ListTags(c *gin.Context) {
	tags := h.shell.Registry.Tags()
	c.JSON(http.StatusOK, gin.H{"tags": tags, "count": len(tags)})
}

// GetComponent returns one registration
func (h *Handlers) GetComponent(c *gin.Context) {
	reg, ok := h.shell.Registry.Get(c.Param("id"))
	if !ok {
		notFound(c, "component not found")
		return
	}
	c.JSON(http.StatusOK, reg)
}

// TriggerComponent runs a component's click or open action
func (h *Handlers) TriggerComponent(c *gin.Context) {
	var req TriggerRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid trigger request")
			return
		}
	}

	fullID := c.Param("id")
	if err := h.shell.Trigger(fullID, req.Entry); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"triggered": fullID, "entry": req.Entry})
}

// RenderComponent invokes a component's render function host-side
func (h *Handlers) RenderComponent(c *gin.Context) {
	fullID := c.Param("id")
	reg, ok := h.shell.Registry.Get(fullID)
	if !ok {
		h.fail(c, fmt.Errorf("render %q: %w", fullID, shell.ErrComponentNotFound))
		return
	}

	var req RenderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid render request")
			return
		}
	}

	ctx, cancel := h.callContext(c)
	defer cancel()
	out, err := reg.Render.Invoke(ctx, req.Props)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": fullID, "output": out})
}

func (h *Handlers) callContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.callTimeout > 0 {
		return context.WithTimeout(c.Request.Context(), h.callTimeout)
	}
	return context.WithCancel(c.Request.Context())
}
