package http

import (
	"net/http"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/plugin"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/utils"
	"github.com/gin-gonic/gin"
)

// SetLayoutRequest names the layout to activate
type SetLayoutRequest struct {
	Name string `json:"name" binding:"required"`
}

// SetTabRequest names the component to show in a slot
type SetTabRequest struct {
	ID string `json:"id" binding:"required"`
}

// OpenRequest opens a viewport as a workspace tab
type OpenRequest struct {
	ID string `json:"id" binding:"required"`
	plugin.OpenOptions
}

// ListLayouts lists registered layouts and the active one
func (h *Handlers) ListLayouts(c *gin.Context) {
	active, _ := h.shell.Layouts.Active()
	c.JSON(http.StatusOK, gin.H{
		"layouts": h.shell.Layouts.List(),
		"active":  active.Name,
	})
}

// ActiveLayout returns the active layout definition
func (h *Handlers) ActiveLayout(c *gin.Context) {
	active, ok := h.shell.Layouts.Active()
	if !ok {
		notFound(c, "no active layout")
		return
	}
	c.JSON(http.StatusOK, active)
}

// SetLayout switches the active layout. An unknown name leaves the current
// layout in place and answers 404.
func (h *Handlers) SetLayout(c *gin.Context) {
	var req SetLayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "layout name is required")
		return
	}
	if !h.shell.Layouts.SetActive(req.Name) {
		notFound(c, "unknown layout")
		return
	}
	active, _ := h.shell.Layouts.Active()
	c.JSON(http.StatusOK, active)
}

// ListSlots returns the resolved slots of the active layout
func (h *Handlers) ListSlots(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"slots": h.shell.Slots()})
}

// GetSlot returns one slot with its resolved registrations
func (h *Handlers) GetSlot(c *gin.Context) {
	sl, ok := h.shell.Slot(c.Param("name"))
	if !ok {
		notFound(c, "slot not mounted")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"slot":       sl.Snapshot(),
		"components": sl.Components(),
	})
}

// SetSlotTab changes a slot's active tab. Ids the slot does not resolve
// are rejected.
func (h *Handlers) SetSlotTab(c *gin.Context) {
	sl, ok := h.shell.Slot(c.Param("name"))
	if !ok {
		notFound(c, "slot not mounted")
		return
	}
	var req SetTabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "component id is required")
		return
	}
	if !sl.SetActiveTab(req.ID) {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "component not resolved by slot"})
		return
	}
	c.JSON(http.StatusOK, sl.Snapshot())
}

// RenderSlot renders every component a slot resolves
func (h *Handlers) RenderSlot(c *gin.Context) {
	sl, ok := h.shell.Slot(c.Param("name"))
	if !ok {
		notFound(c, "slot not mounted")
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
	c.JSON(http.StatusOK, gin.H{
		"slot":     sl.Name(),
		"rendered": sl.Render(ctx, req.Props),
	})
}

// GetWorkspace returns the open viewport tabs
func (h *Handlers) GetWorkspace(c *gin.Context) {
	c.JSON(http.StatusOK, h.shell.Workspace.State())
}

// OpenViewport opens or focuses a viewport tab
func (h *Handlers) OpenViewport(c *gin.Context) {
	var req OpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "viewport id is required")
		return
	}
	if err := utils.ValidateFullID(req.ID, "viewport id"); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.shell.Workspace.Open(req.ID, req.OpenOptions); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.shell.Workspace.State())
}

// ActivateViewport focuses an open tab
func (h *Handlers) ActivateViewport(c *gin.Context) {
	if !h.shell.Workspace.Activate(c.Param("id")) {
		notFound(c, "tab not open")
		return
	}
	c.JSON(http.StatusOK, h.shell.Workspace.State())
}

// CloseViewport closes an open tab
func (h *Handlers) CloseViewport(c *gin.Context) {
	if !h.shell.Workspace.Close(c.Param("id")) {
		notFound(c, "tab not open")
		return
	}
	c.JSON(http.StatusOK, h.shell.Workspace.State())
}
