package http

import (
	"fmt"
	"net/http"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/host"
	"github.com/gin-gonic/gin"
)

// ListPlugins lists every loaded plugin with its status
func (h *Handlers) ListPlugins(c *gin.Context) {
	plugins := h.loader.Plugins()
	c.JSON(http.StatusOK, gin.H{
		"plugins": plugins,
		"count":   len(plugins),
	})
}

// GetPlugin returns one plugin's status
func (h *Handlers) GetPlugin(c *gin.Context) {
	status, ok := h.loader.Status(c.Param("id"))
	if !ok {
		notFound(c, "plugin not loaded")
		return
	}
	c.JSON(http.StatusOK, status)
}

// StartPlugin starts a stopped plugin
func (h *Handlers) StartPlugin(c *gin.Context) {
	pluginID := c.Param("id")
	if err := h.loader.Start(c.Request.Context(), pluginID); err != nil {
		h.fail(c, err)
		return
	}
	h.respondStatus(c, pluginID)
}

// StopPlugin stops a plugin and sweeps its contributions
func (h *Handlers) StopPlugin(c *gin.Context) {
	pluginID := c.Param("id")
	if err := h.loader.Stop(c.Request.Context(), pluginID); err != nil {
		h.fail(c, err)
		return
	}
	h.respondStatus(c, pluginID)
}

// ReloadPlugin hot-reloads a plugin from its source. A collateral removal
// is reported with the reload report alongside the error.
func (h *Handlers) ReloadPlugin(c *gin.Context) {
	report, err := h.loader.Reload(c.Request.Context(), c.Param("id"))
	if err != nil {
		if report != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(statusOf(err), gin.H{
				"error":  err.Error(),
				"report": report,
			})
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// UpdatePlugin pushes the request body to a started plugin's update hooks
func (h *Handlers) UpdatePlugin(c *gin.Context) {
	pluginID := c.Param("id")
	inst, ok := h.loader.Get(pluginID)
	if !ok {
		h.fail(c, fmt.Errorf("update %q: %w", pluginID, host.ErrPluginNotFound))
		return
	}

	var data interface{}
	if err := c.ShouldBindJSON(&data); err != nil {
		badRequest(c, "invalid update payload")
		return
	}
	if err := inst.Update(c.Request.Context(), data); err != nil {
		h.fail(c, err)
		return
	}
	h.respondStatus(c, pluginID)
}

func (h *Handlers) respondStatus(c *gin.Context, pluginID string) {
	status, ok := h.loader.Status(pluginID)
	if !ok {
		notFound(c, "plugin not loaded")
		return
	}
	c.JSON(http.StatusOK, status)
}
