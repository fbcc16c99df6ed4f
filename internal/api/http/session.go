package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetSession returns the saved session and store activity
func (h *Handlers) GetSession(c *gin.Context) {
	if h.session == nil {
		notFound(c, "session persistence disabled")
		return
	}
	state, err := h.session.Load(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session": state,
		"stats":   h.session.Stats(),
	})
}

// SaveSession captures the shell state and writes it to disk
func (h *Handlers) SaveSession(c *gin.Context) {
	if h.session == nil {
		notFound(c, "session persistence disabled")
		return
	}
	state, err := h.session.Save(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// RestoreSession applies the saved session. Items that no longer exist are
// listed as skipped.
func (h *Handlers) RestoreSession(c *gin.Context) {
	if h.session == nil {
		notFound(c, "session persistence disabled")
		return
	}
	report, err := h.session.Restore(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// CompanionStatus reports the companion bridge state
func (h *Handlers) CompanionStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.companion.Status())
}
