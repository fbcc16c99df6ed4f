package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/companion"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/bus"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/component"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/host"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/layout"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/plugin"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/session"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/shell"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/infrastructure/resilience"
	"github.com/gin-gonic/gin"
)

// statusOf maps domain errors onto HTTP status codes
func statusOf(err error) int {
	var statusErr *companion.StatusError
	switch {
	case errors.Is(err, host.ErrPluginNotFound),
		errors.Is(err, shell.ErrComponentNotFound),
		errors.Is(err, shell.ErrNotViewport),
		errors.Is(err, bus.ErrServiceNotFound),
		errors.Is(err, session.ErrNoSession):
		return http.StatusNotFound
	case errors.Is(err, plugin.ErrLifecycle),
		errors.Is(err, component.ErrDuplicateID),
		errors.Is(err, component.ErrKindChange),
		errors.Is(err, layout.ErrDuplicateLayout),
		errors.Is(err, host.ErrCollateralRemoval),
		errors.Is(err, shell.ErrNoAction):
		return http.StatusConflict
	case errors.Is(err, plugin.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, resilience.ErrCircuitOpen),
		errors.Is(err, resilience.ErrTooManyRequests):
		return http.StatusServiceUnavailable
	case errors.As(err, &statusErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// fail writes err as a JSON error body and records it on the context
func (h *Handlers) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusOf(err), gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

func notFound(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": msg})
}
