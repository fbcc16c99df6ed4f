package http

import (
	"net/http"
	"time"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/companion"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/host"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/session"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/shell"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/infrastructure/monitoring"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Version is reported by the root and health endpoints
const Version = "0.3.0"

// Deps are the services the handlers expose. Session and Companion are
// optional.
type Deps struct {
	Shell     *shell.Shell
	Loader    *host.Loader
	Session   *session.Store
	Companion *companion.Bridge
	Metrics   *monitoring.Metrics
	Gatherer  prometheus.Gatherer
	Logger    *zap.Logger

	CallTimeout time.Duration // Deadline for service calls and renders, zero means none
}

// Handlers contains all HTTP handlers
type Handlers struct {
	shell     *shell.Shell
	loader    *host.Loader
	session   *session.Store
	companion *companion.Bridge
	metrics   *monitoring.Metrics
	gatherer  prometheus.Gatherer
	logger    *zap.Logger
	uiLogger  *zap.Logger

	callTimeout time.Duration
	started     time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(deps Deps) *Handlers {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Handlers{
		shell:       deps.Shell,
		loader:      deps.Loader,
		session:     deps.Session,
		companion:   deps.Companion,
		metrics:     deps.Metrics,
		gatherer:    gatherer,
		logger:      logger.Named("api"),
		uiLogger:    logger.Named("ui"),
		callTimeout: deps.CallTimeout,
		started:     time.Now(),
	}
}

// Register mounts every route on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	plugins := r.Group("/plugins")
	plugins.GET("", h.ListPlugins)
	plugins.GET("/:id", h.GetPlugin)
	plugins.POST("/:id/start", h.StartPlugin)
	plugins.POST("/:id/stop", h.StopPlugin)
	plugins.POST("/:id/reload", h.ReloadPlugin)
	plugins.POST("/:id/update", h.UpdatePlugin)

	components := r.Group("/components")
	components.GET("", h.ListComponents)
	components.GET("/tags", h.ListTags)
	components.GET("/:id", h.GetComponent)
	components.POST("/:id/trigger", h.TriggerComponent)
	components.POST("/:id/render", h.RenderComponent)

	layouts := r.Group("/layouts")
	layouts.GET("", h.ListLayouts)
	layouts.GET("/active", h.ActiveLayout)
	layouts.PUT("/active", h.SetLayout)

	slots := r.Group("/slots")
	slots.GET("", h.ListSlots)
	slots.GET("/:name", h.GetSlot)
	slots.PUT("/:name/active", h.SetSlotTab)
	slots.POST("/:name/render", h.RenderSlot)

	workspace := r.Group("/workspace")
	workspace.GET("", h.GetWorkspace)
	workspace.POST("/open", h.OpenViewport)
	workspace.POST("/tabs/:id/activate", h.ActivateViewport)
	workspace.DELETE("/tabs/:id", h.CloseViewport)

	r.POST("/events", h.EmitEvent)
	r.GET("/services", h.ListServices)
	r.POST("/services/:name/call", h.CallService)

	r.GET("/session", h.GetSession)
	r.POST("/session/save", h.SaveSession)
	r.POST("/session/restore", h.RestoreSession)

	r.GET("/companion", h.CompanionStatus)
	r.POST("/logs", h.StreamLogs)

	r.GET("/metrics", h.Prometheus)
	r.GET("/metrics/json", h.MetricsJSON)
}

// Root handles the liveness check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Widget Arcade shell host",
		"version": Version,
	})
}

// Health handles the detailed health check
func (h *Handlers) Health(c *gin.Context) {
	active, _ := h.shell.Layouts.Active()
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"version":   Version,
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"plugins":   len(h.loader.Plugins()),
		"registry":  h.shell.Registry.Stats(),
		"bus":       h.shell.Bus.Stats(),
		"layout":    active.Name,
		"companion": h.companion.Status(),
	})
}
